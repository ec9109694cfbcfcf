package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gersimian1/LiquidaPro/internal/domain/extract/consolidator"
	"github.com/gersimian1/LiquidaPro/internal/domain/extract/parser"
)

func testPipeline() *Pipeline {
	return New(slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError})))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func statement(entries ...string) []byte {
	return []byte(strings.Join(entries, "\n"))
}

func entry(name, net string) string {
	return fmt.Sprintf(`Id. Hr: 5501 Apellido y Nombre: %s Centro Pago: HOSPITAL CENTRAL
Cargo: 13-525 ENFERMERO
Liq. Pesos: %s
Rem c/ Aporte 100.000,00
`, name, net)
}

func TestRunMergesAcrossDocuments(t *testing.T) {
	docs := []Document{
		{Name: "enero.txt", Data: statement(entry("PEREZ, JUAN", "1.000,00"), entry("LOPEZ, MARIA", "2.000,00"))},
		{Name: "febrero.txt", Data: statement(entry("Perez, Juan", "500,50"))},
	}

	res, err := testPipeline().Run(context.Background(), docs, Options{Ordering: consolidator.OrderAlphabetical})
	require.NoError(t, err)

	require.Len(t, res.Employees, 2)
	assert.Equal(t, 3, res.TotalBlocks)
	assert.Equal(t, 2, res.UniqueEmployees)
	assert.Empty(t, res.DocumentErrors)

	lopez, perez := res.Employees[0], res.Employees[1]
	assert.Equal(t, "LOPEZ, MARIA", lopez.DisplayName)
	assert.Equal(t, "PEREZ, JUAN", perez.DisplayName)
	assert.True(t, perez.Amount(parser.FieldNetPayable).Equal(decimal.RequireFromString("1500.50")))
	assert.Equal(t, 2, perez.BlockCount)
}

func TestRunIsolatesFailingDocuments(t *testing.T) {
	docs := []Document{
		{Name: "roto.pdf", Data: []byte("%PDF-1.7 not really a pdf")},
		{Name: "bueno.txt", Data: statement(entry("GOMEZ, ANA", "3.000,00"))},
	}

	res, err := testPipeline().Run(context.Background(), docs, Options{})
	require.NoError(t, err)

	require.Len(t, res.DocumentErrors, 1)
	assert.Equal(t, "roto.pdf", res.DocumentErrors[0].Document)
	require.Len(t, res.Employees, 1)
	assert.Equal(t, "GOMEZ, ANA", res.Employees[0].DisplayName)
}

func TestRunFailsWhenNothingParses(t *testing.T) {
	docs := []Document{
		{Name: "vacio.txt", Data: []byte("boletin oficial, sin liquidaciones")},
		{Name: "roto.pdf", Data: []byte("%PDF-1.4 garbage")},
	}

	_, err := testPipeline().Run(context.Background(), docs, Options{})
	require.ErrorIs(t, err, ErrNoRecords)
}

func TestRunNoDocuments(t *testing.T) {
	_, err := testPipeline().Run(context.Background(), nil, Options{})
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestRunDeterministicUnderParallelism(t *testing.T) {
	docs := make([]Document, 20)
	for i := range docs {
		docs[i] = Document{
			Name: fmt.Sprintf("doc-%02d.txt", i),
			Data: statement(
				entry(fmt.Sprintf("EMPLEADO %c, N", 'A'+i%7), fmt.Sprintf("%d,00", 100+i)),
				entry("PEREZ, JUAN", "10,00"),
			),
		}
	}

	baseline, err := testPipeline().Run(context.Background(), docs, Options{Workers: 1, Ordering: consolidator.OrderOriginal})
	require.NoError(t, err)

	for _, workers := range []int{2, 8} {
		res, err := testPipeline().Run(context.Background(), docs, Options{Workers: workers, Ordering: consolidator.OrderOriginal})
		require.NoError(t, err)
		require.Len(t, res.Employees, len(baseline.Employees))
		for i := range baseline.Employees {
			assert.Equal(t, baseline.Employees[i].NormalizedName, res.Employees[i].NormalizedName)
			assert.True(t, baseline.Employees[i].Amount(parser.FieldNetPayable).Equal(res.Employees[i].Amount(parser.FieldNetPayable)))
		}
	}
}

func TestRunFieldProjectionAndTotals(t *testing.T) {
	docs := []Document{
		{Name: "marzo.txt", Data: statement(entry("PEREZ, JUAN", "1.000,00"), entry("LOPEZ, MARIA", "2.500,25"))},
	}
	opts := Options{
		Fields: []parser.FieldID{parser.FieldName, parser.FieldNetPayable},
	}

	res, err := testPipeline().Run(context.Background(), docs, opts)
	require.NoError(t, err)

	assert.Equal(t, []parser.FieldID{parser.FieldName, parser.FieldNetPayable}, res.Fields)
	require.Contains(t, res.Totals, parser.FieldNetPayable)
	assert.True(t, res.Totals[parser.FieldNetPayable].Equal(decimal.RequireFromString("3500.25")))
	assert.NotContains(t, res.Totals, parser.FieldName)
	assert.NotContains(t, res.Totals, parser.FieldRemWithContribution)
}

func TestRunDefaultProjection(t *testing.T) {
	docs := []Document{{Name: "abril.txt", Data: statement(entry("PEREZ, JUAN", "1,00"))}}

	res, err := testPipeline().Run(context.Background(), docs, Options{})
	require.NoError(t, err)

	require.NotEmpty(t, res.Fields)
	assert.Equal(t, parser.FieldName, res.Fields[0])
	assert.Len(t, res.Fields, 1+len(parser.MonetaryFields()))
}

func TestRunProgress(t *testing.T) {
	docs := []Document{
		{Name: "a.txt", Data: statement(entry("A, A", "1,00"))},
		{Name: "b.txt", Data: statement(entry("B, B", "1,00"))},
		{Name: "c.txt", Data: []byte("%PDF- broken")},
	}

	var mu sync.Mutex
	var calls []int
	opts := Options{
		Workers: 1,
		Progress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, len(docs), total)
			calls = append(calls, done)
		},
	}

	_, err := testPipeline().Run(context.Background(), docs, opts)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	docs := []Document{{Name: "a.txt", Data: statement(entry("A, A", "1,00"))}}
	_, err := testPipeline().Run(ctx, docs, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gersimian1/LiquidaPro/internal/domain/extract/consolidator"
	"github.com/gersimian1/LiquidaPro/internal/domain/extract/parser"
	"github.com/gersimian1/LiquidaPro/internal/domain/extract/pipeline"
)

func sampleResult() *pipeline.Result {
	amounts := func(net, gross string) map[parser.FieldID]decimal.Decimal {
		return map[parser.FieldID]decimal.Decimal{
			parser.FieldNetPayable:          decimal.RequireFromString(net),
			parser.FieldRemWithContribution: decimal.RequireFromString(gross),
		}
	}
	return &pipeline.Result{
		Employees: []consolidator.Employee{
			{NormalizedName: "lopez, maria", DisplayName: "LOPEZ, MARIA", Amounts: amounts("2500.25", "3000.00"), BlockCount: 1},
			{NormalizedName: "perez, juan", DisplayName: "PEREZ, JUAN", Amounts: amounts("1500.50", "1800.00"), BlockCount: 2},
		},
		Fields: []parser.FieldID{parser.FieldName, parser.FieldRemWithContribution, parser.FieldNetPayable},
		Totals: map[parser.FieldID]decimal.Decimal{
			parser.FieldRemWithContribution: decimal.RequireFromString("4800.00"),
			parser.FieldNetPayable:          decimal.RequireFromString("4000.75"),
		},
		TotalBlocks:     3,
		UniqueEmployees: 2,
	}
}

func TestXLSX(t *testing.T) {
	data, err := NewService(nil).XLSX(sampleResult(), "Liquidación Marzo 2025")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, "Liquidación Marzo 2025", rows[0][0])
	assert.Equal(t, []string{"Apellido y Nombre", "Rem c/ Aporte", "Líquido"}, rows[1])
	assert.Equal(t, "LOPEZ, MARIA", rows[2][0])
	assert.Equal(t, "PEREZ, JUAN", rows[3][0])
	assert.Equal(t, "TOTAL", rows[4][0])

	total, err := f.GetCellValue(sheetName, "C5", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "4000.75", total)
}

func TestXLSXDefaultTitle(t *testing.T) {
	data, err := NewService(nil).XLSX(sampleResult(), "")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Consolidado de haberes", title)
}

func TestCSV(t *testing.T) {
	data, err := NewService(nil).CSV(sampleResult())
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(data, utf8BOM))
	lines := strings.Split(strings.TrimSpace(string(data[len(utf8BOM):])), "\n")
	require.Len(t, lines, 4)

	assert.Equal(t, `Apellido y Nombre,Rem c/ Aporte,Líquido`, strings.TrimRight(lines[0], "\r"))
	assert.Equal(t, `"LOPEZ, MARIA",3000.00,2500.25`, strings.TrimRight(lines[1], "\r"))
	assert.Equal(t, `"PEREZ, JUAN",1800.00,1500.50`, strings.TrimRight(lines[2], "\r"))
	assert.Equal(t, `TOTAL,4800.00,4000.75`, strings.TrimRight(lines[3], "\r"))
}

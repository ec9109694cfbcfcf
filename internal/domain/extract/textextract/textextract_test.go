package textextract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gersimian1/LiquidaPro/internal/domain/extract/sniffer"
)

func TestExtractPlainText(t *testing.T) {
	e := New(nil)

	t.Run("utf-8 passes through unchanged", func(t *testing.T) {
		payload := []byte("Apellido y Nombre : PEÑA, MARÍA Centro Pago\nLiq. Pesos: 138784,57\n")
		res, err := e.Extract(context.Background(), payload, sniffer.PlainText)
		require.NoError(t, err)
		assert.Equal(t, "text", res.Method)
		assert.Equal(t, string(payload), res.Text)
	})

	t.Run("windows-1252 bytes are decoded", func(t *testing.T) {
		// "PEÑA" with a 0xD1 Ñ, as the legacy exports ship it.
		payload := []byte{'P', 'E', 0xD1, 'A'}
		res, err := e.Extract(context.Background(), payload, sniffer.PlainText)
		require.NoError(t, err)
		assert.Equal(t, "PEÑA", res.Text)
	})

	t.Run("empty payload yields empty text, not an error", func(t *testing.T) {
		res, err := e.Extract(context.Background(), nil, sniffer.PlainText)
		require.NoError(t, err)
		assert.Empty(t, res.Text)
	})
}

func TestExtractCorruptPDF(t *testing.T) {
	e := New(nil)

	// Magic signature followed by garbage: both strategies must be tried
	// and both must fail before the document is reported unreadable.
	payload := []byte("%PDF-1.4\nnot really a pdf body")
	_, err := e.Extract(context.Background(), payload, sniffer.RealDocument)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadableDocument)
}

func TestExtractHonorsCancellation(t *testing.T) {
	e := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Extract(ctx, []byte("x"), sniffer.PlainText)
	assert.ErrorIs(t, err, context.Canceled)
}

// Package textextract turns a raw statement payload into flat text.
//
// Real PDFs go through two strategies: a layout-aware extraction first (it
// keeps the summary tables readable), then a permissive content-stream pass
// for documents the first strategy cannot handle. Plain-text payloads are
// decoded directly, tolerating the Windows-1252 bytes the payroll system
// still emits.
package textextract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/tsawler/tabula"
	"golang.org/x/text/encoding/charmap"

	"github.com/gersimian1/LiquidaPro/internal/domain/extract/sniffer"
)

// ErrUnreadableDocument indicates that every extraction strategy failed for
// a real PDF. Plain-text payloads never produce it.
var ErrUnreadableDocument = errors.New("document is unreadable by all extraction strategies")

// Result holds the flat text of one statement plus how it was obtained.
type Result struct {
	Text   string
	Method string // "pdf-layout" | "pdf-raw" | "text"
}

// Extractor converts statement bytes to text according to a prior
// sniffer classification.
type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract returns the flat text of one document. The classification must come
// from sniffing the same bytes; the filename plays no part here.
func (e *Extractor) Extract(ctx context.Context, data []byte, class sniffer.Classification) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if class == sniffer.RealDocument {
		return e.extractPDF(data)
	}

	text := decodePlainText(data)
	e.logger.Debug("textextract.plain", "bytes", len(data), "chars", len(text))
	return Result{Text: text, Method: "text"}, nil
}

// extractPDF tries the layout-aware strategy, then the raw content-stream
// strategy. Both must fail before the document is reported unreadable.
func (e *Extractor) extractPDF(data []byte) (Result, error) {
	text, layoutErr := extractWithLayout(data)
	if layoutErr == nil && strings.TrimSpace(text) != "" {
		e.logger.Debug("textextract.pdf", "method", "pdf-layout", "chars", len(text))
		return Result{Text: text, Method: "pdf-layout"}, nil
	}
	if layoutErr != nil {
		e.logger.Warn("layout extraction failed, trying raw pass", "error", layoutErr)
	}

	text, rawErr := extractRaw(data)
	if rawErr == nil && strings.TrimSpace(text) != "" {
		e.logger.Debug("textextract.pdf", "method", "pdf-raw", "chars", len(text))
		return Result{Text: text, Method: "pdf-raw"}, nil
	}

	return Result{}, fmt.Errorf("%w (layout: %v, raw: %v)", ErrUnreadableDocument, layoutErr, rawErr)
}

// extractWithLayout runs the layout-aware extraction. The library reads from
// a path, so the payload is staged in a temp file for the duration.
func extractWithLayout(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "liquidapro-*.pdf")
	if err != nil {
		return "", fmt.Errorf("stage document: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("stage document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("stage document: %w", err)
	}

	ext := tabula.Open(tmp.Name()).PreserveLayout()
	defer ext.Close()

	text, _, err := ext.Text()
	if err != nil {
		return "", fmt.Errorf("layout extraction: %w", err)
	}
	return text, nil
}

// extractRaw walks the PDF content streams page by page. The reader panics on
// some malformed documents, so every page is guarded.
func extractRaw(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("raw extraction: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("raw extraction: %w", err)
	}

	var b strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		func() {
			defer func() { _ = recover() }()
			page := reader.Page(i)
			if page.V.IsNull() {
				return
			}
			content := page.Content()
			for _, item := range content.Text {
				b.WriteString(item.S)
				b.WriteString(" ")
			}
			b.WriteString("\n")
		}()
	}
	return b.String(), nil
}

// decodePlainText decodes a text payload. Valid UTF-8 passes through;
// anything else is treated as Windows-1252, which covers the Latin-1
// statements too and cannot fail.
func decodePlainText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

// Package export renders a consolidated run as XLSX or CSV bytes.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/gersimian1/LiquidaPro/internal/domain/extract/parser"
	"github.com/gersimian1/LiquidaPro/internal/domain/extract/pipeline"
)

const sheetName = "Consolidado"

// utf8BOM makes Excel open the CSV as UTF-8 instead of the local ANSI page.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Service produces spreadsheet bytes for a finished run.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// XLSX returns a styled workbook: a title banner, one row per employee in
// the result's field projection, and a closing TOTAL row over the monetary
// columns.
func (s *Service) XLSX(res *pipeline.Result, title string) ([]byte, error) {
	start := time.Now()
	if title == "" {
		title = "Consolidado de haberes"
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E78"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2F75B5"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorder(),
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	amountFormat := "#,##0.00"
	amountStyle, err := f.NewStyle(&excelize.Style{
		CustomNumFmt: &amountFormat,
		Border:       thinBorder(),
	})
	if err != nil {
		return nil, fmt.Errorf("amount style: %w", err)
	}
	nameStyle, err := f.NewStyle(&excelize.Style{Border: thinBorder()})
	if err != nil {
		return nil, fmt.Errorf("name style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		Fill:         excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
		CustomNumFmt: &amountFormat,
		Border:       thinBorder(),
	})
	if err != nil {
		return nil, fmt.Errorf("total style: %w", err)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(res.Fields))
	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return nil, err
	}
	_ = f.SetCellValue(sheetName, "A1", title)
	_ = f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle)
	_ = f.SetRowHeight(sheetName, 1, 28)

	const headerRow = 2
	for i, field := range res.Fields {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		_ = f.SetCellValue(sheetName, cell, parser.DisplayName(field))
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	row := headerRow + 1
	for _, e := range res.Employees {
		for i, field := range res.Fields {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if field == parser.FieldName {
				_ = f.SetCellValue(sheetName, cell, e.DisplayName)
				_ = f.SetCellStyle(sheetName, cell, cell, nameStyle)
				continue
			}
			amount, _ := e.Amount(field).Float64()
			_ = f.SetCellValue(sheetName, cell, amount)
			_ = f.SetCellStyle(sheetName, cell, cell, amountStyle)
		}
		row++
	}

	for i, field := range res.Fields {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if field == parser.FieldName {
			_ = f.SetCellValue(sheetName, cell, "TOTAL")
			_ = f.SetCellStyle(sheetName, cell, cell, totalStyle)
			continue
		}
		total, _ := res.Totals[field].Float64()
		_ = f.SetCellValue(sheetName, cell, total)
		_ = f.SetCellStyle(sheetName, cell, cell, totalStyle)
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	if len(res.Fields) > 1 {
		secondCol, _ := excelize.ColumnNumberToName(2)
		_ = f.SetColWidth(sheetName, secondCol, lastCol, 18)
	}
	_ = f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: "A3",
		ActivePane:  "bottomLeft",
	})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(res.Employees),
		"columns", len(res.Fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// CSV returns the same table as comma-separated text with a UTF-8 BOM and
// a trailing TOTAL row. Amounts use a plain dot decimal point.
func (s *Service) CSV(res *pipeline.Result) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)

	header := make([]string, len(res.Fields))
	for i, field := range res.Fields {
		header[i] = parser.DisplayName(field)
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}

	record := make([]string, len(res.Fields))
	for _, e := range res.Employees {
		for i, field := range res.Fields {
			if field == parser.FieldName {
				record[i] = e.DisplayName
				continue
			}
			record[i] = e.Amount(field).StringFixed(2)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("csv row: %w", err)
		}
	}

	for i, field := range res.Fields {
		if field == parser.FieldName {
			record[i] = "TOTAL"
			continue
		}
		record[i] = res.Totals[field].StringFixed(2)
	}
	if err := w.Write(record); err != nil {
		return nil, fmt.Errorf("csv total: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}

	s.logger.Info("export.csv.ok", "rows", len(res.Employees), "columns", len(res.Fields))
	return buf.Bytes(), nil
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Style: 1, Color: "B4C6E7"},
		{Type: "right", Style: 1, Color: "B4C6E7"},
		{Type: "top", Style: 1, Color: "B4C6E7"},
		{Type: "bottom", Style: 1, Color: "B4C6E7"},
	}
}

// Package xlsxexport renders declaration tables as Excel workbooks.
package xlsxexport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"declbot/internal/declaration"
	"declbot/internal/port"
)

// SheetName is the single sheet every exported workbook carries.
const SheetName = "Декларация"

var columnWidths = map[string]float64{
	"A": 5,
	"B": 28,
	"C": 16,
	"D": 10,
	"E": 8,
	"F": 18,
	"G": 18,
	"H": 12,
	"I": 10,
	"J": 14,
	"K": 14,
	"L": 11,
	"M": 13,
	"N": 13,
	"O": 16,
	"P": 14,
	"Q": 16,
	"R": 14,
}

// Writer exports a declaration table as xlsx. It implements port.TableWriter.
type Writer struct{}

var _ port.TableWriter = (*Writer)(nil)

// NewWriter returns an xlsx Writer.
func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Extension() string { return "xlsx" }

func (w *Writer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Write builds the workbook in memory and copies it to out. Numeric columns
// are written as numbers, not text.
func (w *Writer) Write(out io.Writer, table *declaration.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("xlsxexport: rename sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("xlsxexport: header style: %w", err)
	}

	headerRow := make([]any, len(declaration.Columns))
	for i, c := range declaration.Columns {
		headerRow[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &headerRow); err != nil {
		return fmt.Errorf("xlsxexport: write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(declaration.Columns), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, header); err != nil {
		return fmt.Errorf("xlsxexport: apply header style: %w", err)
	}

	for i, row := range table.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := row.Values()
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("xlsxexport: write row %d: %w", row.Seq, err)
		}
	}

	for col, width := range columnWidths {
		_ = f.SetColWidth(SheetName, col, col, width)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("xlsxexport: freeze header: %w", err)
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("xlsxexport: write workbook: %w", err)
	}
	return nil
}

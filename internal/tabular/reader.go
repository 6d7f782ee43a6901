// Package tabular reads spreadsheet uploads into rows of nullable cells.
package tabular

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"declbot/internal/domain"
	"declbot/internal/port"
)

// Reader reads .xlsx workbooks with excelize.
type Reader struct{}

// NewReader creates a Reader.
func NewReader() port.TabularReader {
	return &Reader{}
}

// ReadRows returns every row of every sheet, in sheet order. Empty cells are null.
func (r *Reader) ReadRows(ctx context.Context, src io.Reader) ([][]domain.Cell, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out [][]domain.Cell
	for _, sheet := range f.GetSheetList() {
		rows, err := f.Rows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		for rows.Next() {
			if err := ctx.Err(); err != nil {
				_ = rows.Close()
				return nil, err
			}
			cols, err := rows.Columns()
			if err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
			}
			out = append(out, toCells(cols))
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("closing sheet %q: %w", sheet, err)
		}
	}
	return out, nil
}

func toCells(cols []string) []domain.Cell {
	cells := make([]domain.Cell, len(cols))
	for i, v := range cols {
		v = strings.TrimSpace(v)
		cells[i] = domain.Cell{Value: v, Valid: v != ""}
	}
	return cells
}

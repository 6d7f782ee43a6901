package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"

	"declbot/internal/declaration"
	"declbot/internal/port"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer exports a declaration table as CSV. It implements port.TableWriter.
type Writer struct {
	bom bool
}

var _ port.TableWriter = (*Writer)(nil)

// NewWriter creates a Writer that prefixes the output with a UTF-8 BOM.
func NewWriter() *Writer {
	return &Writer{bom: true}
}

func (w *Writer) Extension() string { return "csv" }

func (w *Writer) ContentType() string { return "text/csv; charset=utf-8" }

// Write emits the header followed by one record per row.
func (w *Writer) Write(out io.Writer, table *declaration.Table) error {
	if w.bom {
		if _, err := out.Write(BOM); err != nil {
			return fmt.Errorf("csvexport: write bom: %w", err)
		}
	}

	cw := csv.NewWriter(out)
	if err := cw.Write(declaration.Columns); err != nil {
		return fmt.Errorf("csvexport: write header: %w", err)
	}
	for _, row := range table.Rows {
		if err := cw.Write(row.Strings()); err != nil {
			return fmt.Errorf("csvexport: write row %d: %w", row.Seq, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

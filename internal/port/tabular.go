package port

import (
	"context"
	"io"

	"declbot/internal/declaration"
	"declbot/internal/domain"
)

// TabularReader reads every row of every sheet of a spreadsheet.
type TabularReader interface {
	ReadRows(ctx context.Context, r io.Reader) ([][]domain.Cell, error)
}

// TableWriter renders a declaration table as a downloadable artifact.
type TableWriter interface {
	Write(w io.Writer, table *declaration.Table) error
	Extension() string
	ContentType() string
}

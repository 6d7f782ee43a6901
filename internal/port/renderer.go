package port

import (
	"context"

	"declbot/internal/declaration"
	"declbot/internal/domain"
)

// DeclarationRenderer turns a finished table into the artifact sent back to the user.
type DeclarationRenderer interface {
	Render(ctx context.Context, userID int64, table *declaration.Table) (*domain.Artifact, error)
}

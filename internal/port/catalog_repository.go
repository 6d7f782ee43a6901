package port

import (
	"context"

	"declbot/internal/domain"
)

// CatalogRepository defines the contract for catalog data stored outside the binary.
type CatalogRepository interface {
	LoadAll(ctx context.Context) ([]domain.CatalogEntry, error)
}

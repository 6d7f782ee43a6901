package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"declbot/internal/domain"
	"declbot/internal/port"
)

type catalogRepo struct {
	db *sqlx.DB
}

// NewCatalogRepo creates a SQL-backed CatalogRepository.
func NewCatalogRepo(db *sqlx.DB) port.CatalogRepository {
	return &catalogRepo{db: db}
}

func (r *catalogRepo) LoadAll(ctx context.Context) ([]domain.CatalogEntry, error) {
	var entries []domain.CatalogEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT name, customs_code, certification_required, origin_certificate_available
		 FROM catalog_entries
		 ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("catalogRepo.LoadAll: %w", err)
	}
	return entries, nil
}

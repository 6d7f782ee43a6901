package port

import (
	"context"

	"declbot/internal/domain"
)

// BatchStore holds the one pending batch result per user until it is finalized.
// Get returns domain.ErrNoPendingBatch when nothing is pending or the result expired.
type BatchStore interface {
	Put(ctx context.Context, result *domain.BatchResult) error
	Get(ctx context.Context, userID int64) (*domain.BatchResult, error)
	Delete(ctx context.Context, userID int64) error
}

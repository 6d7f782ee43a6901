package port

import (
	"context"

	"declbot/internal/domain"
)

// SessionStore persists conversation sessions keyed by user id.
// Save must replace the stored snapshot atomically: a reader sees either the
// previous snapshot or the new one, never a partial write.
type SessionStore interface {
	LoadAll(ctx context.Context) ([]*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, userID int64) error
	Ping(ctx context.Context) error
}

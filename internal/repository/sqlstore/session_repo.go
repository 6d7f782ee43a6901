package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"declbot/internal/domain"
	"declbot/internal/port"
	"declbot/internal/snapshot"
)

type sessionRepo struct {
	db  *sqlx.DB
	log *zap.Logger
}

// NewSessionRepo creates a SQL-backed SessionStore. Each Save is a single upsert
// statement, so a snapshot row is replaced atomically.
func NewSessionRepo(db *sqlx.DB, log *zap.Logger) port.SessionStore {
	return &sessionRepo{db: db, log: log.Named("sqlstore")}
}

type sessionRow struct {
	UserID   int64  `db:"user_id"`
	Snapshot string `db:"snapshot"`
}

func (r *sessionRepo) LoadAll(ctx context.Context) ([]*domain.Session, error) {
	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT user_id, snapshot FROM sessions ORDER BY user_id`); err != nil {
		return nil, fmt.Errorf("sessionRepo.LoadAll: %w", err)
	}
	sessions := make([]*domain.Session, 0, len(rows))
	for _, row := range rows {
		s, err := snapshot.Decode([]byte(row.Snapshot))
		if err != nil {
			if errors.Is(err, snapshot.ErrCorrupt) {
				r.log.Warn("skipping corrupt session snapshot", zap.Int64("user_id", row.UserID), zap.Error(err))
				continue
			}
			return nil, fmt.Errorf("sessionRepo.LoadAll: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (r *sessionRepo) Save(ctx context.Context, s *domain.Session) error {
	data, err := snapshot.Encode(s)
	if err != nil {
		return fmt.Errorf("sessionRepo.Save: %w", err)
	}
	query := r.db.Rebind(`INSERT INTO sessions (user_id, step, snapshot, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE
		SET step = excluded.step, snapshot = excluded.snapshot, updated_at = excluded.updated_at`)
	if _, err := r.db.ExecContext(ctx, query, s.UserID, s.Step.String(), string(data), s.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("sessionRepo.Save: %w", err)
	}
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE user_id = ?`), userID); err != nil {
		return fmt.Errorf("sessionRepo.Delete: %w", err)
	}
	return nil
}

func (r *sessionRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

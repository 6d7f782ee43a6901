package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// JanitorConfig holds settings for the session janitor.
type JanitorConfig struct {
	Interval time.Duration
	IdleTTL  time.Duration
}

// IdlePurger drops conversations that have not advanced for longer than idle.
type IdlePurger interface {
	PurgeIdle(ctx context.Context, idle time.Duration) (int, error)
}

// ExpiredPurger drops pending batch results past their time to live.
type ExpiredPurger interface {
	PurgeExpired() int
}

// SessionJanitor periodically removes idle sessions and expired batch results.
type SessionJanitor struct {
	sessions IdlePurger
	batches  ExpiredPurger
	cfg      JanitorConfig
	log      *zap.Logger
}

// NewSessionJanitor creates a SessionJanitor. batches may be nil.
func NewSessionJanitor(sessions IdlePurger, batches ExpiredPurger, cfg JanitorConfig, log *zap.Logger) *SessionJanitor {
	return &SessionJanitor{
		sessions: sessions,
		batches:  batches,
		cfg:      cfg,
		log:      log.Named("janitor"),
	}
}

// Start runs the sweep loop until ctx is canceled.
func (j *SessionJanitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	j.log.Info("started", zap.Duration("interval", j.cfg.Interval), zap.Duration("idle_ttl", j.cfg.IdleTTL))

	for {
		select {
		case <-ctx.Done():
			j.log.Info("shutdown complete")
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep runs one purge pass.
func (j *SessionJanitor) Sweep(ctx context.Context) {
	// A sweep started before shutdown finishes its store calls.
	sweepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	defer cancel()

	n, err := j.sessions.PurgeIdle(sweepCtx, j.cfg.IdleTTL)
	if err != nil {
		j.log.Warn("purging idle sessions", zap.Int("purged", n), zap.Error(err))
	}
	if j.batches != nil {
		if expired := j.batches.PurgeExpired(); expired > 0 {
			j.log.Debug("expired batch results dropped", zap.Int("count", expired))
		}
	}
}

// Package memstore keeps short-lived state in process memory.
package memstore

import (
	"context"
	"sync"
	"time"

	"declbot/internal/domain"
	"declbot/internal/port"
)

type pendingBatch struct {
	result    *domain.BatchResult
	expiresAt time.Time
}

// BatchStore is an in-memory port.BatchStore with a fixed time to live.
type BatchStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	pending map[int64]pendingBatch
}

var _ port.BatchStore = (*BatchStore)(nil)

// NewBatchStore creates a store whose entries expire ttl after Put.
func NewBatchStore(ttl time.Duration) *BatchStore {
	return &BatchStore{ttl: ttl, now: time.Now, pending: make(map[int64]pendingBatch)}
}

// WithClock replaces time.Now, for tests.
func (s *BatchStore) WithClock(now func() time.Time) *BatchStore {
	s.now = now
	return s
}

// Put replaces the user's pending result.
func (s *BatchStore) Put(_ context.Context, result *domain.BatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[result.UserID] = pendingBatch{result: result, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *BatchStore) Get(_ context.Context, userID int64) (*domain.BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[userID]
	if !ok {
		return nil, domain.ErrNoPendingBatch
	}
	if !s.now().Before(p.expiresAt) {
		delete(s.pending, userID)
		return nil, domain.ErrNoPendingBatch
	}
	return p.result, nil
}

func (s *BatchStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, userID)
	return nil
}

// PurgeExpired drops every expired result and returns how many were dropped.
func (s *BatchStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, p := range s.pending {
		if !now.Before(p.expiresAt) {
			delete(s.pending, id)
			n++
		}
	}
	return n
}

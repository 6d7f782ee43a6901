package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"declbot/internal/domain"
	"declbot/internal/port"
)

// circuitState tracks consecutive failures and backoff for a single engine.
type circuitState struct {
	mu       sync.Mutex
	failures int
	resetAt  time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpen(now time.Time) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) success() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
	c.resetAt = time.Time{}
}

// failure records a failed call and opens the circuit once threshold is reached.
// It returns true when the circuit was opened by this call.
func (c *circuitState) failure(now time.Time, threshold int, cooldown time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	if c.failures < threshold {
		return false
	}
	c.failures = 0
	c.resetAt = now.Add(cooldown)
	return true
}

// FallbackEngine tries engines in order, skipping those with open circuits.
// An engine that answers with blank text hands over to the next one.
// It implements port.OCREngine.
type FallbackEngine struct {
	engines   []port.OCREngine
	circuits  []*circuitState
	threshold int
	cooldown  time.Duration
	log       *zap.Logger
	now       func() time.Time
}

// NewFallbackEngine creates a FallbackEngine. A circuit opens after threshold
// consecutive failures and stays open for cooldown.
func NewFallbackEngine(engines []port.OCREngine, threshold int, cooldown time.Duration, log *zap.Logger) *FallbackEngine {
	if threshold <= 0 {
		threshold = 1
	}
	circuits := make([]*circuitState, len(engines))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackEngine{
		engines:   engines,
		circuits:  circuits,
		threshold: threshold,
		cooldown:  cooldown,
		log:       log.Named("ocr.fallback"),
		now:       time.Now,
	}
}

func (f *FallbackEngine) Name() string {
	names := make([]string, len(f.engines))
	for i, e := range f.engines {
		names[i] = e.Name()
	}
	return strings.Join(names, "+")
}

func (f *FallbackEngine) Recognize(ctx context.Context, input port.OCRInput) (string, error) {
	now := f.now()
	var lastErr error
	blank := false

	for i, e := range f.engines {
		if resetAt, open := f.circuits[i].isOpen(now); open {
			f.log.Debug("skipping engine",
				zap.String("engine", e.Name()),
				zap.Time("circuit_open_until", resetAt),
			)
			continue
		}

		text, err := e.Recognize(ctx, input)
		if err == nil {
			f.circuits[i].success()
			if strings.TrimSpace(text) != "" {
				return text, nil
			}
			blank = true
			f.log.Debug("engine returned no text", zap.String("engine", e.Name()), zap.String("file", input.Name))
			continue
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		f.log.Warn("engine failed",
			zap.String("engine", e.Name()),
			zap.String("file", input.Name),
			zap.Error(err),
		)
		lastErr = err

		cooldown := f.cooldown
		threshold := f.threshold
		var u *UnavailableError
		if errors.As(err, &u) {
			cooldown = u.Cooldown
			threshold = 1
		}
		if f.circuits[i].failure(now, threshold, cooldown) {
			f.log.Warn("circuit opened", zap.String("engine", e.Name()), zap.Duration("cooldown", cooldown))
		}
	}

	if blank {
		return "", domain.ErrExtractionFailed
	}
	if lastErr == nil {
		return "", NewUnavailableError("all", fmt.Errorf("all ocr engines are cooling down"), f.cooldown)
	}
	return "", fmt.Errorf("all ocr engines failed: %w", lastErr)
}

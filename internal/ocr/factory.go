package ocr

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"declbot/internal/config"
	"declbot/internal/port"
)

// NewEngine builds the configured providers, in order, behind a FallbackEngine.
// The returned close func releases any remote clients.
func NewEngine(ctx context.Context, cfg *config.OCRConfig, log *zap.Logger) (port.OCREngine, func() error, error) {
	var (
		engines []port.OCREngine
		closers []func() error
	)
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	for _, name := range cfg.Providers {
		switch name {
		case config.OCRProviderTesseract:
			engines = append(engines, NewTesseract(cfg, log))
		case config.OCRProviderGCPVision:
			v, err := NewGCPVision(ctx, cfg, log)
			if err != nil {
				_ = closeAll()
				return nil, nil, err
			}
			engines = append(engines, v)
			closers = append(closers, v.Close)
		default:
			_ = closeAll()
			return nil, nil, fmt.Errorf("unknown ocr provider: %s", name)
		}
	}
	if len(engines) == 0 {
		return nil, nil, errors.New("no ocr provider configured")
	}
	return NewFallbackEngine(engines, cfg.FailureThreshold, cfg.Cooldown, log), closeAll, nil
}

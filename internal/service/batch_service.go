package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"declbot/internal/declaration"
	"declbot/internal/domain"
	"declbot/internal/port"
)

// BatchConfig bounds one upload.
type BatchConfig struct {
	Concurrency int
	Timeout     time.Duration
}

// BatchOutcome is what one upload produced. Result is set even when nothing was recognized.
type BatchOutcome struct {
	Result  *domain.BatchResult
	Skipped []port.SkippedFile
}

// Aggregator reduces extracted documents to line items.
type Aggregator interface {
	Aggregate(userID int64, docs []domain.Document) (*domain.BatchResult, error)
}

// BatchService runs the document pipeline and finalizes its pending result.
type BatchService interface {
	Process(ctx context.Context, userID int64, name string, data []byte) (*BatchOutcome, error)
	Finalize(ctx context.Context, userID int64) (*domain.Artifact, error)
	HasPending(ctx context.Context, userID int64) bool
}

type batchService struct {
	archive    port.ArchiveReader
	tabular    port.TabularReader
	ocr        port.OCREngine
	aggregator Aggregator
	store      port.BatchStore
	renderer   port.DeclarationRenderer
	cfg        BatchConfig
	log        *zap.Logger
}

// NewBatchService creates a BatchService.
func NewBatchService(
	archive port.ArchiveReader,
	tabular port.TabularReader,
	ocr port.OCREngine,
	aggregator Aggregator,
	store port.BatchStore,
	renderer port.DeclarationRenderer,
	cfg BatchConfig,
	log *zap.Logger,
) BatchService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &batchService{
		archive:    archive,
		tabular:    tabular,
		ocr:        ocr,
		aggregator: aggregator,
		store:      store,
		renderer:   renderer,
		cfg:        cfg,
		log:        log.Named("batch"),
	}
}

// Process unpacks the upload, extracts every file concurrently and aggregates the
// results in archive order. The result becomes the user's pending batch only after
// every file was handled and at least one item was recognized.
// A new upload supersedes whatever was pending, so a failed or empty upload leaves nothing to finalize.
func (s *batchService) Process(ctx context.Context, userID int64, name string, data []byte) (*BatchOutcome, error) {
	start := time.Now()
	if err := s.store.Delete(ctx, userID); err != nil {
		return nil, fmt.Errorf("batchService.Process: clearing pending result: %w", err)
	}
	files, skipped, err := s.archive.Open(name, data)
	if err != nil {
		return nil, err
	}
	for _, sk := range skipped {
		s.log.Debug("archive member skipped", zap.String("file", sk.Name), zap.String("reason", sk.Reason))
	}

	docs, err := s.extractAll(ctx, files)
	if err != nil {
		return nil, err
	}

	result, err := s.aggregator.Aggregate(userID, docs)
	outcome := &BatchOutcome{Result: result, Skipped: skipped}
	if err != nil {
		s.log.Info("batch yielded no items",
			zap.Int64("user_id", userID),
			zap.String("upload", name),
			zap.Int("files", len(files)),
		)
		return outcome, err
	}

	if err := s.store.Put(ctx, result); err != nil {
		return nil, fmt.Errorf("batchService.Process: storing result: %w", err)
	}
	s.log.Info("batch processed",
		zap.Int64("user_id", userID),
		zap.String("upload", name),
		zap.String("batch_id", result.ID.String()),
		zap.Int("files", len(files)),
		zap.Int("items", len(result.Items)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return outcome, nil
}

func (s *batchService) extractAll(ctx context.Context, files []port.ArchiveFile) ([]domain.Document, error) {
	runCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	docs := make([]domain.Document, len(files))
	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(s.cfg.Concurrency)
	for i := range files {
		f := files[i]
		g.Go(func() error {
			docs[i] = s.extract(gctx, f)
			return gctx.Err()
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s", domain.ErrBatchTimeout, s.cfg.Timeout)
	}
	return docs, nil
}

func (s *batchService) extract(ctx context.Context, f port.ArchiveFile) domain.Document {
	doc := domain.Document{Name: f.Name, Kind: f.Kind}
	switch f.Kind {
	case domain.DocumentKindTabular:
		rows, err := s.tabular.ReadRows(ctx, bytes.NewReader(f.Data))
		if err != nil {
			doc.Err = fmt.Errorf("reading spreadsheet: %w", err)
			break
		}
		doc.Rows = rows
	case domain.DocumentKindOCR:
		text, err := s.ocr.Recognize(ctx, port.OCRInput{
			Name:        f.Name,
			ContentType: domain.ContentTypes[f.Ext],
			Data:        f.Data,
		})
		if err != nil {
			doc.Err = err
			break
		}
		if strings.TrimSpace(text) == "" {
			doc.Err = domain.ErrExtractionFailed
			break
		}
		doc.Lines = strings.Split(text, "\n")
	default:
		doc.Err = fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, f.Name)
	}
	if doc.Err != nil {
		s.log.Warn("document extraction failed", zap.String("file", f.Name), zap.Error(doc.Err))
	}
	return doc
}

// Finalize renders the pending batch and clears it. On failure the batch stays pending.
func (s *batchService) Finalize(ctx context.Context, userID int64) (*domain.Artifact, error) {
	result, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	table, err := declaration.FromBatch(result)
	if err != nil {
		return nil, err
	}
	artifact, err := s.renderer.Render(ctx, userID, table)
	if err != nil {
		return nil, fmt.Errorf("batchService.Finalize: rendering declaration: %w", err)
	}
	if err := s.store.Delete(ctx, userID); err != nil {
		s.log.Warn("failed to clear pending batch", zap.Int64("user_id", userID), zap.Error(err))
	}
	s.log.Info("batch finalized", zap.Int64("user_id", userID), zap.String("batch_id", result.ID.String()), zap.Int("rows", table.Len()))
	return artifact, nil
}

func (s *batchService) HasPending(ctx context.Context, userID int64) bool {
	_, err := s.store.Get(ctx, userID)
	return err == nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"declbot/internal/aggregator"
	"declbot/internal/archive"
	"declbot/internal/catalog"
	"declbot/internal/config"
	"declbot/internal/conversation"
	"declbot/internal/csvexport"
	"declbot/internal/domain"
	"declbot/internal/email/noop"
	"declbot/internal/email/ses"
	"declbot/internal/extractor"
	"declbot/internal/handler"
	"declbot/internal/logger"
	"declbot/internal/ocr"
	"declbot/internal/port"
	"declbot/internal/repository/filestore"
	"declbot/internal/repository/memstore"
	"declbot/internal/repository/redisstore"
	"declbot/internal/repository/sqlstore"
	"declbot/internal/router"
	"declbot/internal/service"
	s3storage "declbot/internal/storage/s3"
	"declbot/internal/tabular"
	"declbot/internal/xlsxexport"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database is needed by the sql session store and the db catalog source
	var db *sqlx.DB
	if cfg.Session.Store == config.SessionStoreSQL || cfg.Catalog.Source == catalog.SourceDB {
		db, err = sqlstore.NewDB(&cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
	}

	sessions, closeSessions, err := newSessionStore(ctx, cfg, db, zlog)
	if err != nil {
		return err
	}
	defer closeSessions()

	var catalogRepo port.CatalogRepository
	if db != nil {
		catalogRepo = sqlstore.NewCatalogRepo(db)
	}
	cat, err := catalog.Load(ctx, cfg.Catalog.Source, cfg.Catalog.Path, catalogRepo)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	zlog.Info("catalog loaded", zap.String("source", cfg.Catalog.Source), zap.Int("entries", cat.Len()))

	consts := domain.LineItemConstants{
		OriginCountry:   cfg.Catalog.OriginCountry,
		DispatchCountry: cfg.Catalog.DispatchCountry,
		Preference:      cfg.Catalog.Preference,
		VATRate:         cfg.Catalog.VATRate,
	}

	// Initialize the document pipeline
	ext := extractor.New(cat, consts)
	agg := aggregator.New(ext)
	archiveReader := archive.NewReader(cfg.Batch.MaxFiles, cfg.Batch.MaxUncompressedMB<<20)
	tabularReader := tabular.NewReader()

	ocrEngine, closeOCR, err := ocr.NewEngine(ctx, &cfg.OCR, zlog)
	if err != nil {
		return fmt.Errorf("failed to initialize OCR: %w", err)
	}
	defer func() { _ = closeOCR() }()

	// Initialize export delivery
	var writer port.TableWriter = xlsxexport.NewWriter()
	if cfg.Export.Format == config.ExportFormatCSV {
		writer = csvexport.NewWriter()
	}

	var storage port.ObjectStorage
	if cfg.Export.Upload {
		storage, err = s3storage.NewDeclarationStore(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize declaration storage: %w", err)
		}
	}

	var sender port.EmailSender
	switch cfg.Email.Provider {
	case config.EmailProviderSES:
		sender, err = ses.NewSESSender(ctx, cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	default:
		sender = noop.NewNoopSender(zlog)
	}

	renderer := service.NewExportService(writer, storage, sender, service.ExportOptions{
		Bucket:        cfg.S3.Bucket,
		PresignExpiry: cfg.S3.PresignExpiry,
		EmailTo:       cfg.Email.To,
	}, zlog)

	// Initialize services
	engine := conversation.NewEngine(cat, consts, sessions, renderer, zlog)
	resumed, err := engine.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to resume sessions: %w", err)
	}
	zlog.Info("sessions resumed", zap.Int("count", resumed))

	batches := memstore.NewBatchStore(cfg.Batch.ResultTTL)
	batchSvc := service.NewBatchService(archiveReader, tabularReader, ocrEngine, agg, batches, renderer,
		service.BatchConfig{Concurrency: cfg.Batch.Concurrency, Timeout: cfg.Batch.Timeout}, zlog)
	chatSvc := service.NewChatService(engine, batchSvc, zlog)

	janitor := service.NewSessionJanitor(engine, batches, service.JanitorConfig{
		Interval: cfg.Session.PurgeInterval,
		IdleTTL:  cfg.Session.IdleTTL,
	}, zlog)
	go janitor.Start(ctx)

	// Initialize handlers
	chatH := handler.NewChatHandler(chatSvc, cfg.Server.MaxUploadMB)
	catalogH := handler.NewCatalogHandler(cat)
	healthH := handler.NewHealthHandler(sessions)

	// Setup router
	r := router.Setup(zlog, cfg.Gateway, chatH, catalogH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server starting", zap.String("addr", cfg.Server.Port), zap.String("environment", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func newSessionStore(ctx context.Context, cfg *config.Config, db *sqlx.DB, zlog *zap.Logger) (port.SessionStore, func(), error) {
	switch cfg.Session.Store {
	case config.SessionStoreFile:
		store, err := filestore.NewSessionStore(cfg.Session.Dir, zlog)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open session dir: %w", err)
		}
		return store, func() {}, nil
	case config.SessionStoreRedis:
		rdb, err := redisstore.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		store := redisstore.NewSessionStore(rdb, cfg.Redis.KeyPrefix, cfg.Session.IdleTTL, zlog)
		return store, func() { _ = rdb.Close() }, nil
	default:
		return sqlstore.NewSessionRepo(db, zlog), func() {}, nil
	}
}

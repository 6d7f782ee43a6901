package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"declbot/internal/declaration"
	"declbot/internal/domain"
	"declbot/internal/port"
)

// ExportOptions configures optional delivery of rendered declarations.
type ExportOptions struct {
	Bucket        string
	PresignExpiry int64
	EmailTo       string
}

type exportService struct {
	writer  port.TableWriter
	storage port.ObjectStorage
	email   port.EmailSender
	opts    ExportOptions
	log     *zap.Logger
	now     func() time.Time
}

// NewExportService creates the DeclarationRenderer. storage and email may be nil,
// in which case the artifact is only returned to the caller.
func NewExportService(
	writer port.TableWriter,
	storage port.ObjectStorage,
	email port.EmailSender,
	opts ExportOptions,
	log *zap.Logger,
) port.DeclarationRenderer {
	return &exportService{
		writer:  writer,
		storage: storage,
		email:   email,
		opts:    opts,
		log:     log.Named("export"),
		now:     time.Now,
	}
}

// Render writes the table and, when configured, uploads and e-mails it.
// Delivery failures are logged; the artifact is still returned.
func (s *exportService) Render(ctx context.Context, userID int64, table *declaration.Table) (*domain.Artifact, error) {
	var buf bytes.Buffer
	if err := s.writer.Write(&buf, table); err != nil {
		return nil, fmt.Errorf("exportService.Render: %w", err)
	}

	artifact := &domain.Artifact{
		Name:        declaration.FileName(userID, s.now().UTC(), s.writer.Extension()),
		ContentType: s.writer.ContentType(),
		Data:        buf.Bytes(),
		Rows:        table.Len(),
	}

	if s.storage != nil {
		artifact.URL = s.upload(ctx, userID, artifact)
	}
	if s.email != nil && s.opts.EmailTo != "" {
		err := s.email.SendDeclaration(ctx, port.DeclarationEmail{
			To:          s.opts.EmailTo,
			UserID:      userID,
			FileName:    artifact.Name,
			DownloadURL: artifact.URL,
			Rows:        artifact.Rows,
		})
		if err != nil {
			s.log.Warn("declaration email failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	s.log.Info("declaration rendered",
		zap.Int64("user_id", userID),
		zap.String("file", artifact.Name),
		zap.Int("rows", artifact.Rows),
		zap.Int("bytes", len(artifact.Data)),
	)
	return artifact, nil
}

func (s *exportService) upload(ctx context.Context, userID int64, artifact *domain.Artifact) string {
	key := declaration.ObjectKey(userID, uuid.New().String(), artifact.Name)
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.opts.Bucket,
		Key:         key,
		Body:        bytes.NewReader(artifact.Data),
		ContentType: artifact.ContentType,
		Size:        int64(len(artifact.Data)),
		FileName:    artifact.Name,
		Metadata: map[string]string{
			"user-id": strconv.FormatInt(userID, 10),
			"rows":    strconv.Itoa(artifact.Rows),
		},
	})
	if err != nil {
		s.log.Warn("declaration upload failed", zap.Int64("user_id", userID), zap.Error(err))
		return ""
	}

	url, err := s.storage.GetPresignedURL(ctx, s.opts.Bucket, key, s.opts.PresignExpiry)
	if err != nil {
		s.log.Warn("presigning declaration failed", zap.String("key", key), zap.Error(err))
		if delErr := s.storage.Delete(ctx, s.opts.Bucket, key); delErr != nil {
			s.log.Warn("cleanup of unreachable upload failed", zap.String("key", key), zap.Error(delErr))
		}
		return ""
	}
	return url
}

package noop

import (
	"context"

	"go.uber.org/zap"

	"declbot/internal/port"
)

type noopSender struct {
	log *zap.Logger
}

// NewNoopSender creates a no-op EmailSender that only logs what would have been sent.
func NewNoopSender(log *zap.Logger) port.EmailSender {
	return &noopSender{log: log.Named("email.noop")}
}

func (s *noopSender) SendDeclaration(_ context.Context, msg port.DeclarationEmail) error {
	s.log.Info("declaration email skipped",
		zap.String("to", msg.To),
		zap.Int64("user_id", msg.UserID),
		zap.String("file", msg.FileName),
		zap.String("url", msg.DownloadURL),
		zap.Int("rows", msg.Rows),
	)
	return nil
}

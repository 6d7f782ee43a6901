package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"declbot/internal/declaration"
	"declbot/internal/domain"
)

// DoneKeyword finalizes a pending batch.
const DoneKeyword = "done"

const (
	batchNoItems     = "❌ Не удалось распознать ни одной позиции."
	batchUnsupported = "❌ Этот формат не поддерживается. Пришли zip-архив или файл xlsx, pdf, jpg, png."
	batchTooLarge    = "❌ Архив слишком большой."
	batchTimeout     = "⏳ Обработка заняла слишком много времени. Попробуй отправить меньше файлов."
	batchConfirm     = `Проверь позиции и ответь "done", чтобы получить файл.`
)

// Conversation is the guided declaration dialogue.
type Conversation interface {
	Start(ctx context.Context, userID int64) (domain.Reply, error)
	Cancel(ctx context.Context, userID int64) (domain.Reply, error)
	Help() domain.Reply
	Handle(ctx context.Context, userID int64, text string) (domain.Reply, error)
}

// ChatService routes inbound chat messages and uploads.
type ChatService interface {
	HandleMessage(ctx context.Context, userID int64, text string) ([]domain.Reply, error)
	HandleDocument(ctx context.Context, userID int64, name string, data []byte) ([]domain.Reply, error)
}

type chatService struct {
	conversation Conversation
	batch        BatchService
	log          *zap.Logger
}

// NewChatService creates a ChatService.
func NewChatService(conversation Conversation, batch BatchService, log *zap.Logger) ChatService {
	return &chatService{conversation: conversation, batch: batch, log: log.Named("chat")}
}

// HandleMessage dispatches commands, the done keyword and free text. The done keyword
// goes to the batch pipeline only while a batch result is pending; otherwise it is
// ordinary conversation input.
func (s *chatService) HandleMessage(ctx context.Context, userID int64, text string) ([]domain.Reply, error) {
	text = strings.TrimSpace(text)
	var (
		reply domain.Reply
		err   error
	)
	switch domain.Command(strings.ToLower(text)) {
	case domain.CommandStart:
		reply, err = s.conversation.Start(ctx, userID)
	case domain.CommandHelp:
		reply = s.conversation.Help()
	case domain.CommandCancel:
		reply, err = s.conversation.Cancel(ctx, userID)
	default:
		if strings.EqualFold(text, DoneKeyword) && s.batch.HasPending(ctx, userID) {
			return s.finalizeBatch(ctx, userID)
		}
		reply, err = s.conversation.Handle(ctx, userID, text)
	}
	if err != nil {
		return nil, err
	}
	return []domain.Reply{reply}, nil
}

func (s *chatService) finalizeBatch(ctx context.Context, userID int64) ([]domain.Reply, error) {
	artifact, err := s.batch.Finalize(ctx, userID)
	if err != nil {
		return nil, err
	}
	return []domain.Reply{{Text: "📄 Декларация готова!", Document: artifact}}, nil
}

// HandleDocument runs the batch pipeline over an upload and describes the result.
// Problems with the upload itself are answered in chat, not returned as errors.
func (s *chatService) HandleDocument(ctx context.Context, userID int64, name string, data []byte) ([]domain.Reply, error) {
	out, err := s.batch.Process(ctx, userID, name, data)
	switch {
	case err == nil:
		return []domain.Reply{{Text: summarize(out)}, {Text: batchConfirm}}, nil
	case errors.Is(err, domain.ErrNoItemsRecognized):
		text := batchNoItems
		if out != nil {
			if report := documentReport(out); report != "" {
				text += "\n\n" + report
			}
		}
		return []domain.Reply{{Text: text}}, nil
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return []domain.Reply{{Text: batchUnsupported}}, nil
	case errors.Is(err, domain.ErrArchiveTooLarge):
		return []domain.Reply{{Text: batchTooLarge}}, nil
	case errors.Is(err, domain.ErrBatchTimeout):
		s.log.Warn("batch timed out", zap.Int64("user_id", userID), zap.String("upload", name))
		return []domain.Reply{{Text: batchTimeout}}, nil
	default:
		return nil, err
	}
}

func summarize(out *BatchOutcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Найдено позиций: %d\n", len(out.Result.Items))
	for i, item := range out.Result.Items {
		fmt.Fprintf(&b, "%d. %s: %s кг × $%s = $%s",
			i+1,
			item.ProductName,
			declaration.FormatNumber(item.NetWeightKg),
			declaration.FormatNumber(item.PricePerKgUSD),
			declaration.FormatNumber(item.TotalUSD),
		)
		if item.PackageCount > 0 {
			fmt.Fprintf(&b, ", мест: %d", item.PackageCount)
		}
		b.WriteString("\n")
	}
	if report := documentReport(out); report != "" {
		b.WriteString("\n")
		b.WriteString(report)
	}
	return strings.TrimRight(b.String(), "\n")
}

// documentReport lists the files that failed or were skipped.
func documentReport(out *BatchOutcome) string {
	var lines []string
	if out.Result != nil {
		for _, d := range out.Result.Documents {
			if d.Error != "" {
				lines = append(lines, fmt.Sprintf("⚠️ %s: %s", d.Name, d.Error))
			}
		}
	}
	for _, sk := range out.Skipped {
		lines = append(lines, fmt.Sprintf("⏭ %s: %s", sk.Name, sk.Reason))
	}
	return strings.Join(lines, "\n")
}

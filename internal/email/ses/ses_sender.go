package ses

import (
	"context"
	"fmt"
	"html"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"declbot/internal/port"
)

// Client is the subset of the SES v2 API the sender uses.
type Client interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesSender struct {
	client      Client
	fromAddress string
	fromName    string
}

// NewSESSender creates a new SES-backed EmailSender.
func NewSESSender(ctx context.Context, region, fromAddress, fromName string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return NewSESSenderWithClient(sesv2.NewFromConfig(cfg), fromAddress, fromName), nil
}

// NewSESSenderWithClient wraps an existing SES client.
func NewSESSenderWithClient(client Client, fromAddress, fromName string) port.EmailSender {
	return &sesSender{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
	}
}

func (s *sesSender) SendDeclaration(ctx context.Context, msg port.DeclarationEmail) error {
	subject := fmt.Sprintf("Декларация %s", msg.FileName)
	htmlBody := buildDeclarationHTML(msg)
	textBody := buildDeclarationText(msg)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildDeclarationText(msg port.DeclarationEmail) string {
	text := fmt.Sprintf("Сформирована декларация %s для пользователя %d.\nПозиций: %d.\n", msg.FileName, msg.UserID, msg.Rows)
	if msg.DownloadURL != "" {
		text += fmt.Sprintf("\nСкачать: %s\n", msg.DownloadURL)
	}
	return text
}

func buildDeclarationHTML(msg port.DeclarationEmail) string {
	link := ""
	if msg.DownloadURL != "" {
		u := html.EscapeString(msg.DownloadURL)
		link = fmt.Sprintf(`
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Скачать</a>
  </p>
  <p style="word-break: break-all; color: #666;">%s</p>`, u, u)
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Декларация %s</h2>
  <p>Пользователь: %d</p>
  <p>Позиций: %d</p>%s
</body>
</html>`, html.EscapeString(msg.FileName), msg.UserID, msg.Rows, link)
}

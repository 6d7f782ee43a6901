package handler

import "declbot/internal/domain"

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// --- Request Types ---

// ChatMessageRequest is one text message relayed by the chat gateway.
type ChatMessageRequest struct {
	UserID int64  `json:"user_id" binding:"required" example:"123456789"`
	Text   string `json:"text" binding:"required" example:"томаты"`
}

// --- Response Types ---

// DocumentDTO is a rendered declaration file. Content is base64 in JSON.
type DocumentDTO struct {
	Name        string `json:"name" example:"declaration_123456789_2025-05-01.xlsx"`
	ContentType string `json:"content_type" example:"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"`
	Rows        int    `json:"rows" example:"3"`
	URL         string `json:"url,omitempty"`
	Content     []byte `json:"content" swaggertype:"string" format:"base64"`
}

// ReplyDTO is one outbound chat message.
type ReplyDTO struct {
	Text     string       `json:"text" example:"Введи вес нетто (в кг):"`
	Document *DocumentDTO `json:"document,omitempty"`
}

// RepliesResponse lists the messages to send back to the user, in order.
type RepliesResponse struct {
	Replies []ReplyDTO `json:"replies"`
}

// Response is the standard success envelope.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponseBody is the standard error envelope.
type ErrorResponseBody struct {
	Success bool     `json:"success" example:"false"`
	Error   APIError `json:"error"`
}

func toRepliesResponse(replies []domain.Reply) RepliesResponse {
	out := RepliesResponse{Replies: make([]ReplyDTO, len(replies))}
	for i, r := range replies {
		out.Replies[i] = ReplyDTO{Text: r.Text}
		if d := r.Document; d != nil {
			out.Replies[i].Document = &DocumentDTO{
				Name:        d.Name,
				ContentType: d.ContentType,
				Rows:        d.Rows,
				URL:         d.URL,
				Content:     d.Data,
			}
		}
	}
	return out
}

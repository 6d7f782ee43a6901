package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"declbot/internal/service"
)

// ChatHandler relays chat gateway traffic to the chat service.
type ChatHandler struct {
	chatService    service.ChatService
	maxUploadBytes int64
}

// NewChatHandler creates a new ChatHandler. maxUploadMB bounds document uploads.
func NewChatHandler(chatService service.ChatService, maxUploadMB int64) *ChatHandler {
	return &ChatHandler{chatService: chatService, maxUploadBytes: maxUploadMB << 20}
}

// Message handles POST /api/v1/chat/messages
// @Summary Relay a text message
// @Description Routes a command, the done keyword or free text to the declaration dialogue
// @Tags chat
// @Accept json
// @Produce json
// @Param body body ChatMessageRequest true "Inbound message"
// @Success 200 {object} Response{data=RepliesResponse} "Replies in send order"
// @Failure 400 {object} ErrorResponseBody "Malformed body"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 503 {object} ErrorResponseBody "Session could not be persisted"
// @Security BearerAuth
// @Router /chat/messages [post]
func (h *ChatHandler) Message(c *gin.Context) {
	var req ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	replies, err := h.chatService.HandleMessage(c.Request.Context(), req.UserID, req.Text)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, toRepliesResponse(replies))
}

// Document handles POST /api/v1/chat/documents
// @Summary Relay an uploaded document
// @Description Runs the batch pipeline on a zip archive or a single xlsx, pdf, jpg or png file
// @Tags chat
// @Accept multipart/form-data
// @Produce json
// @Param user_id formData integer true "Chat user id"
// @Param file formData file true "Archive or document"
// @Success 200 {object} Response{data=RepliesResponse} "Replies in send order"
// @Failure 400 {object} ErrorResponseBody "Missing file or user id"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Security BearerAuth
// @Router /chat/documents [post]
func (h *ChatHandler) Document(c *gin.Context) {
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)
	}

	userID, err := strconv.ParseInt(c.PostForm("user_id"), 10, 64)
	if err != nil {
		if tooLarge(err) {
			RespondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "upload exceeds allowed size")
			return
		}
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "user_id must be an integer")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			RespondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "upload exceeds allowed size")
			return
		}
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.maxUploadBytes {
		RespondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "upload exceeds allowed size")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "failed to read upload")
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		RespondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "upload exceeds allowed size")
		return
	}

	replies, err := h.chatService.HandleDocument(c.Request.Context(), userID, header.Filename, data)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, toRepliesResponse(replies))
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

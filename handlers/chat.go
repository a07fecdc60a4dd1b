package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"qwen-chat/models"
	"qwen-chat/services"
	"qwen-chat/ui"
	"qwen-chat/workflows"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const maxUploadSize = 20 << 20

var errNotImage = errors.New("only image files are accepted")

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	chat  *workflows.Chat
	qwen  *services.QwenService
	blobs *services.BlobStore
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *workflows.Chat, qwen *services.QwenService, blobs *services.BlobStore) *ChatHandler {
	return &ChatHandler{
		chat:  chat,
		qwen:  qwen,
		blobs: blobs,
	}
}

// Health reports liveness and the backend in use
func (h *ChatHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "backend": h.qwen.Mode()})
}

// ListActions returns the action bar entries
func (h *ChatHandler) ListActions(c *gin.Context) {
	c.JSON(http.StatusOK, ui.ActionBar())
}

// GetMessages returns the conversation, loading flag and last error
func (h *ChatHandler) GetMessages(c *gin.Context) {
	c.JSON(http.StatusOK, h.chat.Snapshot())
}

// SendMessage accepts JSON {text, action} or a multipart form with image files
func (h *ChatHandler) SendMessage(c *gin.Context) {
	text, actionName, files, err := h.bindSend(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := models.ParseAction(actionName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if text == "" {
		text = models.DefaultText(action, files)
	}

	before := len(h.chat.Messages())
	assistant, err := h.chat.SendMessage(c.Request.Context(), text, action, files)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Int("status", status).Msg("SendMessage failed")
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	resp := models.ChatResponse{AssistantMessage: *assistant}
	msgs := h.chat.Messages()
	for i := len(msgs) - 1; i >= before && i >= 0; i-- {
		if msgs[i].Role == models.RoleUser {
			resp.UserMessage = msgs[i]
			break
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ClearMessages empties the conversation
func (h *ChatHandler) ClearMessages(c *gin.Context) {
	h.chat.ClearChat()
	c.JSON(http.StatusOK, gin.H{"message": "Conversation cleared"})
}

// DismissError clears the last error
func (h *ChatHandler) DismissError(c *gin.Context) {
	h.chat.DismissError()
	c.Status(http.StatusNoContent)
}

// Status probes the backend for the connection badge
func (h *ChatHandler) Status(c *gin.Context) {
	err := h.qwen.Ping(c.Request.Context())
	if err != nil {
		log.Debug().Err(err).Msg("backend ping failed")
	}
	c.JSON(http.StatusOK, gin.H{"connected": err == nil, "backend": h.qwen.Mode()})
}

// GetBlob serves a file uploaded through the simulated backend
func (h *ChatHandler) GetBlob(c *gin.Context) {
	f, ok := h.blobs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Blob not found"})
		return
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, f.Data)
}

func (h *ChatHandler) bindSend(c *gin.Context) (string, string, []models.File, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		var req models.SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return "", "", nil, errors.New("invalid request body")
		}
		return req.Text, req.Action, nil, nil
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	form, err := c.MultipartForm()
	if err != nil {
		return "", "", nil, errors.New("invalid multipart form")
	}

	var files []models.File
	for _, fh := range form.File["files"] {
		f, err := readImage(fh)
		if err != nil {
			return "", "", nil, err
		}
		files = append(files, f)
	}
	return c.PostForm("text"), c.PostForm("action"), files, nil
}

func readImage(fh *multipart.FileHeader) (models.File, error) {
	src, err := fh.Open()
	if err != nil {
		return models.File{}, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return models.File{}, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}

	return NewImageFile(fh.Filename, data)
}

// NewImageFile builds an attachment from raw bytes, rejecting anything that is not an image
func NewImageFile(name string, data []byte) (models.File, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return models.File{}, fmt.Errorf("%w: %s is %s", errNotImage, name, mt.String())
	}
	return models.File{Name: name, ContentType: mt.String(), Data: data}, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, workflows.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, services.ErrUpstream),
		errors.Is(err, services.ErrUpload),
		errors.Is(err, services.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

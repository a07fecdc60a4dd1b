package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"qwen-chat/models"
	"qwen-chat/services"
	"qwen-chat/workflows"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func init() {
	gin.SetMode(gin.TestMode)
}

// failingBackend fails every completion with err
type failingBackend struct {
	err error
}

func (b failingBackend) Complete(context.Context, services.Completion) (*models.Response, error) {
	return nil, b.err
}

func (b failingBackend) Upload(_ context.Context, f models.File) (string, error) {
	return "mem://" + f.Name, nil
}

func (b failingBackend) Ping(context.Context) error {
	return b.err
}

type testServer struct {
	router http.Handler
	chat   *workflows.Chat
}

func newTestServer(t *testing.T, backend services.Backend) *testServer {
	t.Helper()

	blobs := services.NewBlobStore()
	var qwen *services.QwenService
	if backend == nil {
		var err error
		qwen, err = services.NewQwenService(services.Config{Mode: services.ModeSimulated}, blobs)
		require.NoError(t, err)
	} else {
		qwen = services.NewQwenServiceWithBackend("fake", backend)
	}

	chat := workflows.NewChat(qwen)
	h := NewChatHandler(chat, qwen, blobs)
	return &testServer{router: NewRouter(h, ""), chat: chat}
}

func (s *testServer) do(t *testing.T, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) postJSON(t *testing.T, text, action string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(models.SendMessageRequest{Text: text, Action: action})
	require.NoError(t, err)
	return s.do(t, http.MethodPost, "/api/messages", body, "application/json")
}

func multipartBody(t *testing.T, text, action string, files map[string][]byte, order []string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("text", text))
	require.NoError(t, mw.WriteField("action", action))
	for _, name := range order {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	w := srv.do(t, http.MethodGet, "/health", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"backend":"simulated"`)
}

func TestListActions(t *testing.T) {
	srv := newTestServer(t, nil)
	w := srv.do(t, http.MethodGet, "/api/actions", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var entries []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Len(t, entries, len(models.Actions))
	assert.Equal(t, "web_search", entries[0]["action"])
	assert.Equal(t, "Web Search", entries[0]["label"])
}

func TestSendMessageJSON(t *testing.T) {
	srv := newTestServer(t, nil)
	w := srv.postJSON(t, "cats", "create_image")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cats", resp.UserMessage.Content)
	assert.Equal(t, models.ActionCreateImage, resp.UserMessage.Action)
	assert.Equal(t, []string{"https://picsum.photos/400/300"}, resp.AssistantMessage.Images)
	assert.True(t, strings.HasPrefix(resp.AssistantMessage.Content, `Processed "Generate an artistic image of: cats"`))

	w = srv.do(t, http.MethodGet, "/api/messages", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var state workflows.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Len(t, state.Messages, 2)
	assert.False(t, state.Loading)
	assert.Empty(t, state.Error)
}

func TestSendMessageDefaultText(t *testing.T) {
	srv := newTestServer(t, nil)
	w := srv.postJSON(t, "", "web_search")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Help me with web search", resp.UserMessage.Content)
}

func TestSendMessageBadRequests(t *testing.T) {
	srv := newTestServer(t, nil)

	w := srv.postJSON(t, "hi", "dance")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown action")

	w = srv.do(t, http.MethodPost, "/api/messages", []byte("{not json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, srv.chat.Messages())
}

func TestSendMessageMultipart(t *testing.T) {
	srv := newTestServer(t, nil)
	body, ct := multipartBody(t, "", "image_generation",
		map[string][]byte{"b.png": pngBytes, "a.png": pngBytes},
		[]string{"b.png", "a.png"})

	w := srv.do(t, http.MethodPost, "/api/messages", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Analyze this image: b.png, a.png", resp.UserMessage.Content)
	require.Len(t, resp.UserMessage.Images, 2)

	w = srv.do(t, http.MethodGet, resp.UserMessage.Images[0], nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes, w.Body.Bytes())
}

func TestSendMessageRejectsNonImage(t *testing.T) {
	srv := newTestServer(t, nil)
	body, ct := multipartBody(t, "read this", "more",
		map[string][]byte{"notes.txt": []byte("just some text")},
		[]string{"notes.txt"})

	w := srv.do(t, http.MethodPost, "/api/messages", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "only image files")
	assert.Empty(t, srv.chat.Messages())
}

func TestSendMessageUpstreamFailure(t *testing.T) {
	srv := newTestServer(t, failingBackend{err: &services.StatusError{Code: http.StatusServiceUnavailable}})

	w := srv.postJSON(t, "hi", "more")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "API error: Service Unavailable")

	state := srv.chat.Snapshot()
	assert.Len(t, state.Messages, 1)
	assert.Equal(t, "API error: Service Unavailable", state.Error)

	w = srv.do(t, http.MethodDelete, "/api/error", nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, srv.chat.Error())
	assert.Len(t, srv.chat.Messages(), 1)
}

func TestSendMessageTimeout(t *testing.T) {
	srv := newTestServer(t, failingBackend{err: fmt.Errorf("%w after 30s", services.ErrTimeout)})

	w := srv.postJSON(t, "hi", "more")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestClearMessages(t *testing.T) {
	srv := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, srv.postJSON(t, "hi", "more").Code)

	for i := 0; i < 2; i++ {
		w := srv.do(t, http.MethodDelete, "/api/messages", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, srv.chat.Messages())
	}
}

func TestStatus(t *testing.T) {
	srv := newTestServer(t, nil)
	w := srv.do(t, http.MethodGet, "/api/status", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"connected":true,"backend":"simulated"}`, w.Body.String())

	srv = newTestServer(t, failingBackend{err: services.ErrNetwork})
	w = srv.do(t, http.MethodGet, "/api/status", nil, "")
	assert.JSONEq(t, `{"connected":false,"backend":"fake"}`, w.Body.String())
}

func TestGetBlobNotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	w := srv.do(t, http.MethodGet, "/blobs/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil)
	w := srv.do(t, http.MethodOptions, "/api/messages", nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(workflows.ErrBusy))
	assert.Equal(t, http.StatusBadGateway, statusFor(fmt.Errorf("x: %w", services.ErrUpload)))
	assert.Equal(t, http.StatusBadGateway, statusFor(services.ErrNetwork))
	assert.Equal(t, http.StatusInternalServerError, statusFor(fmt.Errorf("weird")))
}

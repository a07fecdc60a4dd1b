package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"qwen-chat/models"

	"github.com/pkg/errors"
)

const pingTimeout = 5 * time.Second

// HTTPBackend talks to a hosted chat completions endpoint
type HTTPBackend struct {
	baseURL string
	model   string
	timeout time.Duration
	client  *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatFile struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"data"`
}

type chatRequest struct {
	Model    string        `json:"model,omitempty"`
	Messages []chatMessage `json:"messages"`
	Files    []chatFile    `json:"files,omitempty"`
}

// chatResponse is the Response shape, plus the OpenAI style choices some
// servers return instead of a top-level text field
type chatResponse struct {
	models.Response
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type uploadResponse struct {
	URL string `json:"url"`
}

// NewHTTPBackend creates a backend for baseURL. Each call is bounded by timeout.
func NewHTTPBackend(baseURL, model string, timeout time.Duration, client *http.Client) *HTTPBackend {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		timeout: timeout,
		client:  client,
	}
}

func (b *HTTPBackend) Complete(ctx context.Context, c Completion) (*models.Response, error) {
	reqBody := chatRequest{
		Model:    b.model,
		Messages: []chatMessage{{Role: string(models.RoleUser), Content: c.Prompt}},
	}
	for _, f := range c.Files {
		reqBody.Files = append(reqBody.Files, chatFile{Name: f.Name, ContentType: f.ContentType, Data: f.Data})
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	body, err := b.do(ctx, "/v1/chat/completions", "application/json", bytes.NewReader(jsonData), func(code int, body []byte) error {
		return &StatusError{Code: code, Body: string(body)}
	})
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	resp := parsed.Response
	if resp.Text == "" && len(parsed.Choices) > 0 {
		resp.Text = parsed.Choices[0].Message.Content
	}
	return &resp, nil
}

func (b *HTTPBackend) Upload(ctx context.Context, file models.File) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", file.Name)
	if err != nil {
		return "", errors.Wrap(err, "failed to create form file")
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", errors.Wrap(err, "failed to write form file")
	}
	if err := mw.Close(); err != nil {
		return "", errors.Wrap(err, "failed to close multipart body")
	}

	body, err := b.do(ctx, "/v1/upload", mw.FormDataContentType(), &buf, func(code int, _ []byte) error {
		return fmt.Errorf("%w (status %d)", ErrUpload, code)
	})
	if err != nil {
		return "", err
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: invalid response: %w", ErrUpload, err)
	}
	if parsed.URL == "" {
		return "", fmt.Errorf("%w: response carried no url", ErrUpload)
	}
	return parsed.URL, nil
}

// Ping treats any HTTP answer from the base URL as reachable
func (b *HTTPBackend) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	resp.Body.Close()
	return nil
}

// do POSTs body to path under the configured timeout and returns the
// response body. statusErr builds the error for non-2xx answers.
func (b *HTTPBackend) do(ctx context.Context, path, contentType string, body io.Reader, statusErr func(int, []byte) error) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, b.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, b.transportError(ctx, reqCtx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, b.transportError(ctx, reqCtx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusErr(resp.StatusCode, data)
	}
	return data, nil
}

func (b *HTTPBackend) transportError(parent, reqCtx context.Context, err error) error {
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, b.timeout)
	}
	if parent.Err() != nil {
		return errors.Wrap(parent.Err(), "request cancelled")
	}
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

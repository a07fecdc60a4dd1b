package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"qwen-chat/models"

	"github.com/rs/zerolog/log"
)

const (
	ModeSimulated = "simulated"
	ModeHTTP      = "http"

	DefaultTimeout        = 30 * time.Second
	DefaultSimulatedDelay = time.Second
)

var promptPrefixes = map[models.Action]string{
	models.ActionWebSearch:       "Search the web for information about: ",
	models.ActionImageGeneration: "Generate a detailed image of: ",
	models.ActionVideoGeneration: "Create a video that shows: ",
	models.ActionArtifacts:       "Create artifacts related to: ",
	models.ActionCreateImage:     "Generate an artistic image of: ",
	models.ActionCode:            "Write code for the following task: ",
	models.ActionPlan:            "Create a detailed plan for: ",
	models.ActionNews:            "Find recent news about: ",
	models.ActionMore:            "",
	models.ActionVoice:           "Transcribe and process this voice input: ",
	models.ActionHelp:            "",
}

// ComposePrompt prepends the fixed prefix of action to text
func ComposePrompt(action models.Action, text string) string {
	return promptPrefixes[action] + text
}

// Completion is a request after prompt composition
type Completion struct {
	Prompt string
	Action models.Action
	Files  []models.File
}

// Backend is the transport behind QwenService
type Backend interface {
	Complete(ctx context.Context, c Completion) (*models.Response, error)
	Upload(ctx context.Context, file models.File) (string, error)
	Ping(ctx context.Context) error
}

// Config holds the fixed settings of a QwenService
type Config struct {
	Mode           string
	BaseURL        string
	Model          string
	Timeout        time.Duration
	SimulatedDelay time.Duration
	// HTTPClient is used by the http backend; nil means a default client
	HTTPClient *http.Client
}

// QwenService turns chat requests into model responses
type QwenService struct {
	mode    string
	backend Backend
}

// NewQwenService creates the service for cfg.Mode. blobs receives uploads in
// simulated mode and may be nil otherwise.
func NewQwenService(cfg Config, blobs *BlobStore) (*QwenService, error) {
	switch cfg.Mode {
	case ModeSimulated, "":
		if blobs == nil {
			blobs = NewBlobStore()
		}
		delay := cfg.SimulatedDelay
		if delay < 0 {
			delay = DefaultSimulatedDelay
		}
		return NewQwenServiceWithBackend(ModeSimulated, NewSimulatedBackend(delay, blobs)), nil
	case ModeHTTP:
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		return NewQwenServiceWithBackend(ModeHTTP, NewHTTPBackend(cfg.BaseURL, cfg.Model, timeout, cfg.HTTPClient)), nil
	default:
		return nil, fmt.Errorf("unknown backend mode %q", cfg.Mode)
	}
}

// NewQwenServiceWithBackend wraps an arbitrary backend, mostly for tests
func NewQwenServiceWithBackend(mode string, backend Backend) *QwenService {
	return &QwenService{mode: mode, backend: backend}
}

// Mode names the backend in use
func (s *QwenService) Mode() string {
	return s.mode
}

// SendRequest composes the prompt for req.Action and asks the backend for a response
func (s *QwenService) SendRequest(ctx context.Context, req models.Request) (*models.Response, error) {
	prompt := ComposePrompt(req.Action, req.Text)

	resp, err := s.backend.Complete(ctx, Completion{
		Prompt: prompt,
		Action: req.Action,
		Files:  req.Files,
	})
	if err != nil {
		log.Error().Err(err).Str("action", string(req.Action)).Str("backend", s.mode).Msg("qwen request failed")
		return nil, err
	}
	return resp, nil
}

// UploadFile stores file and returns the URL it can be fetched from
func (s *QwenService) UploadFile(ctx context.Context, file models.File) (string, error) {
	url, err := s.backend.Upload(ctx, file)
	if err != nil {
		log.Error().Err(err).Str("file", file.Name).Str("backend", s.mode).Msg("upload failed")
		return "", err
	}
	return url, nil
}

// Ping reports whether the backend is reachable
func (s *QwenService) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

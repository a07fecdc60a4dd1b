package workflows

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"qwen-chat/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrBusy is returned when SendMessage is called while another send is in flight
var ErrBusy = errors.New("a request is already in progress")

const genericErrorMessage = "An error occurred"

// Sender is the model service the chat forwards to
type Sender interface {
	SendRequest(ctx context.Context, req models.Request) (*models.Response, error)
	UploadFile(ctx context.Context, file models.File) (string, error)
}

// State is a point in time copy of the conversation
type State struct {
	Messages []models.Message `json:"messages"`
	Loading  bool             `json:"loading"`
	Error    string           `json:"error,omitempty"`
}

// Chat owns one conversation and drives its request lifecycle.
// At most one SendMessage runs at a time.
type Chat struct {
	sender  Sender
	now     func() time.Time
	onError func(error)

	mu       sync.Mutex
	messages []models.Message
	loading  bool
	lastErr  string
}

type Option func(*Chat)

// WithOnError registers a callback that receives every failed send's error
func WithOnError(fn func(error)) Option {
	return func(c *Chat) {
		c.onError = fn
	}
}

// WithClock overrides time.Now for message timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Chat) {
		c.now = now
	}
}

// NewChat creates an empty conversation backed by sender
func NewChat(sender Sender, opts ...Option) *Chat {
	c := &Chat{
		sender: sender,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendMessage appends a user message, asks the model and appends its answer.
// On success the assistant message is returned. On failure the user message
// (if it was appended) stays and the error is recorded.
func (c *Chat) SendMessage(ctx context.Context, text string, action models.Action, files []models.File) (*models.Message, error) {
	if action == "" {
		action = models.ActionMore
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.loading = true
	c.lastErr = ""
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	logger := log.With().Str("action", string(action)).Int("files", len(files)).Logger()

	userMsg := models.Message{
		ID:        newID(),
		Role:      models.RoleUser,
		Content:   text,
		Action:    action,
		Timestamp: c.now(),
	}

	if len(files) > 0 {
		urls, err := c.uploadAll(ctx, files)
		if err != nil {
			return nil, c.fail(err)
		}
		userMsg.Images = urls
	}

	c.append(userMsg)
	logger.Debug().Str("message_id", userMsg.ID.String()).Msg("user message appended")

	resp, err := c.sender.SendRequest(ctx, models.Request{
		Text:   text,
		Action: action,
		Files:  files,
	})
	if err != nil {
		return nil, c.fail(err)
	}

	assistantMsg := models.Message{
		ID:        newID(),
		Role:      models.RoleAssistant,
		Content:   resp.Text,
		Images:    resp.Images,
		Videos:    resp.Videos,
		Code:      resp.Code,
		Artifacts: resp.Artifacts,
		Timestamp: c.now(),
	}
	c.append(assistantMsg)
	logger.Info().Str("message_id", assistantMsg.ID.String()).Msg("assistant message appended")

	out := assistantMsg.Clone()
	return &out, nil
}

// uploadAll uploads files concurrently. The returned URLs follow the order of files.
func (c *Chat) uploadAll(ctx context.Context, files []models.File) ([]string, error) {
	urls := make([]string, len(files))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, f := range files {
		eg.Go(func() error {
			url, err := c.sender.UploadFile(egCtx, f)
			if err != nil {
				return fmt.Errorf("failed to upload %s: %w", f.Name, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

func (c *Chat) append(msg models.Message) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
}

func (c *Chat) fail(err error) error {
	msg := err.Error()
	if msg == "" {
		msg = genericErrorMessage
	}

	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()

	log.Warn().Err(err).Msg("send message failed")
	if c.onError != nil {
		c.onError(err)
	}
	return err
}

// ClearChat empties the conversation and the error. An in-flight send is not cancelled.
func (c *Chat) ClearChat() {
	c.mu.Lock()
	c.messages = nil
	c.lastErr = ""
	c.mu.Unlock()
}

// DismissError clears the last error and keeps the messages
func (c *Chat) DismissError() {
	c.mu.Lock()
	c.lastErr = ""
	c.mu.Unlock()
}

// Messages returns a copy of the conversation
func (c *Chat) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneMessages(c.messages)
}

func (c *Chat) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Chat) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Snapshot returns messages, loading flag and error read under one lock
func (c *Chat) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Messages: cloneMessages(c.messages),
		Loading:  c.loading,
		Error:    c.lastErr,
	}
}

func cloneMessages(in []models.Message) []models.Message {
	out := make([]models.Message, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}

// newID returns a time ordered id
func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

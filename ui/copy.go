package ui

import (
	"sync"
	"time"

	"github.com/atotto/clipboard"
)

// CopiedWindow is how long a message shows as copied
const CopiedWindow = 2 * time.Second

// CopyTracker copies message text to the clipboard and remembers which
// message was copied last, for CopiedWindow
type CopyTracker struct {
	write func(string) error
	now   func() time.Time

	mu       sync.Mutex
	copiedID string
	copiedAt time.Time
}

// NewCopyTracker uses the system clipboard when write is nil
func NewCopyTracker(write func(string) error) *CopyTracker {
	if write == nil {
		write = clipboard.WriteAll
	}
	return &CopyTracker{write: write, now: time.Now}
}

// Copy writes text to the clipboard and marks id as copied
func (t *CopyTracker) Copy(id, text string) error {
	if err := t.write(text); err != nil {
		return err
	}
	t.mu.Lock()
	t.copiedID = id
	t.copiedAt = t.now()
	t.mu.Unlock()
	return nil
}

// IsCopied reports whether id was copied less than CopiedWindow ago
func (t *CopyTracker) IsCopied(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.copiedID == "" || t.copiedID != id {
		return false
	}
	return t.now().Sub(t.copiedAt) < CopiedWindow
}

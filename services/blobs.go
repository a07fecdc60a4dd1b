package services

import (
	"strings"
	"sync"

	"qwen-chat/models"

	"github.com/google/uuid"
)

// BlobPathPrefix is where the HTTP server exposes uploaded blobs
const BlobPathPrefix = "/blobs/"

// BlobURL returns the session-local URL of a stored blob
func BlobURL(id string) string {
	return BlobPathPrefix + id
}

// BlobIDFromURL is the inverse of BlobURL
func BlobIDFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, BlobPathPrefix) {
		return "", false
	}
	return strings.TrimPrefix(url, BlobPathPrefix), true
}

// BlobStore keeps uploaded files in memory for the lifetime of the process
type BlobStore struct {
	mu    sync.RWMutex
	files map[string]models.File
}

func NewBlobStore() *BlobStore {
	return &BlobStore{files: make(map[string]models.File)}
}

// Put stores a copy of file and returns its id
func (s *BlobStore) Put(file models.File) string {
	data := make([]byte, len(file.Data))
	copy(data, file.Data)
	file.Data = data

	id := uuid.NewString()
	s.mu.Lock()
	s.files[id] = file
	s.mu.Unlock()
	return id
}

func (s *BlobStore) Get(id string) (models.File, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[id]
	return f, ok
}

func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Reset drops every stored blob
func (s *BlobStore) Reset() {
	s.mu.Lock()
	s.files = make(map[string]models.File)
	s.mu.Unlock()
}

package ui

import (
	"sync"
	"time"
)

// badgeHideAfter is how long the badge stays visible once connected
const badgeHideAfter = 3 * time.Second

// ConnectionStatus drives the "Connected to Qwen" badge
type ConnectionStatus struct {
	mu          sync.Mutex
	connected   bool
	connectedAt time.Time
}

func NewConnectionStatus() *ConnectionStatus {
	return &ConnectionStatus{}
}

// Set records the latest connectivity result observed at now
func (s *ConnectionStatus) Set(connected bool, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if connected && !s.connected {
		s.connectedAt = now
	}
	s.connected = connected
}

func (s *ConnectionStatus) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Badge is the status text
func (s *ConnectionStatus) Badge() string {
	if s.Connected() {
		return "Connected to Qwen"
	}
	return "Connecting to Qwen..."
}

// Visible reports whether the badge should still be shown at now.
// A disconnected badge never hides.
func (s *ConnectionStatus) Visible(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return true
	}
	return now.Sub(s.connectedAt) < badgeHideAfter
}

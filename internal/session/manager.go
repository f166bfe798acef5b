package session

import (
	"log/slog"
	"sync"
	"time"
)

// Manager maps session identity to session state. Each session gets its own
// record collection; nothing is shared across sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewManager creates a manager. A positive ttl lets Prune drop idle sessions.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Get returns the session for id, creating it when unknown.
// An empty id creates a session with a fresh random id.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if s, ok := m.sessions[id]; ok {
			return s
		}
	}
	var s *Session
	if id == "" {
		s = New()
	} else {
		s = NewWithID(id)
	}
	m.sessions[s.ID] = s
	slog.Debug("session created", "session_id", s.ID)
	return s
}

// Lookup returns an existing session without creating one.
func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Drop removes a session and all its records.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Prune drops sessions idle for longer than the manager's ttl and returns
// how many were removed.
func (m *Manager) Prune(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.Idle(now, m.ttl) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("pruned idle sessions", "count", removed)
	}
	return removed
}

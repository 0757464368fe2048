package interview

import (
	"log/slog"
	"sync"
)

// Closer is the part of a connection the manager needs.
type Closer interface {
	Close(reason string) error
}

// SessionManager tracks live interview connections by session handle.
type SessionManager struct {
	mu     sync.RWMutex
	active map[string]Closer
}

// NewSessionManager creates an empty manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{active: make(map[string]Closer)}
}

// Register adds a connection for a session handle. A stale connection
// registered under the same handle is closed.
func (m *SessionManager) Register(sessionID string, conn Closer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.active[sessionID]; ok && existing != conn {
		_ = existing.Close("session replaced")
	}
	m.active[sessionID] = conn
	slog.Debug("Interview session registered", "session_id", sessionID)
}

// Unregister removes conn if it is still the registered connection.
func (m *SessionManager) Unregister(sessionID string, conn Closer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.active[sessionID]; ok && current == conn {
		delete(m.active, sessionID)
		slog.Debug("Interview session unregistered", "session_id", sessionID)
	}
}

// Get returns the live connection for a session handle.
func (m *SessionManager) Get(sessionID string) Closer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[sessionID]
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// CloseAll terminates every live session, e.g. on shutdown.
func (m *SessionManager) CloseAll(reason string) {
	m.mu.Lock()
	conns := m.active
	m.active = make(map[string]Closer)
	m.mu.Unlock()

	for sid, conn := range conns {
		if err := conn.Close(reason); err != nil {
			slog.Debug("Failed to close interview session", "session_id", sid, "error", err)
		}
		slog.Info("Interview session closed", "session_id", sid, "reason", reason)
	}
}

package conn

import (
	"io"
	"sync"
)

// Manager tracks live client connections by their opaque identifiers. It is
// the only place a client identifier resolves to a writable channel; a lookup
// miss means the client disconnected and its traffic should be dropped.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]io.Writer
}

// NewManager returns an empty connection registry.
func NewManager() *Manager {
	return &Manager{clients: make(map[string]io.Writer)}
}

// Register associates a client identifier with its outbound writer for the
// lifetime of the connection.
func (m *Manager) Register(clientID string, w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[clientID] = w
}

// Unregister removes a client. Safe to call for unknown identifiers.
func (m *Manager) Unregister(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, clientID)
}

// Has reports whether a client identifier names a live connection.
func (m *Manager) Has(clientID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.clients[clientID]
	return ok
}

// Len returns the number of live connections.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Write sends one frame to the named client. It returns false when the client
// is unknown; a write error to a live client surfaces as an error.
func (m *Manager) Write(clientID string, frame []byte) (bool, error) {
	m.mu.RLock()
	w, ok := m.clients[clientID]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if _, err := w.Write(frame); err != nil {
		return true, err
	}
	return true, nil
}

package realtime

import (
	"sync"

	"github.com/google/uuid"

	"ms-marketplace/internal/models"
)

// Event channel buffer per connection. Sends are non-blocking; a full buffer
// means the event is dropped for that connection.
const connBufferSize = 16

// Connection is one live client stream. Connections are ephemeral: nothing
// about them is persisted and the set is rebuilt from scratch on reconnect.
type Connection struct {
	ID     string
	UserID string
	Events chan models.RealtimeEvent
}

// Registry tracks the set of active connections per user. A user may hold
// any number of simultaneous connections across devices; they are "online"
// iff the set is non-empty.
type Registry struct {
	mu    sync.RWMutex
	conns map[string][]*Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string][]*Connection)}
}

// Register adds a fresh connection for the user and reports whether this was
// the user's first connection (presence flipped to online). The per-user
// list is replaced wholesale under the lock rather than spliced in place, so
// concurrent register/deregister for the same user never lose an update.
func (r *Registry) Register(userID string) (*Connection, bool) {
	conn := &Connection{
		ID:     uuid.NewString(),
		UserID: userID,
		Events: make(chan models.RealtimeEvent, connBufferSize),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.conns[userID]
	next := make([]*Connection, 0, len(existing)+1)
	next = append(next, existing...)
	next = append(next, conn)
	r.conns[userID] = next

	return conn, len(existing) == 0
}

// Deregister removes the connection by identity and reports whether the
// user just went offline (list became empty). The event channel is left
// open: a fan-out running against an older snapshot may still send into it,
// and those events just go nowhere.
func (r *Registry) Deregister(conn *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.conns[conn.UserID]
	next := make([]*Connection, 0, len(existing))
	removed := false
	for _, c := range existing {
		if c.ID == conn.ID {
			removed = true
			continue
		}
		next = append(next, c)
	}
	if !removed {
		return false
	}

	if len(next) == 0 {
		delete(r.conns, conn.UserID)
		return true
	}
	r.conns[conn.UserID] = next
	return false
}

// ConnectionsFor returns a snapshot of the user's current connections.
func (r *Registry) ConnectionsFor(userID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	existing := r.conns[userID]
	out := make([]*Connection, len(existing))
	copy(out, existing)
	return out
}

// Find looks up one of the user's connections by id.
func (r *Registry) Find(userID, connID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.conns[userID] {
		if c.ID == connID {
			return c, true
		}
	}
	return nil, false
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID]) > 0
}

func (r *Registry) ConnectionCount(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}

func (r *Registry) ListOnline() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.conns))
	for userID := range r.conns {
		users = append(users, userID)
	}
	return users
}

// AllConnections snapshots every live connection across all users.
func (r *Registry) AllConnections() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Connection
	for _, conns := range r.conns {
		out = append(out, conns...)
	}
	return out
}

package session

import (
	"log/slog"
	"sync"

	"github.com/mcoot/auctionroom-go/internal/model"
)

// Registry maps live connections to resolved user identities.
// Entries live only as long as the connection; reconnection identity is
// recovered from the token, not from here. A short bind overlap during
// reconnect is tolerated - the directory's current-connection field is the
// last-writer-wins authority.
type Registry struct {
	mu       sync.RWMutex
	sessions map[model.ConnectionID]model.UserID
	logger   *slog.Logger
}

// New creates a new session Registry
func New(logger *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[model.ConnectionID]model.UserID),
		logger:   logger.With(slog.String("component", "session")),
	}
}

// Bind associates a connection with a resolved identity, overwriting any
// prior binding for that connection
func (r *Registry) Bind(connID model.ConnectionID, userID model.UserID) {
	r.mu.Lock()
	r.sessions[connID] = userID
	r.mu.Unlock()

	r.logger.Debug("session bound",
		slog.String("connection_id", string(connID)),
		slog.String("user_id", string(userID)))
}

// Resolve returns the identity bound to a connection, if any
func (r *Registry) Resolve(connID model.ConnectionID) (model.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.sessions[connID]
	return userID, ok
}

// Unbind removes a connection's binding; idempotent
func (r *Registry) Unbind(connID model.ConnectionID) {
	r.mu.Lock()
	delete(r.sessions, connID)
	r.mu.Unlock()
}

// Count returns the number of live bindings
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Package presence tracks which users currently have a live connection.
//
// The registry is the single shared mutable structure of the realtime layer.
// It holds at most one connection handle per user; a reconnect overwrites the
// previous handle (last registration wins, no multi-device fan-out). Absence
// from the registry means push delivery is not possible and callers must
// no-op silently.
package presence

import (
	"context"
	"sync"
)

// Conn is a live client connection handle capable of receiving pushed events.
type Conn interface {
	// Send queues an event for delivery. It must not block; implementations
	// drop the event and return an error when the client cannot keep up.
	Send(ctx context.Context, event string, data any) error
}

// Registry maps user IDs to their active connection.
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Register inserts or overwrites the connection for a user. An overwritten
// handle is silently abandoned; its own disconnect path cleans it up.
func (r *Registry) Register(userID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID] = conn
}

// Unregister removes the mapping for a user. No-op if absent, so duplicate
// or late disconnect events are harmless.
func (r *Registry) Unregister(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, userID)
}

// Lookup returns the connection for a user, if any.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}

// Online returns a snapshot of user IDs with a live connection.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

// Conns returns a snapshot of all live connections.
func (r *Registry) Conns() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

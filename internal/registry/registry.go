// Package registry maps user identities to their live realtime connection.
package registry

import (
	"sync"
)

// Conn is a live connection the registry can hand out. Implementations
// must be comparable; the registry compares them by identity.
type Conn interface {
	ConnID() string
	Send(data []byte) bool
}

// Registry holds at most one connection per identity. It never closes
// connections it drops or overwrites.
type Registry struct {
	conns map[int64]Conn
	mu    sync.RWMutex
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{conns: make(map[int64]Conn)}
}

// Register associates userID with c, replacing any prior association.
// The replaced connection, if any, is returned and left open.
func (r *Registry) Register(userID int64, c Conn) (replaced Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	replaced = r.conns[userID]
	r.conns[userID] = c
	if replaced == c {
		return nil
	}
	return replaced
}

// Lookup returns the connection registered for userID.
func (r *Registry) Lookup(userID int64) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[userID]
	return c, ok
}

// Unregister removes userID unconditionally. No-op if absent.
func (r *Registry) Unregister(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, userID)
}

// UnregisterIf removes userID only while it still maps to c, so a closing
// connection cannot evict a newer one registered under the same identity.
func (r *Registry) UnregisterIf(userID int64, c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.conns[userID]; ok && cur == c {
		delete(r.conns, userID)
		return true
	}
	return false
}

// Len returns the number of registered identities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

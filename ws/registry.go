package ws

import (
	"sort"
	"sync"
)

// Registry maps each user id to the id of their live connection.
//
// A user has at most one registered connection. Registering a new one
// replaces the previous mapping without closing the old socket, and a late
// Unregister carrying the old connection id is a no-op, so a stale disconnect
// never evicts a fresher connection.
//
// Ownership:
// The Hub owns the registry and its run loop is the only writer; nothing
// else registers or unregisters. Lookup, UserIDs and Len may be called from
// any goroutine. The dispatcher reads from HTTP handler goroutines while the
// loop writes, which is why reads take the RWMutex shared.
//
// Two maps are kept in step. byUser answers the dispatcher's "where is this
// user" in one lookup; byConn lets Unregister, which only knows the
// connection that went away, find its user without scanning.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]string // userID → connID
	byConn map[string]string // connID → userID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]string),
		byConn: make(map[string]string),
	}
}

// Register maps userID to connID and returns the connection id it displaced,
// or "" when the user had no connection (or already had this one).
func (r *Registry) Register(userID, connID string) (replaced string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byUser[userID]; ok && prev != connID {
		delete(r.byConn, prev)
		replaced = prev
	}

	// A connection id belongs to exactly one user.
	if owner, ok := r.byConn[connID]; ok && owner != userID {
		if r.byUser[owner] == connID {
			delete(r.byUser, owner)
		}
	}

	r.byUser[userID] = connID
	r.byConn[connID] = userID
	return replaced
}

// Unregister removes the entry whose connection id is connID. It reports the
// owning user and whether anything was removed; a superseded or unknown
// connection id removes nothing.
func (r *Registry) Unregister(connID string) (userID string, removed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[connID]
	if !ok {
		return "", false
	}
	delete(r.byConn, connID)

	if r.byUser[userID] != connID {
		return userID, false
	}
	delete(r.byUser, userID)
	return userID, true
}

// Lookup returns the live connection id of userID.
func (r *Registry) Lookup(userID string) (connID string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connID, ok = r.byUser[userID]
	return connID, ok
}

// UserIDs returns the presence set, sorted.
func (r *Registry) UserIDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.byUser))
	for userID := range r.byUser {
		ids = append(ids, userID)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Len returns the number of users online.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// Reset drops every entry.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byUser = make(map[string]string)
	r.byConn = make(map[string]string)
}

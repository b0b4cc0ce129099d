package match

import (
	"sync"
)

// Session ties one live socket to the username and room it joined.
// Sessions are process-local presence; the room document in the store
// is the source of truth for everything else.
type Session struct {
	ConnID   string
	Username string
	Room     string
}

// Registry tracks which sockets are reachable in which room. A socket
// holds at most one binding; a username may briefly hold two (an old
// socket that has not disconnected yet and its replacement).
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]Session
}

func NewRegistry() *Registry {
	return &Registry{byConn: make(map[string]Session)}
}

// Bind registers a socket in a room. A rejoin by the same username
// with a fresh socket replaces the old binding, so a late disconnect
// of the stale socket cannot be mistaken for the player leaving.
func (r *Registry) Bind(connID, username, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, sess := range r.byConn {
		if sess.Username == username && sess.Room == room && id != connID {
			delete(r.byConn, id)
		}
	}
	r.byConn[connID] = Session{ConnID: connID, Username: username, Room: room}
}

// Lookup resolves a socket to its binding.
func (r *Registry) Lookup(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.byConn[connID]
	return sess, ok
}

// Unbind removes a socket's binding and returns what was bound.
func (r *Registry) Unbind(connID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byConn[connID]
	if ok {
		delete(r.byConn, connID)
	}
	return sess, ok
}

// SessionsInRoom lists every reachable socket in a room.
func (r *Registry) SessionsInRoom(room string) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sessions []Session
	for _, sess := range r.byConn {
		if sess.Room == room {
			sessions = append(sessions, sess)
		}
	}
	return sessions
}

// FindInRoom resolves one username's session in a room.
func (r *Registry) FindInRoom(room, username string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sess := range r.byConn {
		if sess.Room == room && sess.Username == username {
			return sess, true
		}
	}
	return Session{}, false
}

// Package chat implements the live workspace channel: a concurrency-guarded
// session registry and a hub that persists inbound messages and fans them out
// to every attached session.
package chat

import (
	"sync"
)

// Conn is the minimal live-channel surface the hub needs. A gorilla/websocket
// connection satisfies it directly.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// Session is one live, authenticated connection. It is owned by the Registry;
// nothing else holds a reference past unregistration.
type Session struct {
	ID       string
	Conn     Conn
	UserID   string
	Username string

	// writeMu serializes writes: a broadcast and the session's own handler
	// may send concurrently.
	writeMu sync.Mutex
}

// Send writes one event to the session's connection.
func (s *Session) Send(v interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.Conn.WriteJSON(v)
}

// Registry tracks the currently attached sessions. All access goes through
// Register/Unregister/Snapshot; the internal map is never exposed.
type Registry struct {
	mu       sync.Mutex
	sessions map[Conn]*Session
}

// NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[Conn]*Session)}
}

// Register adds a session to the live set. The same user may hold multiple
// concurrent sessions.
func (r *Registry) Register(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.Conn] = session
}

// Unregister removes the session attached to conn, returning its username and
// whether one was found. Unregistering an absent connection is a no-op.
func (r *Registry) Unregister(conn Conn) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[conn]
	if !ok {
		return "", false
	}
	delete(r.sessions, conn)
	return session.Username, true
}

// Snapshot returns the current sessions as a stable slice, so fan-out never
// iterates the live map while it mutates.
func (r *Registry) Snapshot() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// Len reports the number of attached sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Package gateway implements the MCP↔ZMQ gateway (holler): an MCP
// Streamable HTTP + SSE surface in front of one or more HOOT01 peers.
package gateway

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotConnected is returned when an operation targets an unknown session
// id.
var ErrNotConnected = errors.New("gateway: session not connected")

// ErrChannelClosed is returned when a send targets a session whose SSE
// sender has already been torn down.
var ErrChannelClosed = errors.New("gateway: session channel closed")

// ClientInfo is the client identity an MCP `initialize` call declares.
type ClientInfo struct {
	Name    string
	Version string
}

// broadcastCap is the SSE fan-out channel's capacity per connected client;
// a slow consumer drops rather than back-pressures the producer.
const broadcastCap = 256

// Session tracks one connected MCP client: its identity, liveness, and the
// channel its SSE sender drains.
type Session struct {
	ID          string
	CreatedAt   time.Time
	LastSeen    time.Time
	ClientInfo  ClientInfo
	Initialized bool
	AutoApprove bool

	events chan BroadcastEvent
	mu     sync.Mutex
	closed bool
}

func newSession() *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		LastSeen:  now,
		events:    make(chan BroadcastEvent, broadcastCap),
	}
}

// Events returns the channel an SSE handler should range over.
func (s *Session) Events() <-chan BroadcastEvent { return s.events }

// deliver sends ev on the session's channel without blocking; if the
// channel is full the event is dropped, matching the lossy-fan-out
// contract for slow consumers. It returns ErrChannelClosed once the
// session has been closed.
func (s *Session) deliver(ev BroadcastEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrChannelClosed
	}
	select {
	case s.events <- ev:
	default:
	}
	return nil
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}

// SessionStore tracks every connected MCP session, keyed by the
// `Mcp-Session-Id` header value, with idle-based garbage collection.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idleTTL  time.Duration
}

// NewSessionStore creates a store that garbage-collects sessions idle
// longer than idleTTL.
func NewSessionStore(idleTTL time.Duration) *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session), idleTTL: idleTTL}
}

// Create registers and returns a new Session.
func (st *SessionStore) Create() *Session {
	s := newSession()
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get looks up a session by id, marking it as recently seen.
func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotConnected
	}
	s.LastSeen = time.Now()
	return s, nil
}

// Delete tears down and removes a session.
func (st *SessionStore) Delete(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
	}
	st.mu.Unlock()
	if !ok {
		return ErrNotConnected
	}
	s.close()
	return nil
}

// Broadcast fans ev out to every currently registered session.
func (st *SessionStore) Broadcast(ev BroadcastEvent) {
	st.mu.Lock()
	targets := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		targets = append(targets, s)
	}
	st.mu.Unlock()
	for _, s := range targets {
		s.deliver(ev)
	}
}

// GCIdle removes and closes every session whose LastSeen predates now minus
// the store's idle TTL, returning the count removed.
func (st *SessionStore) GCIdle(now time.Time) int {
	st.mu.Lock()
	var stale []*Session
	for id, s := range st.sessions {
		if now.Sub(s.LastSeen) > st.idleTTL {
			stale = append(stale, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()
	for _, s := range stale {
		s.close()
	}
	return len(stale)
}

// Count returns the number of currently registered sessions.
func (st *SessionStore) Count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

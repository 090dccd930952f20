// Package ws provides the realtime surface of the triage backend: a
// role-partitioned registry of connected sessions and the broadcast router
// that mirrors requester events to operator observers.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"voicetriage/pkg"
)

// Session represents one connected client. The role is fixed at connect
// time and never changes for the session's lifetime.
type Session struct {
	ID   string
	Role pkg.Role
	Send chan []byte
}

// Hub tracks connected sessions partitioned by role. All operations are
// safe for concurrent use; broadcasts are fire-and-forget and a session
// that disappears between lookup and delivery is simply skipped.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byRole   map[pkg.Role]map[string]*Session
	log      zerolog.Logger
}

// NewHub creates an empty Hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		byRole: map[pkg.Role]map[string]*Session{
			pkg.RoleRequester: make(map[string]*Session),
			pkg.RoleOperator:  make(map[string]*Session),
		},
		log: log,
	}
}

// Register adds a session to the hub under its role.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[s.ID] = s
	if h.byRole[s.Role] == nil {
		h.byRole[s.Role] = make(map[string]*Session)
	}
	h.byRole[s.Role][s.ID] = s
}

// Unregister removes a session and closes its Send channel. Unknown ids are
// ignored so a double disconnect is harmless.
func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	delete(h.sessions, sessionID)
	delete(h.byRole[s.Role], sessionID)
	close(s.Send)
}

// SendTo delivers an event to a single session. Missing sessions and full
// buffers are skipped, never errors.
func (h *Hub) SendTo(sessionID string, event pkg.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("event", event.Event).Msg("marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	s, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	select {
	case s.Send <- data:
	default:
		// Session buffer full; skip to avoid blocking.
	}
}

// BroadcastOperators delivers an event to every operator session except the
// optionally excluded one.
func (h *Hub) BroadcastOperators(event pkg.Event, excludeSessionID string) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("event", event.Event).Msg("marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, s := range h.byRole[pkg.RoleOperator] {
		if id == excludeSessionID {
			continue
		}
		select {
		case s.Send <- data:
		default:
			// Session buffer full; skip to avoid blocking.
		}
	}
}

// SessionCount returns the total number of connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// RoleCount returns the number of connected sessions with the given role.
func (h *Hub) RoleCount(role pkg.Role) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byRole[role])
}

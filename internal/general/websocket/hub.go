package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"

	"commuto/internal/domain/user"
	"commuto/internal/general/contracts"
	"commuto/internal/general/logger"
	"commuto/internal/observability"
)

const (
	wsWriteTimeout = 5 * time.Second
	ctrlTimeout    = 5 * time.Second
)

// Conn is the subset of *websocket.Conn the hub writes to. Tests substitute
// in-memory fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session is one registered connection. All writes to the underlying
// socket go through the session mutex.
type Session struct {
	UserID string
	Role   user.Role

	conn Conn
	mu   sync.Mutex
}

// writeJSON marshals v and writes a single text frame under the write lock.
func (s *Session) writeJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteMessage(gws.TextMessage, payload)
}

// Ping sends a ping control frame under the write lock.
func (s *Session) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(ctrlTimeout))
	return s.conn.WriteControl(gws.PingMessage, nil, time.Now().Add(ctrlTimeout))
}

// Hub tracks open connections per user and fans events out to them.
// A user may hold several connections at once (phone and web).
type Hub struct {
	log *logger.Logger

	mu       sync.RWMutex
	sessions map[string][]*Session // key: userID
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:      log,
		sessions: make(map[string][]*Session),
	}
}

// Register adds a connection for userID and returns its session.
func (h *Hub) Register(userID string, role user.Role, conn Conn) *Session {
	s := &Session{UserID: userID, Role: role, conn: conn}

	h.mu.Lock()
	h.sessions[userID] = append(h.sessions[userID], s)
	observability.WSConnectedUsers.Set(float64(len(h.sessions)))
	h.mu.Unlock()

	h.log.Info(context.Background(), "ws_registered", "WebSocket connection registered",
		map[string]any{"user_id": userID, "role": role.String()})
	return s
}

// Unregister removes the session. Safe to call twice.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.sessions[s.UserID]
	for i, cur := range list {
		if cur == s {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(h.sessions, s.UserID)
	} else {
		h.sessions[s.UserID] = list
	}
	observability.WSConnectedUsers.Set(float64(len(h.sessions)))
}

// ConnectedUsers reports how many users currently hold at least one connection.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// SendToUser delivers an event to every connection of one user. Delivery is
// best effort: a user without connections is skipped, and a failed write
// closes and drops that connection without affecting the caller.
func (h *Hub) SendToUser(userID string, event contracts.WSEvent) {
	h.mu.RLock()
	targets := append([]*Session(nil), h.sessions[userID]...)
	h.mu.RUnlock()

	for _, s := range targets {
		h.deliver(s, event)
	}
}

// BroadcastToDrivers delivers an event to every connected driver except
// excludeUserID.
func (h *Hub) BroadcastToDrivers(event contracts.WSEvent, excludeUserID string) {
	h.mu.RLock()
	var targets []*Session
	for uid, list := range h.sessions {
		if uid == excludeUserID {
			continue
		}
		for _, s := range list {
			if s.Role.IsDriver() {
				targets = append(targets, s)
			}
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		h.deliver(s, event)
	}
}

func (h *Hub) deliver(s *Session, event contracts.WSEvent) {
	if err := s.writeJSON(event); err != nil {
		h.log.Error(context.Background(), "ws_send_failed", "Dropping broken WebSocket connection", err,
			map[string]any{"user_id": s.UserID, "event_type": event.Type})
		_ = s.conn.Close()
		h.Unregister(s)
	}
}

package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	gws "github.com/gorilla/websocket"

	"commuto/internal/domain/user"
	"commuto/internal/general/jwt"
	"commuto/internal/general/logger"
)

const (
	authWindow   = 5 * time.Second
	readWindow   = 60 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = gws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades HTTP requests to WebSocket connections with JWT auth.
type Handler struct {
	log    *logger.Logger
	jwtMgr *jwt.Manager
	hub    *Hub
}

// NewHandler creates a WebSocket endpoint backed by the hub.
func NewHandler(log *logger.Logger, jwtMgr *jwt.Manager, hub *Hub) *Handler {
	return &Handler{log: log, jwtMgr: jwtMgr, hub: hub}
}

// Connect handles GET /ws. The first frame must be the auth message; a bad
// or missing principal closes the socket with policy violation (1008).
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20) // 1 MiB
	if err := conn.SetReadDeadline(time.Now().Add(authWindow)); err != nil {
		h.log.Error(r.Context(), "ws_set_deadline_failed", "Failed to set initial read deadline", err, nil)
		return
	}

	mt, firstFrame, err := conn.ReadMessage()
	if err != nil {
		h.log.Error(r.Context(), "ws_auth_read_failed", "Client did not authenticate in time", err, nil)
		h.closeWith(conn, gws.ClosePolicyViolation, "authentication required")
		return
	}
	if mt != gws.TextMessage {
		h.closeWith(conn, gws.ClosePolicyViolation, "auth message must be in text format")
		return
	}

	res, err := jwt.ValidateWSAuth(firstFrame, h.jwtMgr, user.RolePassenger, user.RoleDriver)
	if err != nil {
		h.log.Error(r.Context(), "ws_auth_failed", "Invalid auth message or token", err, nil)
		h.closeWith(conn, gws.ClosePolicyViolation, "authentication failed")
		return
	}
	principal, err := res.Claims.Principal()
	if err != nil {
		h.closeWith(conn, gws.ClosePolicyViolation, "authentication failed")
		return
	}

	sess := h.hub.Register(principal.UserID, principal.Role, conn)
	defer h.hub.Unregister(sess)

	if err := sess.writeJSON(map[string]any{
		"type":      "auth_success",
		"message":   "Authentication successful",
		"user_id":   principal.UserID,
		"role":      principal.Role.String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		h.log.Error(r.Context(), "ws_auth_success_failed", "Failed to send auth success message", err, nil)
		return
	}

	h.log.Info(r.Context(), "ws_connected", "WebSocket connected",
		map[string]any{"user_id": principal.UserID, "role": principal.Role.String()})

	_ = conn.SetReadDeadline(time.Now().Add(readWindow))
	conn.SetPongHandler(func(_ string) error {
		return conn.SetReadDeadline(time.Now().Add(readWindow))
	})

	// keepalive pinger; stops when the read loop returns
	done := make(chan struct{})
	defer close(done)
	go h.pingLoop(sess, pingInterval, done)

	h.readLoop(conn, sess)
}

// pingLoop pings the peer until done closes or a ping fails. A failed ping
// closes the socket to unblock the reader.
func (h *Handler) pingLoop(sess *Session, interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := sess.Ping(); err != nil {
				_ = sess.conn.Close()
				return
			}
		}
	}
}

// readLoop routes inbound frames. Notifications only flow outward, so
// client frames are either keepalives or acknowledged and ignored.
func (h *Handler) readLoop(conn *gws.Conn, sess *Session) {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readWindow))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if gws.IsUnexpectedCloseError(err, gws.CloseGoingAway, gws.CloseNormalClosure) {
				h.log.Error(context.Background(), "ws_unexpected_close", "Connection closed unexpectedly", err,
					map[string]any{"user_id": sess.UserID})
			} else {
				h.log.Info(context.Background(), "ws_connection_closed", "Connection closed",
					map[string]any{"user_id": sess.UserID})
			}
			return
		}

		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			_ = sess.writeJSON(map[string]any{"type": "error", "error": "bad json"})
			continue
		}

		switch msg.Type {
		case "ping":
			_ = sess.writeJSON(map[string]any{"type": "pong"})
		default:
			_ = sess.writeJSON(map[string]any{"type": "ack", "received": msg.Type})
		}
	}
}

// closeWith sends a close control frame with the given code and reason.
func (h *Handler) closeWith(conn *gws.Conn, code int, reason string) {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = conn.WriteControl(
		gws.CloseMessage,
		gws.FormatCloseMessage(code, reason),
		time.Now().Add(ctrlTimeout),
	)
}

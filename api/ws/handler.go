package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glauncher/glauncher-api/cache"
	"github.com/glauncher/glauncher-api/config"
	"github.com/glauncher/glauncher-api/launcher/notify"
	mw "github.com/glauncher/glauncher-api/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MsgHeartbeat refreshes the caller's presence.
const MsgHeartbeat = "heartbeat"

// Handler is the Gin handler for GET /ws. Mount it behind mw.Auth.
type Handler struct {
	pubsub   cache.PubSub
	presence *notify.Presence
	pub      *notify.Publisher
	router   *Router
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket Handler.
// sec.AllowedOrigins controls which WebSocket origins are accepted.
// An empty slice permits all origins (development only).
func NewHandler(
	ps cache.PubSub,
	presence *notify.Presence,
	pub *notify.Publisher,
	sec config.SecurityConfig,
	router *Router,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		pubsub:   ps,
		presence: presence,
		pub:      pub,
		router:   router,
		logger:   logger,
	}
	allowed := sec.AllowedOrigins
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true // dev mode: allow all
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowed {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
	router.On(MsgHeartbeat, h.handleHeartbeat)
	return h
}

// ServeWS handles GET /ws?token=<jwt>.
func (h *Handler) ServeWS(c *gin.Context) {
	userID := mw.GetUserID(c)
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events, unsub, err := h.pubsub.Subscribe(ctx, notify.Subscriptions(userID)...)
	if err != nil {
		h.logger.Error("ws subscribe failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	defer unsub()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	s := NewSession(userID, conn, h.logger)
	h.connect(ctx, s)
	defer h.disconnect(s)

	go func() {
		for {
			select {
			case msg, ok := <-events:
				if !ok {
					return
				}
				s.SendRaw([]byte(msg.Payload))
			case <-s.Done():
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	h.readPump(ctx, s)
}

func (h *Handler) connect(ctx context.Context, s *Session) {
	if err := h.presence.Touch(ctx, s.UserID); err != nil {
		h.logger.Warn("presence touch failed", zap.Int64("user_id", s.UserID), zap.Error(err))
	}
	h.pub.Publish(ctx, notify.GlobalPresenceChannel, notify.EventPresence,
		map[string]interface{}{"user_id": s.UserID, "online": true})
	h.logger.Info("launcher connected", zap.Int64("user_id", s.UserID))
}

// disconnect runs after the read loop ends; the request context may already
// be gone.
func (h *Handler) disconnect(s *Session) {
	s.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.presence.Leave(ctx, s.UserID); err != nil {
		h.logger.Warn("presence leave failed", zap.Int64("user_id", s.UserID), zap.Error(err))
	}
	h.pub.Publish(ctx, notify.GlobalPresenceChannel, notify.EventPresence,
		map[string]interface{}{"user_id": s.UserID, "online": false})
	h.logger.Info("launcher disconnected", zap.Int64("user_id", s.UserID))
}

// readPump reads messages from the WebSocket connection and dispatches them.
func (h *Handler) readPump(ctx context.Context, s *Session) {
	s.setReadDeadline()
	s.Conn.SetPongHandler(func(string) error {
		s.setReadDeadline()
		return nil
	})

	for {
		_, raw, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				h.logger.Warn("ws unexpected close",
					zap.Int64("user_id", s.UserID),
					zap.Error(err))
			}
			return
		}
		s.setReadDeadline()
		h.router.Dispatch(ctx, s, raw)
	}
}

func (h *Handler) handleHeartbeat(ctx context.Context, s *Session, _ json.RawMessage) error {
	if err := h.presence.Touch(ctx, s.UserID); err != nil {
		return err
	}
	s.Send(notify.Event{
		Type:    "heartbeat_ack",
		Payload: map[string]interface{}{"ts": time.Now().UnixMilli()},
	})
	return nil
}

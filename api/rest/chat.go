package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glauncher/glauncher-api/audit"
	"github.com/glauncher/glauncher-api/launcher/chat"
	"github.com/glauncher/glauncher-api/launcher/clock"
	mw "github.com/glauncher/glauncher-api/middleware"
	"go.uber.org/zap"
)

// ChatHandler handles the global chat endpoints.
type ChatHandler struct {
	svc   *chat.Service
	audit *audit.Service
	clock clock.Clock
	log   *zap.Logger
}

// NewChatHandler creates a ChatHandler. auditSvc may be nil.
func NewChatHandler(svc *chat.Service, auditSvc *audit.Service, clk clock.Clock, log *zap.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, audit: auditSvc, clock: clk, log: log}
}

// List handles GET /api/chat_messages?since=<RFC3339>.
func (h *ChatHandler) List(c *gin.Context) {
	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		since = &t
	}
	msgs, err := h.svc.List(c.Request.Context(), since)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type chatRequest struct {
	Content       string `json:"content" binding:"required"`
	UsernameColor string `json:"username_color"`
}

// Create handles POST /api/chat_messages/create.
func (h *ChatHandler) Create(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := h.svc.Send(c.Request.Context(), mw.GetUserID(c), req.Content, req.UsernameColor, h.clock.Now())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// Delete handles DELETE /api/chat_messages/:id (admin).
func (h *ChatHandler) Delete(c *gin.Context) {
	start := time.Now()
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	err := h.svc.Delete(c.Request.Context(), id)
	h.record(c, audit.ActionChatDelete, gin.H{"message_id": id}, nil, err, start)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// Clear handles DELETE /api/chat_messages (admin).
func (h *ChatHandler) Clear(c *gin.Context) {
	start := time.Now()
	n, err := h.svc.Clear(c.Request.Context())
	h.record(c, audit.ActionChatClear, nil, gin.H{"deleted": n}, err, start)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (h *ChatHandler) record(c *gin.Context, action string, req, resp interface{}, err error, start time.Time) {
	recordAdmin(h.audit, c, action, nil, req, resp, err, start)
}

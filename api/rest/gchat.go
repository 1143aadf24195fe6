package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glauncher/glauncher-api/launcher/clock"
	"github.com/glauncher/glauncher-api/launcher/gchat"
	mw "github.com/glauncher/glauncher-api/middleware"
	"go.uber.org/zap"
)

// GChatHandler handles private messages between friends.
type GChatHandler struct {
	svc   *gchat.Service
	clock clock.Clock
	log   *zap.Logger
}

// NewGChatHandler creates a GChatHandler.
func NewGChatHandler(svc *gchat.Service, clk clock.Clock, log *zap.Logger) *GChatHandler {
	return &GChatHandler{svc: svc, clock: clk, log: log}
}

// History handles GET /api/gchat/history/:friend_id.
func (h *GChatHandler) History(c *gin.Context) {
	friendID, ok := paramID(c, "friend_id")
	if !ok {
		return
	}
	msgs, err := h.svc.History(c.Request.Context(), mw.GetUserID(c), friendID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// Send handles POST /api/gchat/send/:recipient_id.
func (h *GChatHandler) Send(c *gin.Context) {
	recipientID, ok := paramID(c, "recipient_id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
		Type    string `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := h.svc.Send(c.Request.Context(), mw.GetUserID(c), recipientID, req.Content, req.Type, h.clock.Now())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// MarkRead handles POST /api/gchat/read/:friend_id.
func (h *GChatHandler) MarkRead(c *gin.Context) {
	friendID, ok := paramID(c, "friend_id")
	if !ok {
		return
	}
	n, err := h.svc.MarkRead(c.Request.Context(), mw.GetUserID(c), friendID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// Unread handles GET /api/gchat/unread.
func (h *GChatHandler) Unread(c *gin.Context) {
	counts, err := h.svc.UnreadCounts(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": counts})
}

// Typing handles POST /api/gchat/typing/:recipient_id.
func (h *GChatHandler) Typing(c *gin.Context) {
	recipientID, ok := paramID(c, "recipient_id")
	if !ok {
		return
	}
	if err := h.svc.Typing(c.Request.Context(), mw.GetUserID(c), recipientID); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

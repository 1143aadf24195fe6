package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glauncher/glauncher-api/audit"
	"github.com/glauncher/glauncher-api/launcher/clock"
	"github.com/glauncher/glauncher-api/launcher/wall"
	mw "github.com/glauncher/glauncher-api/middleware"
	"go.uber.org/zap"
)

// WallHandler handles the community wall.
type WallHandler struct {
	svc   *wall.Service
	audit *audit.Service
	clock clock.Clock
	log   *zap.Logger
}

// NewWallHandler creates a WallHandler. auditSvc may be nil.
func NewWallHandler(svc *wall.Service, auditSvc *audit.Service, clk clock.Clock, log *zap.Logger) *WallHandler {
	return &WallHandler{svc: svc, audit: auditSvc, clock: clk, log: log}
}

// List handles GET /api/launch_messages?page=&limit=. Unparseable values fall
// back to the defaults.
func (h *WallHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	p, err := h.svc.List(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Create handles POST /api/launch_messages/create.
func (h *WallHandler) Create(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := h.svc.Post(c.Request.Context(), mw.GetUserID(c), req.Content, h.clock.Now())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "posted", "data": msg})
}

// Delete handles DELETE /api/launch_messages/:id (admin).
func (h *WallHandler) Delete(c *gin.Context) {
	start := time.Now()
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	err := h.svc.Delete(c.Request.Context(), id)
	recordAdmin(h.audit, c, audit.ActionWallDelete, nil, gin.H{"message_id": id}, nil, err, start)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

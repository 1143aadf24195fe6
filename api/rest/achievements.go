package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glauncher/glauncher-api/audit"
	"github.com/glauncher/glauncher-api/launcher/achievements"
	"github.com/glauncher/glauncher-api/launcher/clock"
	mw "github.com/glauncher/glauncher-api/middleware"
	"github.com/glauncher/glauncher-api/model"
	"go.uber.org/zap"
)

// AchievementHandler handles achievements and their reactions.
type AchievementHandler struct {
	svc   *achievements.Service
	audit *audit.Service
	clock clock.Clock
	log   *zap.Logger
}

// NewAchievementHandler creates an AchievementHandler. auditSvc may be nil.
func NewAchievementHandler(svc *achievements.Service, auditSvc *audit.Service, clk clock.Clock, log *zap.Logger) *AchievementHandler {
	return &AchievementHandler{svc: svc, audit: auditSvc, clock: clk, log: log}
}

// Catalogue handles GET /api/achievements.
func (h *AchievementHandler) Catalogue(c *gin.Context) {
	all, err := h.svc.Catalogue(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievements": all})
}

// ForUser handles GET /api/achievements/user/:id.
func (h *AchievementHandler) ForUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListForUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievements": list})
}

// React handles POST /api/achievements/react.
func (h *AchievementHandler) React(c *gin.Context) {
	var req struct {
		UserAchievementID int64  `json:"user_achievement_id" binding:"required,gt=0"`
		ReactionType      string `json:"reaction_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r, err := h.svc.React(c.Request.Context(), mw.GetUserID(c), req.UserAchievementID, req.ReactionType)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reaction updated", "reacted": r.Reacted, "new_count": r.Count})
}

// Create handles POST /api/admin/achievements/create.
func (h *AchievementHandler) Create(c *gin.Context) {
	start := time.Now()
	var req struct {
		Name        string `json:"name" binding:"required,max=100"`
		Description string `json:"description" binding:"required,max=255"`
		Icon        string `json:"icon" binding:"required,max=100"`
		Rarity      string `json:"rarity" binding:"max=50"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.svc.Create(c.Request.Context(), model.Achievement{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Rarity:      req.Rarity,
	})
	recordAdmin(h.audit, c, audit.ActionAchievementCreate, nil, req, a, err, start)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"achievement": a})
}

// Grant handles POST /api/admin/achievements/grant.
func (h *AchievementHandler) Grant(c *gin.Context) {
	start := time.Now()
	var req struct {
		UserID        int64 `json:"user_id" binding:"required,gt=0"`
		AchievementID int64 `json:"achievement_id" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ua, err := h.svc.Grant(c.Request.Context(), req.UserID, req.AchievementID, h.clock.Now())
	recordAdmin(h.audit, c, audit.ActionAchievementGrant, &req.UserID, req, ua, err, start)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user_achievement": ua})
}

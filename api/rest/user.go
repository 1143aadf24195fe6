package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glauncher/glauncher-api/launcher/account"
	"github.com/glauncher/glauncher-api/launcher/clock"
	mw "github.com/glauncher/glauncher-api/middleware"
	"go.uber.org/zap"
)

// UserHandler serves the caller's own profile.
type UserHandler struct {
	dir   *account.Directory
	clock clock.Clock
	log   *zap.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(dir *account.Directory, clk clock.Clock, log *zap.Logger) *UserHandler {
	return &UserHandler{dir: dir, clock: clk, log: log}
}

// Info handles GET /api/user_info. The tier is recomputed on every call.
func (h *UserHandler) Info(c *gin.Context) {
	ctx := c.Request.Context()
	u, err := h.dir.Get(ctx, mw.GetUserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if _, err := h.dir.RefreshRole(ctx, u, h.clock.Now()); err != nil {
		writeError(c, h.log, err)
		return
	}
	owned, err := h.dir.OwnedCosmetics(ctx, u.ID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":            u,
		"owned_cosmetics": owned,
	})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles POST /api/user/status.
func (h *UserHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.dir.UpdateStatus(c.Request.Context(), mw.GetUserID(c), req.Status); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

type profileRequest struct {
	Username        string `json:"username" binding:"omitempty,min=2,max=80"`
	Password        string `json:"password" binding:"omitempty,min=4,max=64"`
	PasswordConfirm string `json:"password_confirm"`
	AvatarURL       string `json:"avatar_url" binding:"omitempty,url,max=512"`
}

// UpdateProfile handles POST /api/user/update_profile.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.dir.UpdateProfile(c.Request.Context(), mw.GetUserID(c), account.ProfileUpdate{
		Username:        req.Username,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		AvatarURL:       req.AvatarURL,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

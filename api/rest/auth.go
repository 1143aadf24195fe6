package rest

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glauncher/glauncher-api/cache"
	"github.com/glauncher/glauncher-api/config"
	"github.com/glauncher/glauncher-api/launcher/account"
	"github.com/glauncher/glauncher-api/launcher/apperr"
	"github.com/glauncher/glauncher-api/launcher/clock"
	mw "github.com/glauncher/glauncher-api/middleware"
	"go.uber.org/zap"
)

// AuthHandler handles authentication REST endpoints.
type AuthHandler struct {
	dir   *account.Directory
	cache cache.Cache
	sec   config.SecurityConfig
	clock clock.Clock
	log   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(dir *account.Directory, c cache.Cache, sec config.SecurityConfig, clk clock.Clock, log *zap.Logger) *AuthHandler {
	return &AuthHandler{dir: dir, cache: c, sec: sec, clock: clk, log: log}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required,min=2,max=80"`
	Password string `json:"password" binding:"required,min=4,max=64"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.dir.Register(c.Request.Context(), req.Username, req.Password, h.clock.Now())
	if errors.Is(err, apperr.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	}
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "registered", "user_id": u.ID})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := h.clock.Now()
	u, err := h.dir.Authenticate(c.Request.Context(), req.Username, req.Password, now)
	var ban *apperr.BannedError
	if errors.As(err, &ban) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":  banMessage(ban, now),
			"reason": ban.Reason,
		})
		return
	}
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	token, err := mw.StartSession(c.Request.Context(), h.cache, h.sec, u.ID, u.Username)
	if err != nil {
		writeError(c, h.log, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"user_id": u.ID,
	})
}

// banMessage renders the remaining ban time as "Xd Yh".
func banMessage(ban *apperr.BannedError, now time.Time) string {
	if ban.Until == nil {
		return "account banned permanently"
	}
	left := ban.Until.Sub(now)
	if left < 0 {
		left = 0
	}
	days := int(left / (24 * time.Hour))
	hours := int((left % (24 * time.Hour)) / time.Hour)
	return fmt.Sprintf("account banned for %dd %dh", days, hours)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := mw.BearerToken(c)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}
	_ = mw.EndSession(c.Request.Context(), h.cache, token)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	userID := mw.GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	u, err := h.dir.Get(c.Request.Context(), userID)
	if errors.Is(err, apperr.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if account.IsCurrentlyBanned(u, h.clock.Now()) {
		writeError(c, h.log, account.BanError(u))
		return
	}

	_ = mw.EndSession(c.Request.Context(), h.cache, mw.BearerToken(c))

	token, err := mw.StartSession(c.Request.Context(), h.cache, h.sec, u.ID, u.Username)
	if err != nil {
		writeError(c, h.log, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

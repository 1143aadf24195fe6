package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glauncher/glauncher-api/launcher/friends"
	mw "github.com/glauncher/glauncher-api/middleware"
	"go.uber.org/zap"
)

// SocialHandler handles the friends endpoints.
type SocialHandler struct {
	svc *friends.Service
	log *zap.Logger
}

// NewSocialHandler creates a new SocialHandler.
func NewSocialHandler(svc *friends.Service, log *zap.Logger) *SocialHandler {
	return &SocialHandler{svc: svc, log: log}
}

// ListFriends handles GET /api/friends.
func (h *SocialHandler) ListFriends(c *gin.Context) {
	view, err := h.svc.ListFriendsView(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddFriend handles POST /api/friends/add.
func (h *SocialHandler) AddFriend(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := h.svc.RequestFriend(c.Request.Context(), mw.GetUserID(c), req.Username)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

type friendIDRequest struct {
	FriendID int64 `json:"friend_id" binding:"required,gt=0"`
}

// AcceptFriend handles POST /api/friends/accept. friend_id is the requester.
func (h *SocialHandler) AcceptFriend(c *gin.Context) {
	var req friendIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := h.svc.AcceptFriend(c.Request.Context(), mw.GetUserID(c), req.FriendID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// RemoveFriend handles POST /api/friends/remove. It also cancels or rejects
// pending requests.
func (h *SocialHandler) RemoveFriend(c *gin.Context) {
	var req friendIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := h.svc.RemoveFriend(c.Request.Context(), mw.GetUserID(c), req.FriendID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

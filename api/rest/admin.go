package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glauncher/glauncher-api/audit"
	"github.com/glauncher/glauncher-api/launcher/account"
	"github.com/glauncher/glauncher-api/launcher/clock"
	mw "github.com/glauncher/glauncher-api/middleware"
	"github.com/glauncher/glauncher-api/scheduler"
	"go.uber.org/zap"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by mw.RequireAdmin.
type AdminHandler struct {
	dir   *account.Directory
	sched *scheduler.Scheduler
	audit *audit.Service
	clock clock.Clock
	log   *zap.Logger
}

// NewAdminHandler creates an AdminHandler. auditSvc may be nil.
func NewAdminHandler(
	dir *account.Directory,
	sched *scheduler.Scheduler,
	auditSvc *audit.Service,
	clk clock.Clock,
	log *zap.Logger,
) *AdminHandler {
	return &AdminHandler{dir: dir, sched: sched, audit: auditSvc, clock: clk, log: log}
}

// ListUsers returns every account.
// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.dir.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

type banRequest struct {
	UserID        int64  `json:"user_id" binding:"required,gt=0"`
	DurationHours int    `json:"duration_hours"`
	Reason        string `json:"reason" binding:"max=255"`
}

// BanUser bans a user for duration_hours, or lifts the ban when it is 0.
// POST /api/admin/users/ban
func (h *AdminHandler) BanUser(c *gin.Context) {
	start := time.Now()
	var req banRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.dir.SetBan(c.Request.Context(), mw.GetUserID(c), req.UserID, req.DurationHours, req.Reason, h.clock.Now())

	action := audit.ActionBan
	if req.DurationHours == 0 {
		action = audit.ActionUnban
	}
	var resp interface{}
	if u != nil {
		resp = gin.H{"is_banned": u.IsBanned, "banned_until": u.BannedUntil}
	}
	recordAdmin(h.audit, c, action, &req.UserID, req, resp, err, start)

	if err != nil {
		writeError(c, h.log, err)
		return
	}
	h.log.Info("admin ban updated",
		zap.Int64("actor_id", mw.GetUserID(c)),
		zap.Int64("target_id", req.UserID),
		zap.Int("duration_hours", req.DurationHours))
	c.JSON(http.StatusOK, gin.H{"user": u})
}

type updateUserRequest struct {
	Role    *string `json:"role"`
	IsAdmin *bool   `json:"is_admin"`
}

// UpdateUser changes a user's role or admin flag.
// POST /api/admin/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	start := time.Now()
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.dir.UpdateByAdmin(c.Request.Context(), mw.GetUserID(c), id, account.AdminUpdate{
		Role:    req.Role,
		IsAdmin: req.IsAdmin,
	})
	recordAdmin(h.audit, c, audit.ActionUpdateUser, &id, req, nil, err, start)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// WipeAllData deletes every non-admin user and the chat history.
// POST /api/admin/wipe_all_data
func (h *AdminHandler) WipeAllData(c *gin.Context) {
	start := time.Now()
	res, err := h.dir.WipeNonAdmins(c.Request.Context(), mw.GetUserID(c))
	recordAdmin(h.audit, c, audit.ActionWipe, nil, nil, res, err, start)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListSchedulerTasks returns the background tasks and their run counters.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.Tasks()})
}

// recordAdmin writes an audit entry for an admin request.
func recordAdmin(svc *audit.Service, c *gin.Context, action string, target *int64, req, resp interface{}, err error, start time.Time) {
	actor := mw.GetUserID(c)
	e := audit.Entry{
		TraceID:    mw.GetTraceID(c),
		ActorID:    &actor,
		TargetID:   target,
		Action:     action,
		Request:    req,
		Response:   resp,
		IP:         c.ClientIP(),
		DurationMs: int(time.Since(start).Milliseconds()),
	}
	if err != nil {
		e.Error = err.Error()
	}
	svc.Log(e)
}

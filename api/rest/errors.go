package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/glauncher/glauncher-api/launcher/apperr"
	mw "github.com/glauncher/glauncher-api/middleware"
	"go.uber.org/zap"
)

// writeError maps a service error onto an HTTP response.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	var rl *apperr.RateLimitedError
	var ban *apperr.BannedError
	switch {
	case errors.As(err, &rl):
		secs := rl.RetryAfterSeconds()
		c.Header("Retry-After", strconv.FormatInt(secs, 10))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests", "retry_after": secs})
	case errors.As(err, &ban):
		body := gin.H{"error": "account banned", "reason": ban.Reason}
		if ban.Until != nil {
			body["banned_until"] = ban.Until.UTC()
		}
		c.JSON(http.StatusForbidden, body)
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, apperr.ErrSelfReference):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot target yourself"})
	case errors.Is(err, apperr.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, apperr.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient funds"})
	case errors.Is(err, apperr.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	default:
		log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("trace_id", mw.GetTraceID(c)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// paramID parses a positive int64 path parameter.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

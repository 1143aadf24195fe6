package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func newRateLimitRouter(r rate.Limit, b int, key KeyFunc) *gin.Engine {
	eng := gin.New()
	eng.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid == "1" {
			c.Set(UserIDKey, int64(1))
		}
		c.Next()
	})
	eng.Use(RateLimit(r, b, key))
	eng.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return eng
}

func hit(r *gin.Engine, ip, user string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", ip)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_Burst(t *testing.T) {
	r := newRateLimitRouter(0.001, 3, nil)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "10.0.1.1", ""), "request %d should be allowed", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.1.1", ""))
}

func TestRateLimit_PerIP(t *testing.T) {
	r := newRateLimitRouter(0.001, 1, ByClientIP)
	assert.Equal(t, http.StatusOK, hit(r, "10.1.1.1", ""))
	assert.Equal(t, http.StatusOK, hit(r, "10.1.1.2", ""))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.1.1.1", ""))
}

func TestRateLimit_ByUserFollowsTheUserAcrossIPs(t *testing.T) {
	r := newRateLimitRouter(0.001, 1, ByUser)
	assert.Equal(t, http.StatusOK, hit(r, "10.2.0.1", "1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.2.0.2", "1"), "same user, new IP")
	assert.Equal(t, http.StatusOK, hit(r, "10.2.0.1", ""), "anonymous traffic has its own bucket")
}

package sse_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glauncher/glauncher-api/api/sse"
	"github.com/glauncher/glauncher-api/config"
	"github.com/glauncher/glauncher-api/launcher/notify"
	mw "github.com/glauncher/glauncher-api/middleware"
	"github.com/glauncher/glauncher-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// nextEvent reads lines until a full "event:" block has been consumed.
func nextEvent(t *testing.T, r *bufio.Reader) (name, data string) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestServeSSE(t *testing.T) {
	c, ps := testutil.SetupTestCache(t)
	sec := config.SecurityConfig{JWTSecret: "sse-secret", JWTTTLH: time.Hour}
	pub := notify.NewPublisher(ps, zap.NewNop())

	r := gin.New()
	r.GET("/sse", mw.Auth(sec, c), sse.NewHandler(ps, zap.NewNop()).ServeSSE)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/sse")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := mw.StartSession(context.Background(), c, sec, 3, "sam")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sse?token="+token, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := bufio.NewReader(resp.Body)
	name, data := nextEvent(t, body)
	assert.Equal(t, "connected", name)
	assert.JSONEq(t, `{"user_id":3}`, data)

	pub.ToUser(context.Background(), 3, notify.EventRoleChanged, map[string]string{"role": "Pico de Oro"})
	name, data = nextEvent(t, body)
	assert.Equal(t, notify.EventRoleChanged, name)
	assert.Contains(t, data, "Pico de Oro")
}

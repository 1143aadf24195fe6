// Package integration drives a fully wired launcher server over real HTTP and
// WebSocket connections.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glauncher/glauncher-api/api/rest"
	apiws "github.com/glauncher/glauncher-api/api/ws"
	"github.com/glauncher/glauncher-api/cache"
	"github.com/glauncher/glauncher-api/config"
	"github.com/glauncher/glauncher-api/launcher/account"
	"github.com/glauncher/glauncher-api/launcher/achievements"
	"github.com/glauncher/glauncher-api/launcher/chat"
	"github.com/glauncher/glauncher-api/launcher/clock"
	"github.com/glauncher/glauncher-api/launcher/friends"
	"github.com/glauncher/glauncher-api/launcher/gate"
	"github.com/glauncher/glauncher-api/launcher/gchat"
	"github.com/glauncher/glauncher-api/launcher/notify"
	"github.com/glauncher/glauncher-api/launcher/shop"
	"github.com/glauncher/glauncher-api/launcher/wall"
	mw "github.com/glauncher/glauncher-api/middleware"
	"github.com/glauncher/glauncher-api/scheduler"
	"github.com/glauncher/glauncher-api/testutil"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// TestServer wraps a real HTTP server with every launcher service wired in.
type TestServer struct {
	DB       *gorm.DB
	Cache    cache.Cache
	PubSub   cache.PubSub
	Presence *notify.Presence
	Clock    *clock.Manual
	Server   *httptest.Server
	URL      string // http://127.0.0.1:<port>
	WSURL    string // ws://127.0.0.1:<port>/ws
	Sec      config.SecurityConfig
}

// NewTestServer creates a launcher server for integration testing.
// It mirrors the dependency wiring in main.go with a manual clock.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// ---- Infrastructure ----
	db := testutil.SetupTestDB(t)
	c, pubsub := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	clk := clock.NewManual(time.Now())

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        72 * time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
		AllowedOrigins: []string{}, // allow all origins
	}
	launcherCfg := config.LauncherConfig{}.Defaults()

	// ---- Services ----
	pub := notify.NewPublisher(pubsub, logger)
	presence := notify.NewPresence(c, time.Minute)
	dir := account.NewDirectory(db, pub, logger)
	evaluator := gate.NewEvaluator(db)
	friendStore := friends.NewStore(db)
	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)

	// ---- Gin HTTP Server ----
	r := gin.New()
	r.Use(mw.TraceID(), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst, mw.ByClientIP))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rest.Register(r, rest.Handlers{
		Auth:         rest.NewAuthHandler(dir, c, sec, clk, logger),
		User:         rest.NewUserHandler(dir, clk, logger),
		Social:       rest.NewSocialHandler(friends.NewService(friendStore, dir, presence, pub, logger), logger),
		Chat:         rest.NewChatHandler(chat.NewService(db, evaluator, pub, launcherCfg, logger), nil, clk, logger),
		GChat:        rest.NewGChatHandler(gchat.NewService(db, friendStore, dir, pub, launcherCfg, logger), clk, logger),
		Wall:         rest.NewWallHandler(wall.NewService(db, evaluator, pub, launcherCfg, logger), nil, clk, logger),
		Achievements: rest.NewAchievementHandler(achievements.NewService(db, pub, logger), nil, clk, logger),
		Shop:         rest.NewShopHandler(shop.NewService(db, evaluator, pub, launcherCfg, logger), nil, clk, logger),
		Admin:        rest.NewAdminHandler(dir, sched, nil, clk, logger),
	}, dir, c, sec)

	// ---- WebSocket ----
	wsH := apiws.NewHandler(pubsub, presence, pub, sec, apiws.NewRouter(logger), logger)
	r.GET("/ws", mw.Auth(sec, c), wsH.ServeWS)

	// ---- Start server ----
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	url := server.URL

	return &TestServer{
		DB:       db,
		Cache:    c,
		PubSub:   pubsub,
		Presence: presence,
		Clock:    clk,
		Server:   server,
		URL:      url,
		WSURL:    "ws" + url[len("http"):] + "/ws",
		Sec:      sec,
	}
}

// --- HTTP helpers ---

func (ts *TestServer) do(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// PostJSON sends a POST request with JSON body and optional Bearer token.
func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodPost, path, body, token)
}

// Get sends a GET request with optional Bearer token.
func (ts *TestServer) Get(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodGet, path, nil, token)
}

// ReadJSON reads and decodes a JSON response body into the given target.
func ReadJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", string(data))
}

// ExpectStatus asserts the response status and drains the body.
func ExpectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != want {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d, body: %s", resp.StatusCode, want, data)
	}
}

// --- Auth helpers ---

// Register creates an account and logs in, returning the token and user ID.
func (ts *TestServer) Register(t *testing.T, username, password string) (token string, userID int64) {
	t.Helper()
	creds := map[string]string{"username": username, "password": password}
	ExpectStatus(t, ts.PostJSON(t, "/api/auth/register", creds, ""), http.StatusCreated)

	resp := ts.PostJSON(t, "/api/auth/login", creds, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result map[string]interface{}
	ReadJSON(t, resp, &result)
	token = result["token"].(string)
	userID = int64(result["user_id"].(float64))
	return
}

// --- WebSocket client ---

// WSClient wraps a gorilla/websocket connection for integration testing.
// Uses a background readLoop to avoid gorilla/websocket's SetReadDeadline bug.
type WSClient struct {
	Conn   *websocket.Conn
	t      *testing.T
	seq    uint64
	readCh chan readResult
}

type readResult struct {
	data []byte
	err  error
}

// ConnectWS dials the test server's WS endpoint with the given JWT token.
func (ts *TestServer) ConnectWS(t *testing.T, token string) *WSClient {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(ts.WSURL+"?token="+token, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	require.NoError(t, err, "WS dial failed")
	wc := &WSClient{Conn: conn, t: t, readCh: make(chan readResult, 256)}
	go wc.readLoop()
	t.Cleanup(wc.Close)
	return wc
}

func (wc *WSClient) readLoop() {
	for {
		_, data, err := wc.Conn.ReadMessage()
		wc.readCh <- readResult{data, err}
		if err != nil {
			return
		}
	}
}

// Send writes a packet to the WebSocket.
func (wc *WSClient) Send(msgType string, payload interface{}) {
	wc.t.Helper()
	seq := atomic.AddUint64(&wc.seq, 1)
	payloadJSON, err := json.Marshal(payload)
	require.NoError(wc.t, err)
	require.NoError(wc.t, wc.Conn.WriteJSON(apiws.Packet{Seq: seq, Type: msgType, Payload: payloadJSON}))
}

// RecvType reads events until one with the given type arrives.
func (wc *WSClient) RecvType(msgType string, timeout time.Duration) map[string]interface{} {
	wc.t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case res := <-wc.readCh:
			require.NoError(wc.t, res.err, "WS recv failed while waiting for %q", msgType)
			var ev map[string]interface{}
			require.NoError(wc.t, json.Unmarshal(res.data, &ev))
			if ev["type"] == msgType {
				return ev
			}
		case <-deadline:
			wc.t.Fatalf("timed out waiting for message type %q", msgType)
			return nil
		}
	}
}

// Close closes the WebSocket connection.
func (wc *WSClient) Close() {
	_ = wc.Conn.Close()
}

// PayloadMap extracts the payload of a received event as a map.
func PayloadMap(t *testing.T, ev map[string]interface{}) map[string]interface{} {
	t.Helper()
	m, ok := ev["payload"].(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return m
}

var testCounter uint64

// UniqueID returns a short unique string suitable for usernames.
func UniqueID(prefix string) string {
	n := atomic.AddUint64(&testCounter, 1)
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano()%100000, n)
}

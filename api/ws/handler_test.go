package ws_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glauncher/glauncher-api/api/ws"
	"github.com/glauncher/glauncher-api/config"
	"github.com/glauncher/glauncher-api/launcher/notify"
	mw "github.com/glauncher/glauncher-api/middleware"
	"github.com/glauncher/glauncher-api/testutil"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type wsEnv struct {
	url      string
	token    string
	pub      *notify.Publisher
	presence *notify.Presence
}

func newWSEnv(t *testing.T, userID int64) *wsEnv {
	t.Helper()
	c, ps := testutil.SetupTestCache(t)
	sec := config.SecurityConfig{JWTSecret: "ws-secret", JWTTTLH: time.Hour}
	pub := notify.NewPublisher(ps, zap.NewNop())
	presence := notify.NewPresence(c, time.Minute)

	h := ws.NewHandler(ps, presence, pub, sec, ws.NewRouter(zap.NewNop()), zap.NewNop())
	r := gin.New()
	r.GET("/ws", mw.Auth(sec, c), h.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	token, err := mw.StartSession(context.Background(), c, sec, userID, "player")
	require.NoError(t, err)
	return &wsEnv{
		url:      "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		token:    token,
		pub:      pub,
		presence: presence,
	}
}

func (e *wsEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(e.url+"?token="+e.token, nil)
	require.NoError(t, err)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) notify.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev notify.Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestServeWS_RejectsMissingToken(t *testing.T) {
	e := newWSEnv(t, 1)
	_, resp, err := websocket.DefaultDialer.Dial(e.url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestServeWS_StreamsUserEventsAndTracksPresence(t *testing.T) {
	e := newWSEnv(t, 7)
	conn := e.dial(t)

	// Our own online announcement arrives on the presence channel.
	ev := readEvent(t, conn)
	assert.Equal(t, notify.EventPresence, ev.Type)
	assert.True(t, e.presence.IsOnline(context.Background(), 7))

	e.pub.ToUser(context.Background(), 7, notify.EventFriendRequest, map[string]string{"from": "alex"})
	ev = readEvent(t, conn)
	assert.Equal(t, notify.EventFriendRequest, ev.Type)

	// Other users' private events are not delivered.
	e.pub.ToUser(context.Background(), 8, notify.EventBanned, nil)
	e.pub.Publish(context.Background(), notify.GlobalChatChannel, notify.EventChatCleared, nil)
	ev = readEvent(t, conn)
	assert.Equal(t, notify.EventChatCleared, ev.Type)

	require.NoError(t, conn.WriteJSON(ws.Packet{Type: ws.MsgHeartbeat}))
	ev = readEvent(t, conn)
	assert.Equal(t, "heartbeat_ack", ev.Type)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return !e.presence.IsOnline(context.Background(), 7)
	}, 2*time.Second, 10*time.Millisecond)
}

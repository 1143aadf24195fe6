package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glauncher/glauncher-api/api/rest"
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
	"github.com/glauncher/glauncher-api/model"
	"github.com/glauncher/glauncher-api/scheduler"
	"github.com/glauncher/glauncher-api/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	r     *gin.Engine
	db    *gorm.DB
	cache cache.Cache
	sec   config.SecurityConfig
	clk   *clock.Manual
	dir   *account.Directory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	log := zap.NewNop()
	sec := config.SecurityConfig{JWTSecret: "test-secret", JWTTTLH: 72 * time.Hour}
	cfg := config.LauncherConfig{}.Defaults()
	clk := clock.NewManual(time.Now())

	pub := notify.NewPublisher(ps, log)
	presence := notify.NewPresence(c, time.Minute)
	dir := account.NewDirectory(db, pub, log)
	ev := gate.NewEvaluator(db)
	store := friends.NewStore(db)
	sched := scheduler.New(log)
	t.Cleanup(sched.Stop)

	h := rest.Handlers{
		Auth:         rest.NewAuthHandler(dir, c, sec, clk, log),
		User:         rest.NewUserHandler(dir, clk, log),
		Social:       rest.NewSocialHandler(friends.NewService(store, dir, presence, pub, log), log),
		Chat:         rest.NewChatHandler(chat.NewService(db, ev, pub, cfg, log), nil, clk, log),
		GChat:        rest.NewGChatHandler(gchat.NewService(db, store, dir, pub, cfg, log), clk, log),
		Wall:         rest.NewWallHandler(wall.NewService(db, ev, pub, cfg, log), nil, clk, log),
		Achievements: rest.NewAchievementHandler(achievements.NewService(db, pub, log), nil, clk, log),
		Shop:         rest.NewShopHandler(shop.NewService(db, ev, pub, cfg, log), nil, clk, log),
		Admin:        rest.NewAdminHandler(dir, sched, nil, clk, log),
	}
	r := gin.New()
	r.Use(mw.TraceID())
	rest.Register(r, h, dir, c, sec)
	return &testEnv{r: r, db: db, cache: c, sec: sec, clk: clk, dir: dir}
}

// login opens a session for a user created directly in the database.
func (e *testEnv) login(t *testing.T, u *model.User) string {
	t.Helper()
	token, err := mw.StartSession(context.Background(), e.cache, e.sec, u.ID, u.Username)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func (e *testEnv) postJSON(path, token string, body interface{}) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, path, token, body)
}

func (e *testEnv) get(path, token string) *httptest.ResponseRecorder {
	return e.do(http.MethodGet, path, token, nil)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

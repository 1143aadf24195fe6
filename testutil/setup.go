package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/glauncher/glauncher-api/cache"
	"github.com/glauncher/glauncher-api/config"
	dbadapter "github.com/glauncher/glauncher-api/db"
	"github.com/glauncher/glauncher-api/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// SetupTestDB creates a private in-memory SQLite DB and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode:       dbadapter.ModeSQLite,
		SQLitePath: dsn,
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SetupTestCache creates LocalCache and LocalPubSub (no Redis required).
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	cfg := cache.CacheConfig{} // empty RedisAddr → LocalCache
	c, err := cache.NewCache(cfg)
	require.NoError(t, err, "SetupTestCache: NewCache")
	ps, err := cache.NewPubSub(cfg)
	require.NoError(t, err, "SetupTestCache: NewPubSub")
	return c, ps
}

// CreateUser inserts a user with a generated username, registered now and in
// the lowest tier. Options run before the insert.
func CreateUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()
	u := &model.User{
		Username:         fmt.Sprintf("%s%d", gofakeit.Username(), dbSeq.Add(1)),
		AvatarURL:        gofakeit.URL(),
		RegistrationDate: time.Now(),
		Role:             model.RoleWood,
		Status:           model.DefaultStatus,
	}
	for _, opt := range opts {
		opt(u)
	}
	require.NoError(t, db.Create(u).Error, "CreateUser")
	return u
}

// Admin marks a user created by CreateUser as an administrator.
func Admin(u *model.User) {
	u.IsAdmin = true
	u.Role = model.RoleNetherite
}

// Named sets the username of a user created by CreateUser.
func Named(name string) func(*model.User) {
	return func(u *model.User) { u.Username = name }
}

// WithCoins sets the starting balance of a user created by CreateUser.
func WithCoins(n int64) func(*model.User) {
	return func(u *model.User) { u.Coins = n }
}

package db

import (
	"fmt"

	"github.com/glauncher/glauncher-api/config"
	dbmysql "github.com/glauncher/glauncher-api/db/mysql"
	dbpostgres "github.com/glauncher/glauncher-api/db/postgres"
	"github.com/glauncher/glauncher-api/db/resolver"
	dbsqlite "github.com/glauncher/glauncher-api/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeSQLite   = "sqlite"
	ModeMySQL    = "mysql"
	ModePostgres = "postgres"
)

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	pool := resolver.Pool{MaxOpen: cfg.MaxOpen, MaxIdle: cfg.MaxIdle, MaxLife: cfg.MaxLife}
	switch cfg.Mode {
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, cfg.Replicas, pool)
	case ModePostgres:
		return dbpostgres.Open(cfg.PostgresDSN, cfg.Replicas, pool)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}

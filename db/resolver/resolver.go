// Package resolver wires read replicas and pool limits onto a server database.
package resolver

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// Pool holds connection pool limits shared by the server drivers.
type Pool struct {
	MaxOpen int
	MaxIdle int
	MaxLife time.Duration
}

// Register routes plain reads to replicas (when any are given) and applies the
// pool limits to every connection pool the resolver manages. Transactions and
// writes always stay on the primary.
func Register(db *gorm.DB, replicas []gorm.Dialector, p Pool) error {
	return db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: replicas,
		Policy:   dbresolver.RandomPolicy{},
	}).
		SetMaxOpenConns(p.MaxOpen).
		SetMaxIdleConns(p.MaxIdle).
		SetConnMaxLifetime(p.MaxLife))
}

package mysql

import (
	"github.com/glauncher/glauncher-api/db/resolver"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open creates a GORM *DB backed by MySQL with a connection pool and optional read replicas.
func Open(dsn string, replicas []string, p resolver.Pool) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	dialectors := make([]gorm.Dialector, len(replicas))
	for i, r := range replicas {
		dialectors[i] = mysql.Open(r)
	}
	if err := resolver.Register(db, dialectors, p); err != nil {
		return nil, err
	}
	return db, nil
}

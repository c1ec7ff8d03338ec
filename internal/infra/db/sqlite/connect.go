package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/glebarez/go-sqlite"

	"github.com/bryanwahyu/report-agent/internal/infra/db/sqlstore"
)

var Dialect = sqlstore.Dialect{
	Name:          "sqlite",
	ReadIsolation: sql.LevelDefault,
	IsUniqueViolation: func(err error) bool {
		return strings.Contains(err.Error(), "UNIQUE constraint failed")
	},
}

// Open opens (or creates) a SQLite database file. A single connection is used
// so transactions serialize instead of failing with SQLITE_BUSY.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/bryanwahyu/report-agent/internal/infra/db/sqlstore"
)

// Dialect for MySQL 8. The DSN must carry clientFoundRows=true so that
// re-marking an analyzed report still counts as an affected row.
var Dialect = sqlstore.Dialect{
	Name:          "mysql",
	ReadIsolation: sql.LevelRepeatableRead,
	IsUniqueViolation: func(err error) bool {
		var me *gomysql.MySQLError
		return errors.As(err, &me) && me.Number == 1062
	},
}

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

package sqlstore

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// Dialect captures the few places where MySQL, PostgreSQL and SQLite differ.
// Queries in this package are written with '?' placeholders.
type Dialect struct {
	Name string
	// NumberedParams rewrites '?' into $1, $2, ... (PostgreSQL).
	NumberedParams bool
	// Returning uses INSERT ... RETURNING id instead of LastInsertId.
	Returning bool
	// ReadIsolation is used for multi-statement reads.
	ReadIsolation sql.IsolationLevel
	// IsUniqueViolation reports a unique-constraint error from the driver.
	IsUniqueViolation func(error) bool
}

func (d Dialect) rebind(q string) string {
	if !d.NumberedParams {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 16)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insertID runs an INSERT and returns the generated id.
func (d Dialect) insertID(ctx context.Context, q execQuerier, query string, args ...any) (int64, error) {
	if d.Returning {
		var id int64
		err := q.QueryRowContext(ctx, d.rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := q.ExecContext(ctx, d.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

package sqlstore_test

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/report-agent/internal/domain/reports"
	"github.com/bryanwahyu/report-agent/internal/domain/users"
	"github.com/bryanwahyu/report-agent/internal/infra/db/sqlite"
	"github.com/bryanwahyu/report-agent/internal/infra/db/sqlstore"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(ctx, db))
	return db
}

func seedUser(t *testing.T, db *sql.DB, email string) int64 {
	t.Helper()
	u := &users.User{Email: email, PasswordHash: "x"}
	require.NoError(t, sqlstore.NewUserRepository(db, sqlite.Dialect).Create(context.Background(), u))
	return u.ID
}

func seedReport(t *testing.T, db *sql.DB, owner int64, name string) *reports.Report {
	t.Helper()
	rep := &reports.Report{
		OwnerID:          owner,
		FileRef:          fmt.Sprintf("%d/%s", owner, name),
		OriginalFileName: name,
		ContentType:      "text/csv",
		Size:             42,
		UploadedAt:       time.Now().UTC(),
	}
	require.NoError(t, sqlstore.NewReportRepository(db, sqlite.Dialect).Create(context.Background(), rep))
	return rep
}

func countRows(t *testing.T, db *sql.DB, table string, reportID int64) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE report_id = ?", reportID).Scan(&n))
	return n
}

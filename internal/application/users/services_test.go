package users_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bryanwahyu/report-agent/internal/application"
	appusers "github.com/bryanwahyu/report-agent/internal/application/users"
	"github.com/bryanwahyu/report-agent/internal/domain/reports"
	"github.com/bryanwahyu/report-agent/internal/domain/users"
	"github.com/bryanwahyu/report-agent/internal/infra/db/sqlite"
	"github.com/bryanwahyu/report-agent/internal/infra/db/sqlstore"
)

func newService(t *testing.T) *appusers.Service {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(ctx, db))
	return &appusers.Service{
		Repo:  sqlstore.NewUserRepository(db, sqlite.Dialect),
		Clock: application.FixedClock{T: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		Cost:  bcrypt.MinCost,
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	svc := newService(t)

	u, err := svc.Register(context.Background(), appusers.RegisterCommand{
		Email: " Grace@Example.com", Password: "correct horse", FirstName: "Grace", LastName: "Hopper",
	})
	require.NoError(t, err)

	assert.NotZero(t, u.ID)
	assert.Equal(t, "grace@example.com", u.Email)
	assert.NotEqual(t, "correct horse", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	cmd := appusers.RegisterCommand{Email: "dup@example.com", Password: "longenough"}

	_, err := svc.Register(ctx, cmd)
	require.NoError(t, err)
	_, err = svc.Register(ctx, cmd)
	assert.ErrorIs(t, err, users.ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, appusers.RegisterCommand{Email: "not-an-email", Password: "longenough"})
	assert.ErrorIs(t, err, reports.ErrValidation)

	_, err = svc.Register(ctx, appusers.RegisterCommand{Email: "ok@example.com", Password: "short"})
	assert.ErrorIs(t, err, reports.ErrValidation)
}

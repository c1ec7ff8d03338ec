package sqlstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/report-agent/internal/domain/users"
	"github.com/bryanwahyu/report-agent/internal/infra/db/sqlite"
	"github.com/bryanwahyu/report-agent/internal/infra/db/sqlstore"
)

func TestUserCreateNormalizesEmail(t *testing.T) {
	db := newTestDB(t)
	repo := sqlstore.NewUserRepository(db, sqlite.Dialect)

	u := &users.User{Email: "  Ada@Example.COM ", PasswordHash: "hash", FirstName: "Ada"}
	require.NoError(t, repo.Create(context.Background(), u))

	assert.NotZero(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	repo := sqlstore.NewUserRepository(db, sqlite.Dialect)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &users.User{Email: "dup@example.com", PasswordHash: "h"}))
	err := repo.Create(ctx, &users.User{Email: "DUP@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, users.ErrEmailTaken)
}

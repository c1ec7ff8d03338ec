package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	domain "github.com/bryanwahyu/report-agent/internal/domain/users"
)

type UserRepository struct {
	db *sql.DB
	d  Dialect
}

func NewUserRepository(db *sql.DB, d Dialect) *UserRepository {
	return &UserRepository{db: db, d: d}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	const q = `
INSERT INTO users (email, password_hash, first_name, last_name, created_at)
VALUES (?,?,?,?,?)`
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	email := strings.ToLower(strings.TrimSpace(u.Email))

	id, err := r.d.insertID(ctx, r.db, q, email, u.PasswordHash, u.FirstName, u.LastName, created)
	if err != nil {
		if r.d.IsUniqueViolation != nil && r.d.IsUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	u.Email = email
	u.CreatedAt = created
	return nil
}

package users

import (
	"context"
	"errors"
)

var ErrEmailTaken = errors.New("email already registered")

type Repository interface {
	// Create assigns u.ID; a duplicate email yields ErrEmailTaken.
	Create(ctx context.Context, u *User) error
}

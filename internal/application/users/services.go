package users

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/bryanwahyu/report-agent/internal/application"
	"github.com/bryanwahyu/report-agent/internal/domain/reports"
	domain "github.com/bryanwahyu/report-agent/internal/domain/users"
)

const minPasswordLen = 8

type Service struct {
	Repo  domain.Repository
	Clock application.Clock
	// Cost defaults to bcrypt.DefaultCost; tests lower it.
	Cost int
}

type RegisterCommand struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("%w: invalid email", reports.ErrValidation)
	}
	if len(cmd.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", reports.ErrValidation, minPasswordLen)
	}

	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(cmd.FirstName),
		LastName:     strings.TrimSpace(cmd.LastName),
	}
	if s.Clock != nil {
		u.CreatedAt = s.Clock.Now()
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

package lunatech

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AddUser creates an admin account with a bcrypt-hashed password.
func AddUser(ctx context.Context, s *Store, email, password string, profile Author) (User, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("add user: %w: invalid email %q", ErrValidation, email)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("add user: %w", err)
	}
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
		Profile:      profile,
	}
	if err := s.CreateUser(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// seedAdmin creates the configured admin when there are no users yet.
func (a *App) seedAdmin(ctx context.Context) error {
	if a.Config.AdminEmail == "" {
		return nil
	}
	n, err := a.Store.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	u, err := AddUser(ctx, a.Store, a.Config.AdminEmail, a.Config.AdminPassword, Author{FullName: a.Config.Author})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	a.Log.Info().Str("user_id", u.ID).Str("email", u.Email).Msg("seeded admin user")
	return nil
}

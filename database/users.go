package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const userColumns = `id, username, email, password_hash, created_at`

// CreateUser stores a new identity record. The username must be unique.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`),
		u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", translateError(err, ErrValidation))
	}
	return nil
}

// GetUser returns the user with the given id
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, translateError(err, ErrValidation)
	}
	return &u, nil
}

// GetUserByUsername returns the user registered under username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE username = ?`), username)
	if err != nil {
		return nil, translateError(err, ErrValidation)
	}
	return &u, nil
}

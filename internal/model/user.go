package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for accounts.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, displayName, photoURL string) (User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash []byte) error
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) (User, error)
	MarkVerified(ctx context.Context, id uuid.UUID, email string) (User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// User represents a stored account with authentication material.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash []byte
	DisplayName  string
	PhotoURL     string
	Verified     bool
	DisabledAt   *time.Time
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity returns the public view of the account.
func (u User) Identity() Identity {
	id := Identity{
		UserID:      u.ID.String(),
		DisplayName: u.DisplayName,
		Email:       u.Email,
		PhotoURL:    u.PhotoURL,
		Verified:    u.Verified,
	}
	if u.LastLoginAt != nil {
		id.LastLogin = *u.LastLoginAt
	}
	return id
}

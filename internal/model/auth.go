package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MinPasswordLength is the shortest password accepted on sign-up and password change.
const MinPasswordLength = 6

// SessionTTL bounds how long a session token stays valid.
const SessionTTL = 14 * 24 * time.Hour

// VerificationTTL bounds how long an email verification link stays valid.
const VerificationTTL = 24 * time.Hour

// Identity is the account object exposed by the authentication backend.
type Identity struct {
	UserID      string
	DisplayName string
	Email       string
	PhotoURL    string
	Verified    bool
	LastLogin   time.Time
}

// Credentials is the result of a successful sign-in or sign-up.
type Credentials struct {
	Identity  Identity
	Token     string
	ExpiresAt time.Time
}

// Session is the authenticated identity held by a board.
type Session struct {
	UserID      string
	DisplayName string
	Email       string
	PictureURL  string
	Verified    bool
	LastLogin   time.Time
	Token       string
}

// AuthBackend is the authentication collaborator. Every operation that changes
// credentials or deletes the account requires the current password.
type AuthBackend interface {
	SignIn(ctx context.Context, email, password string) (Credentials, error)
	SignUp(ctx context.Context, email, password, displayName string) (Credentials, error)
	Resume(ctx context.Context, token string) (Identity, error)
	SignOut(ctx context.Context, token string) error
	Reauthenticate(ctx context.Context, userID, current string) error
	UpdateProfile(ctx context.Context, userID, displayName, photoURL string) (Identity, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
	ChangeEmail(ctx context.Context, userID, current, newEmail string) (Identity, error)
	DeleteAccount(ctx context.Context, userID, current string) error
	SendVerification(ctx context.Context, userID string) error
	Verify(ctx context.Context, token string) (Identity, error)
}

// AuthSessionStore persists issued session tokens so they can be revoked.
type AuthSessionStore interface {
	Create(ctx context.Context, session AuthSession) error
	GetByJTI(ctx context.Context, jti string) (AuthSession, error)
	RevokeByJTI(ctx context.Context, jti string) error
	RevokeAllByUser(ctx context.Context, userID uuid.UUID) error
}

// AuthSession is a persisted session token.
type AuthSession struct {
	ID        uuid.UUID
	JTI       string
	UserID    uuid.UUID
	TokenHash []byte
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VerificationStore persists pending email verifications.
type VerificationStore interface {
	Create(ctx context.Context, pending PendingVerification) error
	GetByJTI(ctx context.Context, jti string) (PendingVerification, error)
	Consume(ctx context.Context, jti string) error
}

// PendingVerification describes an email verification link that was sent out.
type PendingVerification struct {
	JTI       string
	UserID    uuid.UUID
	Email     string
	ExpiresAt time.Time
	Consumed  bool
}

// TokenManager generates and validates session and verification tokens.
type TokenManager interface {
	GenerateSessionToken(userID uuid.UUID) (token string, jti string, expiresAt time.Time, err error)
	ParseSessionToken(token string) (userID uuid.UUID, jti string, err error)
	GenerateVerificationToken(userID uuid.UUID, email string) (token string, jti string, err error)
	ParseVerificationToken(token string) (userID uuid.UUID, email string, jti string, err error)
}

// Mailer dispatches account emails.
type Mailer interface {
	SendVerification(ctx context.Context, to, link string) error
}

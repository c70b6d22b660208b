package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/noteboard/internal/logger"
	"github.com/dtroode/noteboard/internal/model"
)

// TokenService issues, validates and revokes session tokens. It composes the
// TokenManager and AuthSessionStore.
type TokenService struct {
	manager model.TokenManager
	store   model.AuthSessionStore
	logger  *logger.Logger
	now     func() time.Time
}

func NewTokenService(manager model.TokenManager, store model.AuthSessionStore, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, store: store, logger: logger, now: time.Now}
}

// Issue creates a session token for userID and persists its hash.
func (s *TokenService) Issue(ctx context.Context, userID uuid.UUID) (string, time.Time, error) {
	token, jti, expiresAt, err := s.manager.GenerateSessionToken(userID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue session: %w", err)
	}

	now := s.now()
	session := model.AuthSession{
		ID:        uuid.New(),
		JTI:       jti,
		UserID:    userID,
		TokenHash: hashToken(token),
		IssuedAt:  now,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, session); err != nil {
		return "", time.Time{}, fmt.Errorf("persist session: %w", err)
	}

	return token, expiresAt, nil
}

// Validate returns the owner of a presented session token if it is still live.
func (s *TokenService) Validate(ctx context.Context, presented string) (uuid.UUID, error) {
	userID, jti, err := s.manager.ParseSessionToken(presented)
	if err != nil {
		return uuid.Nil, model.ErrInvalidToken
	}

	session, err := s.store.GetByJTI(ctx, jti)
	if errors.Is(err, model.ErrNotFound) {
		return uuid.Nil, model.ErrInvalidToken
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := validateSession(session, hashToken(presented), s.now()); err != nil {
		s.logger.Debug("Token service: rejected session",
			"jti", jti,
			"error", err.Error())
		return uuid.Nil, err
	}

	return userID, nil
}

func (s *TokenService) RevokeByToken(ctx context.Context, presented string) error {
	_, jti, err := s.manager.ParseSessionToken(presented)
	if err != nil {
		return model.ErrInvalidToken
	}
	return s.store.RevokeByJTI(ctx, jti)
}

func (s *TokenService) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return s.store.RevokeAllByUser(ctx, userID)
}

func hashToken(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}

func validateSession(session model.AuthSession, presentedHash []byte, now time.Time) error {
	if session.RevokedAt != nil {
		return model.ErrInvalidToken
	}
	if now.After(session.ExpiresAt) {
		return model.ErrInvalidToken
	}
	if subtle.ConstantTimeCompare(session.TokenHash, presentedHash) != 1 {
		return model.ErrInvalidToken
	}
	return nil
}

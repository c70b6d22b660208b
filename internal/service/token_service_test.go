package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/noteboard/internal/mocks"
	"github.com/dtroode/noteboard/internal/model"
	"github.com/dtroode/noteboard/internal/testutil"
)

func hashed(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}

func TestTokenService_Issue(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	expiresAt := time.Now().Add(model.SessionTTL)

	manager := &mocks.TokenManager{}
	store := &mocks.AuthSessionStore{}

	manager.On("GenerateSessionToken", userID).Return("session", "jti-1", expiresAt, nil).Once()
	store.On("Create", ctx, mock.MatchedBy(func(s model.AuthSession) bool {
		return s.JTI == "jti-1" && s.UserID == userID && string(s.TokenHash) == string(hashed("session"))
	})).Return(nil).Once()

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	token, gotExpiry, err := svc.Issue(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "session", token)
	assert.Equal(t, expiresAt, gotExpiry)
	store.AssertExpectations(t)
}

func TestTokenService_Issue_ManagerError(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	manager := &mocks.TokenManager{}
	store := &mocks.AuthSessionStore{}

	manager.On("GenerateSessionToken", userID).Return("", "", time.Time{}, assert.AnError).Once()

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	_, _, err := svc.Issue(ctx, userID)
	require.ErrorIs(t, err, assert.AnError)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTokenService_Validate(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()
	presented := "session"

	tests := []struct {
		name    string
		session model.AuthSession
		getErr  error
		wantErr error
	}{
		{
			name:    "live",
			session: model.AuthSession{TokenHash: hashed(presented), ExpiresAt: now.Add(time.Hour)},
		},
		{
			name:    "revoked",
			session: model.AuthSession{TokenHash: hashed(presented), ExpiresAt: now.Add(time.Hour), RevokedAt: &now},
			wantErr: model.ErrInvalidToken,
		},
		{
			name:    "expired",
			session: model.AuthSession{TokenHash: hashed(presented), ExpiresAt: now.Add(-time.Minute)},
			wantErr: model.ErrInvalidToken,
		},
		{
			name:    "hash mismatch",
			session: model.AuthSession{TokenHash: hashed("other"), ExpiresAt: now.Add(time.Hour)},
			wantErr: model.ErrInvalidToken,
		},
		{
			name:    "unknown jti",
			getErr:  model.ErrNotFound,
			wantErr: model.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := &mocks.TokenManager{}
			store := &mocks.AuthSessionStore{}

			manager.On("ParseSessionToken", presented).Return(userID, "jti", nil).Once()
			store.On("GetByJTI", ctx, "jti").Return(tt.session, tt.getErr).Once()

			svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

			got, err := svc.Validate(ctx, presented)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, got)
		})
	}
}

func TestTokenService_Validate_Unparsable(t *testing.T) {
	manager := &mocks.TokenManager{}
	store := &mocks.AuthSessionStore{}

	manager.On("ParseSessionToken", "garbage").Return(uuid.Nil, "", errors.New("bad token")).Once()

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	_, err := svc.Validate(context.Background(), "garbage")
	require.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestTokenService_Validate_StoreError(t *testing.T) {
	ctx := context.Background()
	manager := &mocks.TokenManager{}
	store := &mocks.AuthSessionStore{}

	manager.On("ParseSessionToken", "session").Return(uuid.New(), "jti", nil).Once()
	store.On("GetByJTI", ctx, "jti").Return(model.AuthSession{}, assert.AnError).Once()

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	_, err := svc.Validate(ctx, "session")
	require.ErrorIs(t, err, assert.AnError)
}

func TestTokenService_RevokeByToken(t *testing.T) {
	ctx := context.Background()
	manager := &mocks.TokenManager{}
	store := &mocks.AuthSessionStore{}

	manager.On("ParseSessionToken", "session").Return(uuid.New(), "jti", nil).Once()
	store.On("RevokeByJTI", ctx, "jti").Return(nil).Once()

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	require.NoError(t, svc.RevokeByToken(ctx, "session"))
	store.AssertExpectations(t)
}

func TestTokenService_RevokeAllForUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	manager := &mocks.TokenManager{}
	store := &mocks.AuthSessionStore{}

	store.On("RevokeAllByUser", ctx, userID).Return(nil).Once()

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	require.NoError(t, svc.RevokeAllForUser(ctx, userID))
}

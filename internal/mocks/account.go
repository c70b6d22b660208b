// Package mocks holds testify mocks of the model interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/noteboard/internal/model"
)

// UserStore is a mock of model.UserStore.
type UserStore struct {
	mock.Mock
}

func (_m *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	ret := _m.Called(ctx, email)
	return ret.Get(0).(model.User), ret.Error(1)
}

func (_m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	ret := _m.Called(ctx, id)
	return ret.Get(0).(model.User), ret.Error(1)
}

func (_m *UserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	ret := _m.Called(ctx, user)
	if rf, ok := ret.Get(0).(func(context.Context, model.User) model.User); ok {
		return rf(ctx, user), ret.Error(1)
	}
	return ret.Get(0).(model.User), ret.Error(1)
}

func (_m *UserStore) UpdateProfile(ctx context.Context, id uuid.UUID, displayName, photoURL string) (model.User, error) {
	ret := _m.Called(ctx, id, displayName, photoURL)
	return ret.Get(0).(model.User), ret.Error(1)
}

func (_m *UserStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash []byte) error {
	ret := _m.Called(ctx, id, passwordHash)
	return ret.Error(0)
}

func (_m *UserStore) UpdateEmail(ctx context.Context, id uuid.UUID, email string) (model.User, error) {
	ret := _m.Called(ctx, id, email)
	return ret.Get(0).(model.User), ret.Error(1)
}

func (_m *UserStore) MarkVerified(ctx context.Context, id uuid.UUID, email string) (model.User, error) {
	ret := _m.Called(ctx, id, email)
	return ret.Get(0).(model.User), ret.Error(1)
}

func (_m *UserStore) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	ret := _m.Called(ctx, id, at)
	return ret.Error(0)
}

func (_m *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// AuthSessionStore is a mock of model.AuthSessionStore.
type AuthSessionStore struct {
	mock.Mock
}

func (_m *AuthSessionStore) Create(ctx context.Context, session model.AuthSession) error {
	ret := _m.Called(ctx, session)
	return ret.Error(0)
}

func (_m *AuthSessionStore) GetByJTI(ctx context.Context, jti string) (model.AuthSession, error) {
	ret := _m.Called(ctx, jti)
	return ret.Get(0).(model.AuthSession), ret.Error(1)
}

func (_m *AuthSessionStore) RevokeByJTI(ctx context.Context, jti string) error {
	ret := _m.Called(ctx, jti)
	return ret.Error(0)
}

func (_m *AuthSessionStore) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	ret := _m.Called(ctx, userID)
	return ret.Error(0)
}

// VerificationStore is a mock of model.VerificationStore.
type VerificationStore struct {
	mock.Mock
}

func (_m *VerificationStore) Create(ctx context.Context, pending model.PendingVerification) error {
	ret := _m.Called(ctx, pending)
	return ret.Error(0)
}

func (_m *VerificationStore) GetByJTI(ctx context.Context, jti string) (model.PendingVerification, error) {
	ret := _m.Called(ctx, jti)
	return ret.Get(0).(model.PendingVerification), ret.Error(1)
}

func (_m *VerificationStore) Consume(ctx context.Context, jti string) error {
	ret := _m.Called(ctx, jti)
	return ret.Error(0)
}

// TokenManager is a mock of model.TokenManager.
type TokenManager struct {
	mock.Mock
}

func (_m *TokenManager) GenerateSessionToken(userID uuid.UUID) (string, string, time.Time, error) {
	ret := _m.Called(userID)
	return ret.String(0), ret.String(1), ret.Get(2).(time.Time), ret.Error(3)
}

func (_m *TokenManager) ParseSessionToken(token string) (uuid.UUID, string, error) {
	ret := _m.Called(token)
	return ret.Get(0).(uuid.UUID), ret.String(1), ret.Error(2)
}

func (_m *TokenManager) GenerateVerificationToken(userID uuid.UUID, email string) (string, string, error) {
	ret := _m.Called(userID, email)
	return ret.String(0), ret.String(1), ret.Error(2)
}

func (_m *TokenManager) ParseVerificationToken(token string) (uuid.UUID, string, string, error) {
	ret := _m.Called(token)
	return ret.Get(0).(uuid.UUID), ret.String(1), ret.String(2), ret.Error(3)
}

// Mailer is a mock of model.Mailer.
type Mailer struct {
	mock.Mock
}

func (_m *Mailer) SendVerification(ctx context.Context, to, link string) error {
	ret := _m.Called(ctx, to, link)
	return ret.Error(0)
}

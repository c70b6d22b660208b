package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/noteboard/internal/model"
)

// AuthBackend is a mock of model.AuthBackend.
type AuthBackend struct {
	mock.Mock
}

func (_m *AuthBackend) SignIn(ctx context.Context, email, password string) (model.Credentials, error) {
	ret := _m.Called(ctx, email, password)
	return ret.Get(0).(model.Credentials), ret.Error(1)
}

func (_m *AuthBackend) SignUp(ctx context.Context, email, password, displayName string) (model.Credentials, error) {
	ret := _m.Called(ctx, email, password, displayName)
	return ret.Get(0).(model.Credentials), ret.Error(1)
}

func (_m *AuthBackend) Resume(ctx context.Context, token string) (model.Identity, error) {
	ret := _m.Called(ctx, token)
	return ret.Get(0).(model.Identity), ret.Error(1)
}

func (_m *AuthBackend) SignOut(ctx context.Context, token string) error {
	ret := _m.Called(ctx, token)
	return ret.Error(0)
}

func (_m *AuthBackend) Reauthenticate(ctx context.Context, userID, current string) error {
	ret := _m.Called(ctx, userID, current)
	return ret.Error(0)
}

func (_m *AuthBackend) UpdateProfile(ctx context.Context, userID, displayName, photoURL string) (model.Identity, error) {
	ret := _m.Called(ctx, userID, displayName, photoURL)
	return ret.Get(0).(model.Identity), ret.Error(1)
}

func (_m *AuthBackend) ChangePassword(ctx context.Context, userID, current, next string) error {
	ret := _m.Called(ctx, userID, current, next)
	return ret.Error(0)
}

func (_m *AuthBackend) ChangeEmail(ctx context.Context, userID, current, newEmail string) (model.Identity, error) {
	ret := _m.Called(ctx, userID, current, newEmail)
	return ret.Get(0).(model.Identity), ret.Error(1)
}

func (_m *AuthBackend) DeleteAccount(ctx context.Context, userID, current string) error {
	ret := _m.Called(ctx, userID, current)
	return ret.Error(0)
}

func (_m *AuthBackend) SendVerification(ctx context.Context, userID string) error {
	ret := _m.Called(ctx, userID)
	return ret.Error(0)
}

func (_m *AuthBackend) Verify(ctx context.Context, token string) (model.Identity, error) {
	ret := _m.Called(ctx, token)
	return ret.Get(0).(model.Identity), ret.Error(1)
}

// PictureService is a mock of board.PictureService.
type PictureService struct {
	mock.Mock
}

func (_m *PictureService) Validate(ctx context.Context, pictureURL string) error {
	ret := _m.Called(ctx, pictureURL)
	return ret.Error(0)
}

func (_m *PictureService) Remove(ctx context.Context, userID, pictureURL string) error {
	ret := _m.Called(ctx, userID, pictureURL)
	return ret.Error(0)
}

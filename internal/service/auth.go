package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/noteboard/internal/logger"
	"github.com/dtroode/noteboard/internal/model"
)

var _ model.AuthBackend = (*Auth)(nil)

// AuthOptions tunes the account policy of Auth.
type AuthOptions struct {
	AllowSignup bool
	BcryptCost  int
	// PublicURL is the externally reachable base URL used in verification links.
	PublicURL string
}

// Auth is the email and password identity provider.
type Auth struct {
	userStore         model.UserStore
	verificationStore model.VerificationStore
	tokenManager      model.TokenManager
	tokenService      *TokenService
	mailer            model.Mailer
	opts              AuthOptions
	logger            *logger.Logger
	now               func() time.Time
}

func NewAuth(
	userStore model.UserStore,
	sessionStore model.AuthSessionStore,
	verificationStore model.VerificationStore,
	tokenManager model.TokenManager,
	mailer model.Mailer,
	opts AuthOptions,
	logger *logger.Logger,
) *Auth {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Auth{
		userStore:         userStore,
		verificationStore: verificationStore,
		tokenManager:      tokenManager,
		tokenService:      NewTokenService(tokenManager, sessionStore, logger),
		mailer:            mailer,
		opts:              opts,
		logger:            logger,
		now:               time.Now,
	}
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (model.Credentials, error) {
	a.logger.Debug("Auth service: signing in",
		"email", email)

	email, err := normalizeEmail(email)
	if err != nil {
		return model.Credentials{}, err
	}

	user, err := a.userStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return model.Credentials{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.Credentials{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if user.DisabledAt != nil {
		return model.Credentials{}, model.ErrUserDisabled
	}

	if err := checkPassword(user, password); err != nil {
		a.logger.Info("Auth service: wrong password",
			"user_id", user.ID)
		return model.Credentials{}, err
	}

	creds, err := a.startSession(ctx, user)
	if err != nil {
		return model.Credentials{}, err
	}

	a.logger.Info("Auth service: signed in",
		"user_id", user.ID)

	return creds, nil
}

func (a *Auth) SignUp(ctx context.Context, email, password, displayName string) (model.Credentials, error) {
	a.logger.Debug("Auth service: signing up",
		"email", email)

	if !a.opts.AllowSignup {
		return model.Credentials{}, model.ErrOperationNotAllowed
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return model.Credentials{}, err
	}

	hash, err := a.hashPassword(password)
	if err != nil {
		return model.Credentials{}, err
	}

	now := a.now()
	user, err := a.userStore.Create(ctx, model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(displayName),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, model.ErrEmailInUse) {
			return model.Credentials{}, err
		}
		a.logger.Error("Auth service: failed to create user",
			"email", email,
			"error", err.Error())
		return model.Credentials{}, fmt.Errorf("failed to create user: %w", err)
	}

	creds, err := a.startSession(ctx, user)
	if err != nil {
		return model.Credentials{}, err
	}

	if err := a.sendVerification(ctx, user); err != nil {
		a.logger.Warn("Auth service: failed to send verification email",
			"user_id", user.ID,
			"error", err.Error())
	}

	a.logger.Info("Auth service: signed up",
		"user_id", user.ID)

	return creds, nil
}

func (a *Auth) Resume(ctx context.Context, token string) (model.Identity, error) {
	userID, err := a.tokenService.Validate(ctx, token)
	if err != nil {
		return model.Identity{}, err
	}

	user, err := a.userStore.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Identity{}, model.ErrInvalidToken
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	if user.DisabledAt != nil {
		return model.Identity{}, model.ErrUserDisabled
	}

	return user.Identity(), nil
}

func (a *Auth) SignOut(ctx context.Context, token string) error {
	if err := a.tokenService.RevokeByToken(ctx, token); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// Reauthenticate checks current against the stored password of userID.
func (a *Auth) Reauthenticate(ctx context.Context, userID, current string) error {
	_, err := a.reauthenticate(ctx, userID, current)
	return err
}

func (a *Auth) UpdateProfile(ctx context.Context, userID, displayName, photoURL string) (model.Identity, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return model.Identity{}, err
	}

	user, err := a.userStore.UpdateProfile(ctx, id, strings.TrimSpace(displayName), strings.TrimSpace(photoURL))
	if errors.Is(err, model.ErrNotFound) {
		return model.Identity{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to update profile: %w", err)
	}

	return user.Identity(), nil
}

func (a *Auth) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := a.reauthenticate(ctx, userID, current)
	if err != nil {
		return err
	}

	hash, err := a.hashPassword(next)
	if err != nil {
		return err
	}

	if err := a.userStore.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	a.logger.Info("Auth service: password changed",
		"user_id", user.ID)

	return nil
}

func (a *Auth) ChangeEmail(ctx context.Context, userID, current, newEmail string) (model.Identity, error) {
	user, err := a.reauthenticate(ctx, userID, current)
	if err != nil {
		return model.Identity{}, err
	}

	newEmail, err = normalizeEmail(newEmail)
	if err != nil {
		return model.Identity{}, err
	}

	user, err = a.userStore.UpdateEmail(ctx, user.ID, newEmail)
	if err != nil {
		if errors.Is(err, model.ErrEmailInUse) {
			return model.Identity{}, err
		}
		return model.Identity{}, fmt.Errorf("failed to update email: %w", err)
	}

	if err := a.sendVerification(ctx, user); err != nil {
		a.logger.Warn("Auth service: failed to send verification email",
			"user_id", user.ID,
			"error", err.Error())
	}

	return user.Identity(), nil
}

func (a *Auth) DeleteAccount(ctx context.Context, userID, current string) error {
	user, err := a.reauthenticate(ctx, userID, current)
	if err != nil {
		return err
	}

	if err := a.tokenService.RevokeAllForUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	if err := a.userStore.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	a.logger.Info("Auth service: account deleted",
		"user_id", user.ID)

	return nil
}

func (a *Auth) SendVerification(ctx context.Context, userID string) error {
	id, err := parseUserID(userID)
	if err != nil {
		return err
	}

	user, err := a.userStore.GetByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get user by id: %w", err)
	}

	return a.sendVerification(ctx, user)
}

func (a *Auth) Verify(ctx context.Context, token string) (model.Identity, error) {
	userID, email, jti, err := a.tokenManager.ParseVerificationToken(token)
	if err != nil {
		return model.Identity{}, model.ErrInvalidToken
	}

	pending, err := a.verificationStore.GetByJTI(ctx, jti)
	if errors.Is(err, model.ErrNotFound) {
		return model.Identity{}, model.ErrInvalidToken
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to get pending verification: %w", err)
	}

	if pending.Consumed || a.now().After(pending.ExpiresAt) || pending.UserID != userID {
		return model.Identity{}, model.ErrInvalidToken
	}

	if err := a.verificationStore.Consume(ctx, jti); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Identity{}, model.ErrInvalidToken
		}
		return model.Identity{}, fmt.Errorf("failed to consume verification: %w", err)
	}

	user, err := a.userStore.MarkVerified(ctx, userID, email)
	if errors.Is(err, model.ErrNotFound) {
		// the account changed its address after the link was sent
		return model.Identity{}, model.ErrInvalidToken
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to mark user verified: %w", err)
	}

	a.logger.Info("Auth service: email verified",
		"user_id", user.ID)

	return user.Identity(), nil
}

func (a *Auth) startSession(ctx context.Context, user model.User) (model.Credentials, error) {
	now := a.now()
	if err := a.userStore.TouchLastLogin(ctx, user.ID, now); err != nil {
		return model.Credentials{}, fmt.Errorf("failed to touch last login: %w", err)
	}
	user.LastLoginAt = &now

	token, expiresAt, err := a.tokenService.Issue(ctx, user.ID)
	if err != nil {
		return model.Credentials{}, fmt.Errorf("failed to issue session: %w", err)
	}

	return model.Credentials{
		Identity:  user.Identity(),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (a *Auth) reauthenticate(ctx context.Context, userID, password string) (model.User, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return model.User{}, err
	}

	user, err := a.userStore.GetByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	if err := checkPassword(user, password); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (a *Auth) sendVerification(ctx context.Context, user model.User) error {
	token, jti, err := a.tokenManager.GenerateVerificationToken(user.ID, user.Email)
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}

	err = a.verificationStore.Create(ctx, model.PendingVerification{
		JTI:       jti,
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: a.now().Add(model.VerificationTTL),
	})
	if err != nil {
		return fmt.Errorf("failed to persist verification: %w", err)
	}

	link := strings.TrimRight(a.opts.PublicURL, "/") + "/verify?token=" + url.QueryEscape(token)
	if err := a.mailer.SendVerification(ctx, user.Email, link); err != nil {
		return fmt.Errorf("failed to send verification: %w", err)
	}
	return nil
}

func (a *Auth) hashPassword(password string) ([]byte, error) {
	if len(password) < model.MinPasswordLength {
		return nil, model.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.opts.BcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, model.ErrWeakPassword
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

func checkPassword(user model.User, password string) error {
	err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return model.ErrWrongPassword
	}
	if err != nil {
		return fmt.Errorf("failed to compare password: %w", err)
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" {
		return "", model.ErrInvalidEmail
	}
	return addr.Address, nil
}

func parseUserID(userID string) (uuid.UUID, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, model.ErrUserNotFound
	}
	return id, nil
}

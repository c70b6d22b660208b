package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dtroode/noteboard/internal/logger"
	"github.com/dtroode/noteboard/internal/model"
)

// PictureService validates and cleans up profile pictures.
type PictureService interface {
	Validate(ctx context.Context, pictureURL string) error
	Remove(ctx context.Context, userID, pictureURL string) error
}

// MessagePurger removes all messages of an author in one step.
type MessagePurger interface {
	DeleteMessagesByAuthor(ctx context.Context, authorID string) (int, error)
}

// SessionState tracks the signed-in identity of one board. Login and logout
// callbacks are posted to the board loop, never run on the caller.
type SessionState struct {
	auth     model.AuthBackend
	docs     model.DocumentStore
	pictures PictureService
	purger   MessagePurger
	post     func(func()) bool
	logger   *logger.Logger

	mu       sync.RWMutex
	current  *model.Session
	lastUser string
	onLogin  func(model.Session)
	onLogout func(lastUserID string)
}

// NewSessionState creates the session of a board. post schedules a callback on
// the board loop; pictures may be nil.
func NewSessionState(
	auth model.AuthBackend,
	docs model.DocumentStore,
	pictures PictureService,
	post func(func()) bool,
	logger *logger.Logger,
) *SessionState {
	return &SessionState{
		auth:     auth,
		docs:     docs,
		pictures: pictures,
		purger:   docs,
		post:     post,
		logger:   logger,
	}
}

// OnLogin registers the login callback. The last registration wins.
func (s *SessionState) OnLogin(fn func(model.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogin = fn
}

// OnLogout registers the logout callback. The last registration wins.
func (s *SessionState) OnLogout(fn func(lastUserID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = fn
}

func (s *SessionState) Login(ctx context.Context, email, secret string) (model.Session, error) {
	creds, err := s.auth.SignIn(ctx, email, secret)
	if err != nil {
		return model.Session{}, err
	}

	sess, err := s.establish(ctx, creds.Identity, creds.Token)
	if err != nil {
		s.revoke(ctx, creds.Identity.UserID, creds.Token)
		return model.Session{}, err
	}
	return sess, nil
}

// Resume restores the session of a still valid token, typically on page load.
func (s *SessionState) Resume(ctx context.Context, token string) (model.Session, error) {
	identity, err := s.auth.Resume(ctx, token)
	if err != nil {
		return model.Session{}, err
	}
	return s.establish(ctx, identity, token)
}

func (s *SessionState) CreateAccount(ctx context.Context, email, secret, displayName string) (model.Session, error) {
	creds, err := s.auth.SignUp(ctx, email, secret, strings.TrimSpace(displayName))
	if err != nil {
		return model.Session{}, err
	}

	err = s.docs.PutProfile(ctx, model.Profile{
		UserID:      creds.Identity.UserID,
		DisplayName: creds.Identity.DisplayName,
		PictureURL:  creds.Identity.PhotoURL,
	})
	if err != nil {
		s.revoke(ctx, creds.Identity.UserID, creds.Token)
		return model.Session{}, fmt.Errorf("failed to write profile: %w", err)
	}

	sess, err := s.establish(ctx, creds.Identity, creds.Token)
	if err != nil {
		s.revoke(ctx, creds.Identity.UserID, creds.Token)
		return model.Session{}, err
	}
	return sess, nil
}

func (s *SessionState) Logout(ctx context.Context) error {
	s.mu.Lock()
	cur := s.current
	s.current = nil
	fn := s.onLogout
	s.mu.Unlock()

	if cur == nil {
		return nil
	}

	if fn != nil {
		last := cur.UserID
		s.post(func() { fn(last) })
	}

	if err := s.auth.SignOut(ctx, cur.Token); err != nil {
		s.logger.Warn("Session: failed to revoke session",
			"user_id", cur.UserID,
			"error", err.Error())
		return err
	}

	s.logger.Info("Session: logged out",
		"user_id", cur.UserID)
	return nil
}

// IsAuthenticated reports whether someone is signed in, and verified if
// requireVerified is set.
func (s *SessionState) IsAuthenticated(requireVerified bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil && (!requireVerified || s.current.Verified)
}

// CurrentUserID returns the signed-in user or "" when signed out.
func (s *SessionState) CurrentUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.UserID
}

// LastUserID returns the most recent signed-in user, kept after logout.
// It is "" only if nobody signed in on this board.
func (s *SessionState) LastUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUser
}

// Current returns a copy of the active session.
func (s *SessionState) Current() (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return model.Session{}, false
	}
	return *s.current, true
}

// UpdateProfile changes the display name and picture of the signed-in user.
// The profile document is rewritten, so every board sees the change through
// its profile subscription.
func (s *SessionState) UpdateProfile(ctx context.Context, displayName, pictureURL string) (model.Session, error) {
	cur, ok := s.Current()
	if !ok {
		return model.Session{}, model.ErrNotAuthenticated
	}

	displayName = strings.TrimSpace(displayName)
	pictureURL = strings.TrimSpace(pictureURL)

	if s.pictures != nil && pictureURL != cur.PictureURL {
		if err := s.pictures.Validate(ctx, pictureURL); err != nil {
			return model.Session{}, err
		}
	}

	identity, err := s.auth.UpdateProfile(ctx, cur.UserID, displayName, pictureURL)
	if err != nil {
		return model.Session{}, err
	}

	err = s.docs.PutProfile(ctx, model.Profile{
		UserID:      cur.UserID,
		DisplayName: identity.DisplayName,
		PictureURL:  identity.PhotoURL,
	})
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to write profile: %w", err)
	}

	if s.pictures != nil && cur.PictureURL != "" && cur.PictureURL != identity.PhotoURL {
		if err := s.pictures.Remove(ctx, cur.UserID, cur.PictureURL); err != nil {
			s.logger.Warn("Session: failed to remove old picture",
				"user_id", cur.UserID,
				"error", err.Error())
		}
	}

	return s.update(func(sess *model.Session) {
		sess.DisplayName = identity.DisplayName
		sess.PictureURL = identity.PhotoURL
	})
}

func (s *SessionState) ChangePassword(ctx context.Context, current, next string) error {
	cur, ok := s.Current()
	if !ok {
		return model.ErrNotAuthenticated
	}
	return s.auth.ChangePassword(ctx, cur.UserID, current, next)
}

// ChangeEmail moves the account to newEmail, which has to be verified again.
func (s *SessionState) ChangeEmail(ctx context.Context, current, newEmail string) (model.Session, error) {
	cur, ok := s.Current()
	if !ok {
		return model.Session{}, model.ErrNotAuthenticated
	}

	identity, err := s.auth.ChangeEmail(ctx, cur.UserID, current, newEmail)
	if err != nil {
		return model.Session{}, err
	}

	return s.update(func(sess *model.Session) {
		sess.Email = identity.Email
		sess.Verified = identity.Verified
	})
}

func (s *SessionState) SendVerification(ctx context.Context) error {
	cur, ok := s.Current()
	if !ok {
		return model.ErrNotAuthenticated
	}
	return s.auth.SendVerification(ctx, cur.UserID)
}

// DeleteAccount removes every message of the signed-in user, the uploaded
// picture and the account itself, then signs out. Nothing is deleted unless
// current is the right password.
func (s *SessionState) DeleteAccount(ctx context.Context, current string) (int, error) {
	cur, ok := s.Current()
	if !ok {
		return 0, model.ErrNotAuthenticated
	}

	if err := s.auth.Reauthenticate(ctx, cur.UserID, current); err != nil {
		return 0, err
	}

	n, err := s.purger.DeleteMessagesByAuthor(ctx, cur.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}

	if s.pictures != nil && cur.PictureURL != "" {
		if err := s.pictures.Remove(ctx, cur.UserID, cur.PictureURL); err != nil {
			s.logger.Warn("Session: failed to remove picture",
				"user_id", cur.UserID,
				"error", err.Error())
		}
	}

	if err := s.auth.DeleteAccount(ctx, cur.UserID, current); err != nil {
		return n, err
	}

	s.mu.Lock()
	s.current = nil
	fn := s.onLogout
	s.mu.Unlock()

	if fn != nil {
		s.post(func() { fn(cur.UserID) })
	}

	s.logger.Info("Session: account deleted",
		"user_id", cur.UserID,
		"messages", n)

	return n, nil
}

// establish resolves the profile of identity and then announces the login.
func (s *SessionState) establish(ctx context.Context, identity model.Identity, token string) (model.Session, error) {
	profile, err := s.docs.GetProfile(ctx, identity.UserID)
	switch {
	case errors.Is(err, model.ErrProfileMissing):
		profile = model.Profile{
			UserID:      identity.UserID,
			DisplayName: identity.DisplayName,
			PictureURL:  identity.PhotoURL,
		}
		if err := s.docs.PutProfile(ctx, profile); err != nil {
			return model.Session{}, fmt.Errorf("failed to write profile: %w", err)
		}
	case err != nil:
		return model.Session{}, fmt.Errorf("failed to read profile: %w", err)
	}

	sess := model.Session{
		UserID:      identity.UserID,
		DisplayName: firstNonEmpty(profile.DisplayName, identity.DisplayName),
		Email:       identity.Email,
		PictureURL:  firstNonEmpty(profile.PictureURL, identity.PhotoURL),
		Verified:    identity.Verified,
		LastLogin:   identity.LastLogin,
		Token:       token,
	}

	s.mu.Lock()
	prev := s.current
	s.current = &sess
	s.lastUser = sess.UserID
	fn := s.onLogin
	s.mu.Unlock()

	if prev != nil && prev.Token != token {
		s.revoke(ctx, prev.UserID, prev.Token)
	}

	if fn != nil {
		s.post(func() { fn(sess) })
	}

	s.logger.Info("Session: logged in",
		"user_id", sess.UserID,
		"verified", sess.Verified)

	return sess, nil
}

// revoke signs out a session the board no longer holds. Failures are only
// logged; the token expires on its own.
func (s *SessionState) revoke(ctx context.Context, userID, token string) {
	if err := s.auth.SignOut(context.WithoutCancel(ctx), token); err != nil {
		s.logger.Warn("Session: failed to revoke replaced session",
			"user_id", userID,
			"error", err.Error())
	}
}

func (s *SessionState) update(fn func(*model.Session)) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return model.Session{}, model.ErrNotAuthenticated
	}
	fn(s.current)
	return *s.current, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"time"

	"github.com/dtroode/noteboard/internal/api/http/middleware"
	"github.com/dtroode/noteboard/internal/api/http/view"
	"github.com/dtroode/noteboard/internal/board"
	"github.com/dtroode/noteboard/internal/logger"
	"github.com/dtroode/noteboard/internal/model"
	"github.com/dtroode/noteboard/internal/service"
)

// maxUploadBody bounds the signals of a picture upload, which carry the file
// base64 encoded.
const maxUploadBody = service.MaxPictureSize*4/3 + 64<<10

// PictureUploader stores uploaded profile pictures.
type PictureUploader interface {
	Upload(ctx context.Context, userID string, reader io.Reader, size int64, contentType string) (string, error)
}

// Account handles sign-in and the account actions of a page.
type Account struct {
	boards
	pictures      PictureUploader
	secureCookies bool
}

// NewAccount creates a new Account handler.
func NewAccount(
	registry *board.Registry,
	pictures PictureUploader,
	contextManager model.ContextManager,
	secureCookies bool,
	logger *logger.Logger,
) *Account {
	return &Account{
		boards: boards{
			registry:       registry,
			contextManager: contextManager,
			logger:         logger,
		},
		pictures:      pictures,
		secureCookies: secureCookies,
	}
}

// Login signs the page in and stores the session in a cookie.
func (h *Account) Login(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "login", func(b *board.Board, s view.Signals) error {
		if err := b.Login(r.Context(), s.Email, s.Password); err != nil {
			return err
		}
		h.setSessionCookie(w, b)
		return nil
	})
}

// Signup creates an account and signs the page in with it.
func (h *Account) Signup(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "signup", func(b *board.Board, s view.Signals) error {
		if s.Password != s.Confirm {
			return notify(b, model.ErrPasswordMismatch)
		}
		if err := b.CreateAccount(r.Context(), s.Email, s.Password, s.DisplayName); err != nil {
			return err
		}
		h.setSessionCookie(w, b)
		return nil
	})
}

func (h *Account) Logout(w http.ResponseWriter, r *http.Request) {
	h.do(w, r, "logout", func(b *board.Board) error {
		// the board is signed out even when the revoke fails
		h.clearSessionCookie(w)
		return b.Logout(r.Context())
	})
}

// Profile changes the display name and picture URL. Empty fields keep their
// current value.
func (h *Account) Profile(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "update profile", func(b *board.Board, s view.Signals) error {
		sess, ok := b.Session.Current()
		if !ok {
			return notify(b, model.ErrNotAuthenticated)
		}

		displayName, picture := s.DisplayName, s.Picture
		if displayName == "" {
			displayName = sess.DisplayName
		}
		if picture == "" {
			picture = sess.PictureURL
		}
		return b.UpdateProfile(r.Context(), displayName, picture)
	})
}

// UploadPicture stores the selected file and makes it the profile picture.
func (h *Account) UploadPicture(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxUploadBody {
		handleError(w, &http.MaxBytesError{Limit: maxUploadBody})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)

	h.serve(w, r, "upload picture", func(b *board.Board, s view.Signals) error {
		sess, ok := b.Session.Current()
		if !ok {
			return notify(b, model.ErrNotAuthenticated)
		}
		if len(s.Upload) == 0 {
			return notify(b, model.ErrInvalidPicture)
		}

		data, err := base64.StdEncoding.DecodeString(s.Upload[0])
		if err != nil {
			return notify(b, model.ErrInvalidPicture)
		}
		var contentType string
		if len(s.UploadMimes) > 0 {
			contentType = s.UploadMimes[0]
		}

		url, err := h.pictures.Upload(r.Context(), sess.UserID, bytes.NewReader(data), int64(len(data)), contentType)
		if err != nil {
			return notify(b, err)
		}
		return b.UpdateProfile(r.Context(), sess.DisplayName, url)
	})
}

func (h *Account) Password(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "change password", func(b *board.Board, s view.Signals) error {
		return b.ChangePassword(r.Context(), s.Current, s.Next)
	})
}

func (h *Account) Email(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "change email", func(b *board.Board, s view.Signals) error {
		return b.ChangeEmail(r.Context(), s.Current, s.NewEmail)
	})
}

func (h *Account) SendVerification(w http.ResponseWriter, r *http.Request) {
	h.do(w, r, "send verification", func(b *board.Board) error {
		return b.SendVerification(r.Context())
	})
}

// Delete removes the account and every message of its user.
func (h *Account) Delete(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "delete account", func(b *board.Board, s view.Signals) error {
		n, err := b.DeleteAccount(r.Context(), s.Current)
		if err != nil {
			return err
		}
		h.clearSessionCookie(w)
		h.logger.Info("Account handler: account deleted",
			"tab_id", b.ID(),
			"messages", n)
		return nil
	})
}

func (h *Account) setSessionCookie(w http.ResponseWriter, b *board.Board) {
	sess, ok := b.Session.Current()
	if !ok {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  time.Now().Add(model.SessionTTL),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Account) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

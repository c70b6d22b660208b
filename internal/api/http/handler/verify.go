package handler

import (
	"context"
	"net/http"

	"github.com/dtroode/noteboard/internal/api/http/view"
	"github.com/dtroode/noteboard/internal/board"
	"github.com/dtroode/noteboard/internal/logger"
	"github.com/dtroode/noteboard/internal/model"
)

// Verifier confirms email addresses from verification links.
type Verifier interface {
	Verify(ctx context.Context, token string) (model.Identity, error)
}

// Verification serves the link sent in verification mails.
type Verification struct {
	verifier Verifier
	tmpl     *view.Templates
	logger   *logger.Logger
}

// NewVerification creates a new Verification handler.
func NewVerification(verifier Verifier, tmpl *view.Templates, logger *logger.Logger) *Verification {
	return &Verification{verifier: verifier, tmpl: tmpl, logger: logger}
}

func (h *Verification) Verify(w http.ResponseWriter, r *http.Request) {
	page := view.Verification{}
	status := http.StatusOK

	identity, err := h.verifier.Verify(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		status = statusFor(err)
		page.Error = board.NoticeText(err)
		h.logger.Debug("Verification handler: verification failed",
			"error", err.Error())
	} else {
		page.Verified = true
		page.Email = identity.Email
		h.logger.Info("Verification handler: email verified",
			"user_id", identity.UserID)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.tmpl.Verification(w, page); err != nil {
		h.logger.Error("Verification handler: failed to render page",
			"error", err.Error())
	}
}

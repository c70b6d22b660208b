package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dtroode/noteboard/internal/model"
)

// SessionCookie is the cookie holding the session token.
const SessionCookie = "noteboard_session"

// Session copies the session cookie into the request context.
type Session struct {
	contextManager model.ContextManager
}

// NewSession creates a new Session middleware instance.
func NewSession(contextManager model.ContextManager) *Session {
	return &Session{contextManager: contextManager}
}

func (m *Session) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
			r = r.WithContext(m.contextManager.SetSessionToken(r.Context(), c.Value))
		}
		next.ServeHTTP(w, r)
	})
}

// Tab resolves the page id from the {tab} route parameter.
type Tab struct {
	contextManager model.ContextManager
}

// NewTab creates a new Tab middleware instance.
func NewTab(contextManager model.ContextManager) *Tab {
	return &Tab{contextManager: contextManager}
}

func (m *Tab) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tabID, err := uuid.Parse(chi.URLParam(r, "tab"))
		if err != nil {
			http.Error(w, "invalid page id", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r.WithContext(m.contextManager.SetTabID(r.Context(), tabID.String())))
	})
}

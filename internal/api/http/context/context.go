package context

import (
	"context"
)

type contextKey int

const (
	sessionTokenKey contextKey = iota
	tabIDKey
)

// Manager stores per-request values in the request context.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetSessionToken returns a context carrying the session token of the request.
func (m *Manager) SetSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionTokenKey, token)
}

// GetSessionToken returns the session token, if the request carried a non-empty one.
func (m *Manager) GetSessionToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(sessionTokenKey).(string)
	return token, ok && token != ""
}

// SetTabID returns a context carrying the page id the request belongs to.
func (m *Manager) SetTabID(ctx context.Context, tabID string) context.Context {
	return context.WithValue(ctx, tabIDKey, tabID)
}

func (m *Manager) GetTabID(ctx context.Context) (string, bool) {
	tabID, ok := ctx.Value(tabIDKey).(string)
	return tabID, ok && tabID != ""
}

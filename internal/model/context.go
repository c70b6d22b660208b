package model

import "context"

// ContextManager carries per-request values from middleware to handlers.
type ContextManager interface {
	SetSessionToken(ctx context.Context, token string) context.Context
	GetSessionToken(ctx context.Context) (string, bool)
	SetTabID(ctx context.Context, tabID string) context.Context
	GetTabID(ctx context.Context) (string, bool)
}

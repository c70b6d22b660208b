package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/noteboard/internal/model"
)

var (
	_ model.AuthSessionStore  = (*SessionRepository)(nil)
	_ model.VerificationStore = (*VerificationRepository)(nil)
)

type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]model.AuthSession
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]model.AuthSession)}
}

func (r *SessionRepository) Create(_ context.Context, session model.AuthSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	now := time.Now()
	session.CreatedAt, session.UpdatedAt = now, now
	r.sessions[session.JTI] = session
	return nil
}

func (r *SessionRepository) GetByJTI(_ context.Context, jti string) (model.AuthSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[jti]
	if !ok {
		return model.AuthSession{}, model.ErrNotFound
	}
	return s, nil
}

func (r *SessionRepository) RevokeByJTI(_ context.Context, jti string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[jti]; ok && s.RevokedAt == nil {
		now := time.Now()
		s.RevokedAt, s.UpdatedAt = &now, now
		r.sessions[jti] = s
	}
	return nil
}

func (r *SessionRepository) RevokeAllByUser(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for jti, s := range r.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt, s.UpdatedAt = &now, now
			r.sessions[jti] = s
		}
	}
	return nil
}

type VerificationRepository struct {
	mu      sync.Mutex
	pending map[string]model.PendingVerification
}

func NewVerificationRepository() *VerificationRepository {
	return &VerificationRepository{pending: make(map[string]model.PendingVerification)}
}

func (r *VerificationRepository) Create(_ context.Context, pending model.PendingVerification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending[pending.JTI] = pending
	return nil
}

func (r *VerificationRepository) GetByJTI(_ context.Context, jti string) (model.PendingVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[jti]
	if !ok {
		return model.PendingVerification{}, model.ErrNotFound
	}
	return p, nil
}

func (r *VerificationRepository) Consume(_ context.Context, jti string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[jti]
	if !ok || p.Consumed {
		return model.ErrNotFound
	}
	p.Consumed = true
	r.pending[jti] = p
	return nil
}

// Package memory holds process-local account stores used for development and tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/noteboard/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]model.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]model.User)}
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (r *UserRepository) Create(_ context.Context, user model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(user.Email, uuid.Nil) {
		return model.User{}, model.ErrEmailInUse
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, id uuid.UUID, displayName, photoURL string) (model.User, error) {
	return r.update(id, func(u *model.User) error {
		u.DisplayName = displayName
		u.PhotoURL = photoURL
		return nil
	})
}

func (r *UserRepository) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash []byte) error {
	_, err := r.update(id, func(u *model.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
	return err
}

func (r *UserRepository) UpdateEmail(_ context.Context, id uuid.UUID, email string) (model.User, error) {
	return r.update(id, func(u *model.User) error {
		if r.emailTaken(email, id) {
			return model.ErrEmailInUse
		}
		u.Email = email
		u.Verified = false
		return nil
	})
}

func (r *UserRepository) MarkVerified(_ context.Context, id uuid.UUID, email string) (model.User, error) {
	return r.update(id, func(u *model.User) error {
		if !strings.EqualFold(u.Email, email) {
			return model.ErrNotFound
		}
		u.Verified = true
		return nil
	})
}

func (r *UserRepository) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.update(id, func(u *model.User) error {
		u.LastLoginAt = &at
		return nil
	})
	return err
}

func (r *UserRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepository) update(id uuid.UUID, fn func(u *model.User) error) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	if err := fn(&u); err != nil {
		return model.User{}, err
	}
	u.UpdatedAt = time.Now()
	r.users[id] = u
	return u, nil
}

// emailTaken must be called with mu held.
func (r *UserRepository) emailTaken(email string, except uuid.UUID) bool {
	for id, u := range r.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

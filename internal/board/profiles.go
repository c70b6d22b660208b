package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dtroode/noteboard/internal/model"
)

// DefaultName is shown for authors without a cached display name.
const DefaultName = "No name"

// ErrAlreadySubscribed is returned when a cache is subscribed a second time.
var ErrAlreadySubscribed = errors.New("live query already subscribed")

// ProfileField selects the profile attribute returned by Lookup.
type ProfileField int

const (
	FieldName ProfileField = iota
	FieldPicture
)

// ProfileCache mirrors the profiles collection. Apply is only called from the
// board loop; Lookup may be called from any goroutine.
type ProfileCache struct {
	docs        model.DocumentStore
	placeholder string

	subscribed atomic.Bool

	mu       sync.RWMutex
	profiles map[string]model.Profile
	synced   bool
}

func NewProfileCache(docs model.DocumentStore, placeholder string) *ProfileCache {
	return &ProfileCache{
		docs:        docs,
		placeholder: placeholder,
		profiles:    make(map[string]model.Profile),
	}
}

// Subscribe opens the live query over all profiles. The first batch is the
// full snapshot.
func (c *ProfileCache) Subscribe(ctx context.Context) (<-chan model.Batch[model.Profile], error) {
	if !c.subscribed.CompareAndSwap(false, true) {
		return nil, ErrAlreadySubscribed
	}

	ch, err := c.docs.WatchProfiles(ctx)
	if err != nil {
		c.subscribed.Store(false)
		return nil, fmt.Errorf("failed to watch profiles: %w", err)
	}
	return ch, nil
}

// Apply updates the map with every change of batch, in delivery order, and
// returns the changes for the renderer.
func (c *ProfileCache) Apply(batch model.Batch[model.Profile]) []model.Change[model.Profile] {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ch := range batch.Changes {
		switch ch.Kind {
		case model.ChangeRemoved:
			delete(c.profiles, ch.ID)
		default:
			c.profiles[ch.ID] = ch.Doc
		}
	}
	if batch.Initial {
		c.synced = true
	}
	return batch.Changes
}

// Lookup returns field of the profile of userID, or its default when the
// profile is unknown or the field is empty.
func (c *ProfileCache) Lookup(userID string, field ProfileField) string {
	c.mu.RLock()
	p, ok := c.profiles[userID]
	c.mu.RUnlock()

	switch field {
	case FieldPicture:
		if !ok || p.PictureURL == "" {
			return c.placeholder
		}
		return p.PictureURL
	default:
		if !ok || p.DisplayName == "" {
			return DefaultName
		}
		return p.DisplayName
	}
}

// Name is Lookup(userID, FieldName).
func (c *ProfileCache) Name(userID string) string {
	return c.Lookup(userID, FieldName)
}

// Picture is Lookup(userID, FieldPicture).
func (c *ProfileCache) Picture(userID string) string {
	return c.Lookup(userID, FieldPicture)
}

// Synced reports whether the first snapshot was applied.
func (c *ProfileCache) Synced() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.synced
}

func (c *ProfileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.profiles)
}

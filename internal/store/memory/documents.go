// Package memory implements the document store in process memory, including
// live queries with snapshot-then-diff delivery.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dtroode/noteboard/internal/logger"
	"github.com/dtroode/noteboard/internal/model"
)

var _ model.DocumentStore = (*DocumentStore)(nil)

type messageWatch struct {
	feed   *feed[model.Message]
	limit  int
	window []string
	sent   map[string]model.Message
}

type DocumentStore struct {
	mu       sync.Mutex
	profiles map[string]model.Profile
	messages map[string]model.Message

	profileWatches map[int]*feed[model.Profile]
	messageWatches map[int]*messageWatch
	nextWatch      int

	now    func() time.Time
	logger *logger.Logger
}

func NewDocumentStore(logger *logger.Logger) *DocumentStore {
	return &DocumentStore{
		profiles:       make(map[string]model.Profile),
		messages:       make(map[string]model.Message),
		profileWatches: make(map[int]*feed[model.Profile]),
		messageWatches: make(map[int]*messageWatch),
		now:            time.Now,
		logger:         logger,
	}
}

func (s *DocumentStore) GetProfile(_ context.Context, userID string) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return model.Profile{}, model.ErrProfileMissing
	}
	return p, nil
}

// PutProfile creates or replaces the profile document of profile.UserID.
func (s *DocumentStore) PutProfile(_ context.Context, profile model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, existed := s.profiles[profile.UserID]
	if existed && old == profile {
		return nil
	}
	s.profiles[profile.UserID] = profile

	kind := model.ChangeAdded
	if existed {
		kind = model.ChangeModified
	}
	batch := model.Batch[model.Profile]{
		Changes: []model.Change[model.Profile]{{Kind: kind, ID: profile.UserID, Doc: profile}},
	}
	for _, f := range s.profileWatches {
		f.push(batch)
	}
	return nil
}

// RemoveProfile deletes a profile document. It is not part of the board's
// write path; operators and tests use it to exercise removal notifications.
func (s *DocumentStore) RemoveProfile(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return model.ErrProfileMissing
	}
	delete(s.profiles, userID)

	batch := model.Batch[model.Profile]{
		Changes: []model.Change[model.Profile]{{Kind: model.ChangeRemoved, ID: userID, Doc: p}},
	}
	for _, f := range s.profileWatches {
		f.push(batch)
	}
	return nil
}

func (s *DocumentStore) WatchProfiles(ctx context.Context) (<-chan model.Batch[model.Profile], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	snapshot := model.Batch[model.Profile]{Initial: true, Changes: make([]model.Change[model.Profile], 0, len(ids))}
	for _, id := range ids {
		snapshot.Changes = append(snapshot.Changes, model.Change[model.Profile]{Kind: model.ChangeAdded, ID: id, Doc: s.profiles[id]})
	}

	f := newFeed[model.Profile]()
	f.push(snapshot)

	key := s.nextWatch
	s.nextWatch++
	s.profileWatches[key] = f

	go f.run(ctx, func() {
		s.mu.Lock()
		delete(s.profileWatches, key)
		s.mu.Unlock()
	})

	s.logger.Debug("Document store: profile watch started",
		"profiles", len(ids))

	return f.out, nil
}

func (s *DocumentStore) CreateMessage(_ context.Context, draft model.MessageDraft) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := model.Message{
		ID:         ulid.Make().String(),
		AuthorID:   draft.AuthorID,
		AuthorName: draft.AuthorName,
		Text:       draft.Text,
		Color:      draft.Color,
		CreatedAt:  s.now(),
		LikedBy:    []string{},
	}
	s.messages[msg.ID] = msg
	s.publishMessages()

	return cloneMessage(msg), nil
}

func (s *DocumentStore) GetMessage(_ context.Context, id string) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return model.Message{}, model.ErrMessageMissing
	}
	return cloneMessage(m), nil
}

func (s *DocumentStore) UpdateMessage(_ context.Context, id string, text string, color model.Color) error {
	return s.mutate(id, func(m *model.Message) error {
		m.Text = text
		m.Color = color
		return nil
	})
}

func (s *DocumentStore) DeleteMessage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return model.ErrMessageMissing
	}
	delete(s.messages, id)
	s.publishMessages()
	return nil
}

// DeleteMessagesByAuthor removes every message of authorID in one step.
func (s *DocumentStore) DeleteMessagesByAuthor(_ context.Context, authorID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, m := range s.messages {
		if m.AuthorID == authorID {
			delete(s.messages, id)
			n++
		}
	}
	if n > 0 {
		s.publishMessages()
	}
	return n, nil
}

func (s *DocumentStore) LikeMessage(_ context.Context, id, userID string) error {
	return s.mutate(id, func(m *model.Message) error {
		if slices.Contains(m.LikedBy, userID) {
			return model.ErrAlreadyLiked
		}
		m.LikedBy = append(slices.Clone(m.LikedBy), userID)
		m.Likes++
		return nil
	})
}

func (s *DocumentStore) UnlikeMessage(_ context.Context, id, userID string) error {
	return s.mutate(id, func(m *model.Message) error {
		i := slices.Index(m.LikedBy, userID)
		if i < 0 {
			return model.ErrNotLiked
		}
		m.LikedBy = slices.Delete(slices.Clone(m.LikedBy), i, i+1)
		m.Likes--
		return nil
	})
}

func (s *DocumentStore) WatchMessages(ctx context.Context, limit int) (<-chan model.Batch[model.Message], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := &messageWatch{
		feed:  newFeed[model.Message](),
		limit: limit,
		sent:  make(map[string]model.Message),
	}
	w.window = s.window(limit)

	snapshot := model.Batch[model.Message]{Initial: true, Changes: make([]model.Change[model.Message], 0, len(w.window))}
	for _, id := range w.window {
		m := cloneMessage(s.messages[id])
		w.sent[id] = m
		snapshot.Changes = append(snapshot.Changes, model.Change[model.Message]{Kind: model.ChangeAdded, ID: id, Doc: m})
	}
	w.feed.push(snapshot)

	key := s.nextWatch
	s.nextWatch++
	s.messageWatches[key] = w

	go w.feed.run(ctx, func() {
		s.mu.Lock()
		delete(s.messageWatches, key)
		s.mu.Unlock()
	})

	s.logger.Debug("Document store: message watch started",
		"limit", limit,
		"messages", len(w.window))

	return w.feed.out, nil
}

func (s *DocumentStore) mutate(id string, fn func(m *model.Message) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return model.ErrMessageMissing
	}
	if err := fn(&m); err != nil {
		return err
	}
	s.messages[id] = m
	s.publishMessages()
	return nil
}

// window returns the ids of the newest limit messages, newest first.
// Must be called with mu held.
func (s *DocumentStore) window(limit int) []string {
	ids := make([]string, 0, len(s.messages))
	for id := range s.messages {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		ma, mb := s.messages[a], s.messages[b]
		if c := mb.CreatedAt.Compare(ma.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b, a)
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

// publishMessages diffs every message watch against the current state.
// Must be called with mu held.
func (s *DocumentStore) publishMessages() {
	for _, w := range s.messageWatches {
		next := s.window(w.limit)
		inNext := make(map[string]bool, len(next))
		for _, id := range next {
			inNext[id] = true
		}

		var changes []model.Change[model.Message]
		for _, id := range w.window {
			if !inNext[id] {
				changes = append(changes, model.Change[model.Message]{Kind: model.ChangeRemoved, ID: id, Doc: w.sent[id]})
				delete(w.sent, id)
			}
		}
		// oldest first, so that prepending each one keeps the list newest-first
		for i := len(next) - 1; i >= 0; i-- {
			id := next[i]
			cur := s.messages[id]
			prev, seen := w.sent[id]
			switch {
			case !seen:
				changes = append(changes, model.Change[model.Message]{Kind: model.ChangeAdded, ID: id, Doc: cloneMessage(cur)})
			case !sameMessage(prev, cur):
				changes = append(changes, model.Change[model.Message]{Kind: model.ChangeModified, ID: id, Doc: cloneMessage(cur)})
			default:
				continue
			}
			w.sent[id] = cloneMessage(cur)
		}

		w.window = next
		if len(changes) > 0 {
			w.feed.push(model.Batch[model.Message]{Changes: changes})
		}
	}
}

func sameMessage(a, b model.Message) bool {
	return a.Text == b.Text &&
		a.Color == b.Color &&
		a.AuthorName == b.AuthorName &&
		a.Likes == b.Likes &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		slices.Equal(a.LikedBy, b.LikedBy)
}

func cloneMessage(m model.Message) model.Message {
	m.LikedBy = slices.Clone(m.LikedBy)
	if m.LikedBy == nil {
		m.LikedBy = []string{}
	}
	return m
}

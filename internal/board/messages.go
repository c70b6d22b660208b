package board

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/dtroode/noteboard/internal/model"
)

// Viewer is the signed-in identity as seen by the message store.
type Viewer interface {
	Current() (model.Session, bool)
	CurrentUserID() string
}

// Position tells the renderer where an added card goes.
type Position int

const (
	AtEnd Position = iota
	AtFront
)

// Placed is a message change together with its placement.
type Placed struct {
	Kind     model.ChangeKind
	Message  model.Message
	Position Position
}

// MessageStore mirrors the newest messages and writes through to the
// document store. The cache is changed only by Apply; writes wait for the
// live query to deliver their effect.
type MessageStore struct {
	docs   model.DocumentStore
	viewer Viewer

	subscribed atomic.Bool

	mu       sync.RWMutex
	messages map[string]model.Message
	order    []string
	synced   bool
}

func NewMessageStore(docs model.DocumentStore, viewer Viewer) *MessageStore {
	return &MessageStore{
		docs:     docs,
		viewer:   viewer,
		messages: make(map[string]model.Message),
	}
}

// Subscribe opens the live query over the newest limit messages.
func (s *MessageStore) Subscribe(ctx context.Context, limit int) (<-chan model.Batch[model.Message], error) {
	if !s.subscribed.CompareAndSwap(false, true) {
		return nil, ErrAlreadySubscribed
	}

	ch, err := s.docs.WatchMessages(ctx, limit)
	if err != nil {
		s.subscribed.Store(false)
		return nil, fmt.Errorf("failed to watch messages: %w", err)
	}
	return ch, nil
}

// Apply updates the cache with the changes of batch in delivery order.
// Snapshot adds keep the newest-first order of the query and go to the end;
// later adds are newer than everything shown and go to the front.
func (s *MessageStore) Apply(batch model.Batch[model.Message]) []Placed {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := AtFront
	if batch.Initial {
		pos = AtEnd
	}

	placed := make([]Placed, 0, len(batch.Changes))
	for _, ch := range batch.Changes {
		msg := ch.Doc
		msg.ID = ch.ID

		switch ch.Kind {
		case model.ChangeRemoved:
			if _, ok := s.messages[ch.ID]; !ok {
				continue
			}
			delete(s.messages, ch.ID)
			s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == ch.ID })
			placed = append(placed, Placed{Kind: model.ChangeRemoved, Message: msg})

		case model.ChangeModified:
			if _, ok := s.messages[ch.ID]; !ok {
				s.insert(msg, pos)
				placed = append(placed, Placed{Kind: model.ChangeAdded, Message: msg, Position: pos})
				continue
			}
			s.messages[ch.ID] = msg
			placed = append(placed, Placed{Kind: model.ChangeModified, Message: msg})

		default:
			if _, ok := s.messages[ch.ID]; ok {
				s.messages[ch.ID] = msg
				placed = append(placed, Placed{Kind: model.ChangeModified, Message: msg})
				continue
			}
			s.insert(msg, pos)
			placed = append(placed, Placed{Kind: model.ChangeAdded, Message: msg, Position: pos})
		}
	}

	if batch.Initial {
		s.synced = true
	}
	return placed
}

// insert must be called with mu held.
func (s *MessageStore) insert(msg model.Message, pos Position) {
	s.messages[msg.ID] = msg
	if pos == AtFront {
		s.order = slices.Insert(s.order, 0, msg.ID)
		return
	}
	s.order = append(s.order, msg.ID)
}

func (s *MessageStore) Get(id string) (model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	return m, ok
}

// Messages returns the cached messages in display order.
func (s *MessageStore) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Message, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.messages[id])
	}
	return out
}

func (s *MessageStore) Synced() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.synced
}

// Create posts a new message as the signed-in user.
func (s *MessageStore) Create(ctx context.Context, text string, color model.Color) (model.Message, error) {
	sess, ok := s.viewer.Current()
	if !ok {
		return model.Message{}, model.ErrNotAuthenticated
	}

	text, err := ValidateText(text)
	if err != nil {
		return model.Message{}, err
	}
	if !color.Valid() {
		return model.Message{}, model.ErrInvalidColor
	}

	msg, err := s.docs.CreateMessage(ctx, model.MessageDraft{
		AuthorID:   sess.UserID,
		AuthorName: AuthorName(sess),
		Text:       text,
		Color:      color,
	})
	if err != nil {
		return model.Message{}, fmt.Errorf("failed to create message: %w", err)
	}
	return msg, nil
}

// Edit replaces text and color of a message of the signed-in user.
func (s *MessageStore) Edit(ctx context.Context, id, text string, color model.Color) error {
	if err := s.checkOwner(id); err != nil {
		return err
	}

	text, err := ValidateText(text)
	if err != nil {
		return err
	}
	if !color.Valid() {
		return model.ErrInvalidColor
	}

	return s.docs.UpdateMessage(ctx, id, text, color)
}

func (s *MessageStore) Delete(ctx context.Context, id string) error {
	if err := s.checkOwner(id); err != nil {
		return err
	}
	return s.docs.DeleteMessage(ctx, id)
}

func (s *MessageStore) Like(ctx context.Context, id string) error {
	uid := s.viewer.CurrentUserID()
	if uid == "" {
		return model.ErrNotAuthenticated
	}

	msg, ok := s.Get(id)
	if !ok {
		return model.ErrMessageMissing
	}
	if msg.IsLikedBy(uid) {
		return model.ErrAlreadyLiked
	}

	return s.docs.LikeMessage(ctx, id, uid)
}

func (s *MessageStore) Unlike(ctx context.Context, id string) error {
	uid := s.viewer.CurrentUserID()
	if uid == "" {
		return model.ErrNotAuthenticated
	}

	msg, ok := s.Get(id)
	if !ok {
		return model.ErrMessageMissing
	}
	if !msg.IsLikedBy(uid) {
		return model.ErrNotLiked
	}

	return s.docs.UnlikeMessage(ctx, id, uid)
}

// DeleteAllByAuthor removes every message of authorID, including those
// outside the cached window.
func (s *MessageStore) DeleteAllByAuthor(ctx context.Context, authorID string) (int, error) {
	return s.docs.DeleteMessagesByAuthor(ctx, authorID)
}

// DeleteMessagesByAuthor lets the store act as the session's MessagePurger.
func (s *MessageStore) DeleteMessagesByAuthor(ctx context.Context, authorID string) (int, error) {
	return s.DeleteAllByAuthor(ctx, authorID)
}

func (s *MessageStore) checkOwner(id string) error {
	msg, ok := s.Get(id)
	if !ok {
		return model.ErrMessageMissing
	}
	if uid := s.viewer.CurrentUserID(); uid == "" || msg.AuthorID != uid {
		return model.ErrNotOwner
	}
	return nil
}

// ValidateText trims text and checks its length in characters.
func ValidateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	switch {
	case n < model.MinMessageLength:
		return "", model.ErrTextTooShort
	case n > model.MaxMessageLength:
		return "", model.ErrTextTooLong
	}
	return text, nil
}

// AuthorName is the name snapshot stored with new messages.
func AuthorName(sess model.Session) string {
	return firstNonEmpty(sess.DisplayName, sess.Email)
}

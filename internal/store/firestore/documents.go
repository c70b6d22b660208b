// Package firestore implements the document store on Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/noteboard/internal/logger"
	"github.com/dtroode/noteboard/internal/model"
)

var _ model.DocumentStore = (*DocumentStore)(nil)

// Field names of the persisted documents.
const (
	fieldDate     = "date"
	fieldMessage  = "message"
	fieldAuthorID = "authorid"
	fieldColor    = "color"
	fieldLikes    = "likes"
	fieldLikers   = "likers"
)

type profileDoc struct {
	UserID   string `firestore:"userid"`
	Username string `firestore:"username"`
	Picture  string `firestore:"picture"`
}

type messageDoc struct {
	Date       time.Time `firestore:"date,serverTimestamp"`
	Message    string    `firestore:"message"`
	AuthorName string    `firestore:"authorname"`
	AuthorID   string    `firestore:"authorid"`
	Color      string    `firestore:"color"`
	Likes      int       `firestore:"likes"`
	Likers     []string  `firestore:"likers"`
}

// Collections names the two collections the store works on.
type Collections struct {
	Profiles string
	Messages string
}

type DocumentStore struct {
	client   *firestore.Client
	profiles *firestore.CollectionRef
	messages *firestore.CollectionRef
	logger   *logger.Logger
}

func NewDocumentStore(client *firestore.Client, collections Collections, logger *logger.Logger) *DocumentStore {
	return &DocumentStore{
		client:   client,
		profiles: client.Collection(collections.Profiles),
		messages: client.Collection(collections.Messages),
		logger:   logger,
	}
}

func (s *DocumentStore) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	snap, err := s.profiles.Doc(userID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return model.Profile{}, model.ErrProfileMissing
		}
		return model.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}

	p, err := decodeProfile(snap)
	if err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

func (s *DocumentStore) PutProfile(ctx context.Context, profile model.Profile) error {
	_, err := s.profiles.Doc(profile.UserID).Set(ctx, profileDoc{
		UserID:   profile.UserID,
		Username: profile.DisplayName,
		Picture:  profile.PictureURL,
	})
	if err != nil {
		return fmt.Errorf("failed to put profile: %w", err)
	}
	return nil
}

func (s *DocumentStore) WatchProfiles(ctx context.Context) (<-chan model.Batch[model.Profile], error) {
	it := s.profiles.Snapshots(ctx)
	out := make(chan model.Batch[model.Profile])

	go pump(ctx, s.logger.With("collection", s.profiles.ID), it, out, decodeProfile)

	return out, nil
}

func (s *DocumentStore) CreateMessage(ctx context.Context, draft model.MessageDraft) (model.Message, error) {
	ref, _, err := s.messages.Add(ctx, messageDoc{
		Message:    draft.Text,
		AuthorName: draft.AuthorName,
		AuthorID:   draft.AuthorID,
		Color:      string(draft.Color),
		Likes:      0,
		Likers:     []string{},
	})
	if err != nil {
		return model.Message{}, fmt.Errorf("failed to create message: %w", err)
	}

	return s.GetMessage(ctx, ref.ID)
}

func (s *DocumentStore) GetMessage(ctx context.Context, id string) (model.Message, error) {
	snap, err := s.messages.Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return model.Message{}, model.ErrMessageMissing
		}
		return model.Message{}, fmt.Errorf("failed to get message: %w", err)
	}
	return decodeMessage(snap)
}

func (s *DocumentStore) UpdateMessage(ctx context.Context, id string, text string, color model.Color) error {
	_, err := s.messages.Doc(id).Update(ctx, []firestore.Update{
		{Path: fieldMessage, Value: text},
		{Path: fieldColor, Value: string(color)},
	})
	if err != nil {
		if isNotFound(err) {
			return model.ErrMessageMissing
		}
		return fmt.Errorf("failed to update message: %w", err)
	}
	return nil
}

func (s *DocumentStore) DeleteMessage(ctx context.Context, id string) error {
	_, err := s.messages.Doc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		if isNotFound(err) {
			return model.ErrMessageMissing
		}
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// DeleteMessagesByAuthor deletes all messages of authorID in one transaction.
func (s *DocumentStore) DeleteMessagesByAuthor(ctx context.Context, authorID string) (int, error) {
	var deleted int
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snaps, err := tx.Documents(s.messages.Where(fieldAuthorID, "==", authorID)).GetAll()
		if err != nil {
			return err
		}
		for _, snap := range snaps {
			if err := tx.Delete(snap.Ref); err != nil {
				return err
			}
		}
		deleted = len(snaps)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages by author: %w", err)
	}

	s.logger.Info("Document store: deleted messages of author",
		"author_id", authorID,
		"count", deleted)

	return deleted, nil
}

func (s *DocumentStore) LikeMessage(ctx context.Context, id, userID string) error {
	return s.toggleLike(ctx, id, userID, true)
}

func (s *DocumentStore) UnlikeMessage(ctx context.Context, id, userID string) error {
	return s.toggleLike(ctx, id, userID, false)
}

// toggleLike keeps likes equal to len(likers) by changing both in one transaction.
func (s *DocumentStore) toggleLike(ctx context.Context, id, userID string, like bool) error {
	ref := s.messages.Doc(id)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return model.ErrMessageMissing
			}
			return err
		}

		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return err
		}

		liked := slices.Contains(doc.Likers, userID)
		switch {
		case like && liked:
			return model.ErrAlreadyLiked
		case !like && !liked:
			return model.ErrNotLiked
		}

		if like {
			return tx.Update(ref, []firestore.Update{
				{Path: fieldLikes, Value: firestore.Increment(1)},
				{Path: fieldLikers, Value: firestore.ArrayUnion(userID)},
			})
		}
		return tx.Update(ref, []firestore.Update{
			{Path: fieldLikes, Value: firestore.Increment(-1)},
			{Path: fieldLikers, Value: firestore.ArrayRemove(userID)},
		})
	})
	if err != nil {
		if isDomainError(err) {
			return err
		}
		return fmt.Errorf("failed to toggle like: %w", err)
	}
	return nil
}

func (s *DocumentStore) WatchMessages(ctx context.Context, limit int) (<-chan model.Batch[model.Message], error) {
	query := s.messages.OrderBy(fieldDate, firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	it := query.Snapshots(ctx)
	out := make(chan model.Batch[model.Message])

	go pump(ctx, s.logger.With("collection", s.messages.ID, "limit", limit), it, out, decodeMessage)

	return out, nil
}

// pump forwards snapshot iterator results to out until ctx is done or the
// listener fails. A failure is delivered as the last batch.
func pump[T any](
	ctx context.Context,
	log *logger.Logger,
	it *firestore.QuerySnapshotIterator,
	out chan<- model.Batch[T],
	decode func(*firestore.DocumentSnapshot) (T, error),
) {
	defer close(out)
	defer it.Stop()

	initial := true
	for {
		qs, err := it.Next()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
				return
			}
			log.Error("Document store: live query failed",
				"error", err.Error())
			send(ctx, out, model.Batch[T]{Err: fmt.Errorf("live query failed: %w", err)})
			return
		}

		batch := model.Batch[T]{Initial: initial, Changes: make([]model.Change[T], 0, len(qs.Changes))}
		initial = false

		for _, ch := range qs.Changes {
			doc, err := decode(ch.Doc)
			if err != nil {
				log.Warn("Document store: skipping undecodable document",
					"id", ch.Doc.Ref.ID,
					"error", err.Error())
				continue
			}
			batch.Changes = append(batch.Changes, model.Change[T]{Kind: changeKind(ch.Kind), ID: ch.Doc.Ref.ID, Doc: doc})
		}

		if !batch.Initial {
			if len(batch.Changes) == 0 {
				continue
			}
			reverseAdds(batch.Changes)
		}
		if !send(ctx, out, batch) {
			return
		}
	}
}

// reverseAdds flips the relative order of the added changes in place.
// Listeners see later adds in query order, newest first, while consumers
// prepend each add as it comes, so they need the oldest one first.
func reverseAdds[T any](changes []model.Change[T]) {
	var slots []int
	for i, ch := range changes {
		if ch.Kind == model.ChangeAdded {
			slots = append(slots, i)
		}
	}
	for i, j := 0, len(slots)-1; i < j; i, j = i+1, j-1 {
		changes[slots[i]], changes[slots[j]] = changes[slots[j]], changes[slots[i]]
	}
}

func send[T any](ctx context.Context, out chan<- model.Batch[T], b model.Batch[T]) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- b:
		return true
	}
}

func changeKind(k firestore.DocumentChangeKind) model.ChangeKind {
	switch k {
	case firestore.DocumentRemoved:
		return model.ChangeRemoved
	case firestore.DocumentModified:
		return model.ChangeModified
	default:
		return model.ChangeAdded
	}
}

func decodeProfile(snap *firestore.DocumentSnapshot) (model.Profile, error) {
	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return model.Profile{}, fmt.Errorf("failed to decode profile %s: %w", snap.Ref.ID, err)
	}
	return profileFromDoc(snap.Ref.ID, doc), nil
}

func profileFromDoc(id string, doc profileDoc) model.Profile {
	userID := doc.UserID
	if userID == "" {
		userID = id
	}
	return model.Profile{
		UserID:      userID,
		DisplayName: doc.Username,
		PictureURL:  doc.Picture,
	}
}

func decodeMessage(snap *firestore.DocumentSnapshot) (model.Message, error) {
	var doc messageDoc
	if err := snap.DataTo(&doc); err != nil {
		return model.Message{}, fmt.Errorf("failed to decode message %s: %w", snap.Ref.ID, err)
	}
	return messageFromDoc(snap.Ref.ID, doc), nil
}

func messageFromDoc(id string, doc messageDoc) model.Message {
	likers := doc.Likers
	if likers == nil {
		likers = []string{}
	}
	return model.Message{
		ID:         id,
		AuthorID:   doc.AuthorID,
		AuthorName: doc.AuthorName,
		Text:       doc.Message,
		Color:      model.Color(doc.Color),
		CreatedAt:  doc.Date,
		Likes:      doc.Likes,
		LikedBy:    likers,
	}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isDomainError(err error) bool {
	return errors.Is(err, model.ErrMessageMissing) ||
		errors.Is(err, model.ErrAlreadyLiked) ||
		errors.Is(err, model.ErrNotLiked)
}

package model

import (
	"context"
	"slices"
	"time"
)

// Message text bounds, counted in characters after trimming.
const (
	MinMessageLength = 3
	MaxMessageLength = 5000
)

// Profile is the public profile document of a user.
type Profile struct {
	UserID      string
	DisplayName string
	PictureURL  string
}

// Color is the background color of a message card.
type Color string

const (
	ColorNone   Color = ""
	ColorGreen  Color = "lightgreen"
	ColorYellow Color = "lightyellow"
	ColorBlue   Color = "lightblue"
	ColorPink   Color = "lightpink"
	ColorGray   Color = "lightgray"
)

// Palette lists the selectable colors in menu order.
var Palette = []Color{ColorGreen, ColorYellow, ColorBlue, ColorPink, ColorGray}

var colorLabels = map[Color]string{
	ColorNone:   "None",
	ColorGreen:  "Green",
	ColorYellow: "Yellow",
	ColorBlue:   "Blue",
	ColorPink:   "Pink",
	ColorGray:   "Gray",
}

// Valid reports whether c is part of the palette or ColorNone.
func (c Color) Valid() bool {
	return c == ColorNone || slices.Contains(Palette, c)
}

// Label is the human readable name of c.
func (c Color) Label() string {
	return colorLabels[c]
}

// Message is a note posted to the board.
type Message struct {
	ID         string
	AuthorID   string
	AuthorName string
	Text       string
	Color      Color
	CreatedAt  time.Time
	Likes      int
	LikedBy    []string
}

// IsLikedBy reports whether userID is among the likers.
func (m Message) IsLikedBy(userID string) bool {
	return userID != "" && slices.Contains(m.LikedBy, userID)
}

// MessageDraft carries the fields of a message to be created. The backend assigns
// the ID and the timestamp.
type MessageDraft struct {
	AuthorID   string
	AuthorName string
	Text       string
	Color      Color
}

// ChangeKind tags a change record.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// Change is one unit of a live query delivery.
type Change[T any] struct {
	Kind ChangeKind
	ID   string
	Doc  T
}

// Batch is one delivery of a live query. The first batch of a subscription is the
// snapshot and has Initial set. A batch with Err set is the last one; the channel is
// closed after it.
type Batch[T any] struct {
	Changes []Change[T]
	Initial bool
	Err     error
}

// DocumentStore is the document database collaborator holding the profiles and
// messages collections. Watch channels are closed when ctx is done.
type DocumentStore interface {
	GetProfile(ctx context.Context, userID string) (Profile, error)
	PutProfile(ctx context.Context, profile Profile) error
	WatchProfiles(ctx context.Context) (<-chan Batch[Profile], error)

	CreateMessage(ctx context.Context, draft MessageDraft) (Message, error)
	GetMessage(ctx context.Context, id string) (Message, error)
	UpdateMessage(ctx context.Context, id string, text string, color Color) error
	DeleteMessage(ctx context.Context, id string) error
	DeleteMessagesByAuthor(ctx context.Context, authorID string) (int, error)
	LikeMessage(ctx context.Context, id, userID string) error
	UnlikeMessage(ctx context.Context, id, userID string) error
	WatchMessages(ctx context.Context, limit int) (<-chan Batch[Message], error)
}

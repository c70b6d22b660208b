package board

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dtroode/noteboard/internal/model"
)

// CardState is the lifecycle state of a message card.
type CardState int

const (
	CardAbsent CardState = iota
	CardShown
	CardEditing
)

func (s CardState) String() string {
	switch s {
	case CardShown:
		return "shown"
	case CardEditing:
		return "editing"
	default:
		return "absent"
	}
}

// Card is the shadow model of one displayed message.
type Card struct {
	ID            string
	AuthorID      string
	AuthorName    string
	AuthorPicture string
	Text          string
	Color         model.Color
	Date          time.Time
	Likes         int
	Liked         bool
	Editable      bool
	State         CardState
	Draft         string
	DraftColor    model.Color
	LikePending   bool

	likers []string
}

// Notice is a dismissible error shown to the user.
type Notice struct {
	ID      string
	Kind    model.ErrorKind
	Text    string
	Expires time.Time
}

// ViewerState is what the page header shows about the signed-in user.
type ViewerState struct {
	SignedIn bool
	UserID   string
	Name     string
	Email    string
	Picture  string
	Verified bool
}

// View is the write-only render target of a board.
type View interface {
	PrependCard(card Card) error
	AppendCard(card Card) error
	// PatchCard replaces everything of the card except the open editor.
	PatchCard(card Card) error
	PatchAuthor(card Card) error
	PatchEditor(card Card) error
	RemoveCard(id string) error
	PatchViewer(viewer ViewerState) error
	ShowNotice(notice Notice) error
	RemoveNotice(id string) error
}

// ErrCardNotEditable is returned when an edit is started on a card the viewer
// does not own or that is not shown.
var ErrCardNotEditable = errors.New("card cannot be edited")

// Renderer reconciles cache changes into the view. It is owned by the board loop.
type Renderer struct {
	view      View
	profiles  *ProfileCache
	noticeTTL time.Duration
	now       func() time.Time

	cards   map[string]*Card
	viewer  ViewerState
	notices []Notice
	seq     int
}

func NewRenderer(view View, profiles *ProfileCache, noticeTTL time.Duration) *Renderer {
	return &Renderer{
		view:      view,
		profiles:  profiles,
		noticeTTL: noticeTTL,
		now:       time.Now,
		cards:     make(map[string]*Card),
	}
}

// Messages reconciles placed message changes, in order.
func (r *Renderer) Messages(placed []Placed) error {
	for _, p := range placed {
		if err := r.message(p); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) message(p Placed) error {
	id := p.Message.ID
	card, ok := r.cards[id]

	switch p.Kind {
	case model.ChangeRemoved:
		if !ok {
			return nil
		}
		delete(r.cards, id)
		return r.view.RemoveCard(id)

	case model.ChangeModified:
		if !ok {
			return r.add(p.Message, AtFront)
		}
		r.fill(card, p.Message)
		if card.State == CardEditing && !card.Editable {
			card.State = CardShown
			if err := r.view.PatchEditor(*card); err != nil {
				return err
			}
		}
		return r.view.PatchCard(*card)

	default:
		if ok {
			r.fill(card, p.Message)
			return r.view.PatchCard(*card)
		}
		return r.add(p.Message, p.Position)
	}
}

func (r *Renderer) add(msg model.Message, pos Position) error {
	card := &Card{ID: msg.ID, State: CardShown}
	r.fill(card, msg)
	r.cards[msg.ID] = card

	if pos == AtEnd {
		return r.view.AppendCard(*card)
	}
	return r.view.PrependCard(*card)
}

// fill copies the confirmed fields of msg. Draft and editor state stay as they are.
func (r *Renderer) fill(card *Card, msg model.Message) {
	card.AuthorID = msg.AuthorID
	card.AuthorName = r.profiles.Name(msg.AuthorID)
	card.AuthorPicture = r.profiles.Picture(msg.AuthorID)
	card.Text = msg.Text
	card.Color = msg.Color
	card.Date = msg.CreatedAt
	card.Likes = msg.Likes
	card.Liked = msg.IsLikedBy(r.viewer.UserID)
	card.Editable = r.viewer.SignedIn && msg.AuthorID == r.viewer.UserID
	card.likers = slices.Clone(msg.LikedBy)
}

// Profiles patches the author fields of every card of a changed profile.
func (r *Renderer) Profiles(changes []model.Change[model.Profile]) error {
	for _, ch := range changes {
		for _, card := range r.cards {
			if card.AuthorID != ch.ID {
				continue
			}
			name := r.profiles.Name(ch.ID)
			picture := r.profiles.Picture(ch.ID)
			if card.AuthorName == name && card.AuthorPicture == picture {
				continue
			}
			card.AuthorName = name
			card.AuthorPicture = picture
			if err := r.view.PatchAuthor(*card); err != nil {
				return err
			}
		}

		if r.viewer.SignedIn && ch.ID == r.viewer.UserID {
			r.viewer.Name = r.profiles.Name(ch.ID)
			r.viewer.Picture = r.profiles.Picture(ch.ID)
			if err := r.view.PatchViewer(r.viewer); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetViewer switches the signed-in user and re-derives edit buttons and like
// markers of every card. A nil session means signed out.
func (r *Renderer) SetViewer(sess *model.Session) error {
	r.viewer = ViewerState{}
	if sess != nil {
		r.viewer = ViewerState{
			SignedIn: true,
			UserID:   sess.UserID,
			Name:     firstNonEmpty(sess.DisplayName, r.profiles.Name(sess.UserID)),
			Email:    sess.Email,
			Picture:  firstNonEmpty(sess.PictureURL, r.profiles.Picture(sess.UserID)),
			Verified: sess.Verified,
		}
	}
	if err := r.view.PatchViewer(r.viewer); err != nil {
		return err
	}

	for _, card := range r.cards {
		editable := r.viewer.SignedIn && card.AuthorID == r.viewer.UserID
		liked := r.viewer.UserID != "" && slices.Contains(card.likers, r.viewer.UserID)
		if editable == card.Editable && liked == card.Liked {
			continue
		}
		card.Editable = editable
		card.Liked = liked
		if card.State == CardEditing && !editable {
			card.State = CardShown
			if err := r.view.PatchEditor(*card); err != nil {
				return err
			}
		}
		if err := r.view.PatchCard(*card); err != nil {
			return err
		}
	}
	return nil
}

// Viewer returns the header state.
func (r *Renderer) Viewer() ViewerState {
	return r.viewer
}

// StartEdit opens the editor of a card, seeded with its confirmed text.
func (r *Renderer) StartEdit(id string) error {
	card, ok := r.cards[id]
	if !ok {
		return model.ErrMessageMissing
	}
	if !card.Editable {
		return ErrCardNotEditable
	}
	if card.State == CardEditing {
		return nil
	}
	card.State = CardEditing
	card.Draft = card.Text
	card.DraftColor = card.Color
	return r.view.PatchEditor(*card)
}

// SetDraft records the unsaved editor content of a card. The view already
// shows it, so nothing is patched.
func (r *Renderer) SetDraft(id, text string, color model.Color) {
	card, ok := r.cards[id]
	if !ok || card.State != CardEditing {
		return
	}
	card.Draft = text
	card.DraftColor = color
}

// CloseEditor leaves the editing state, after a save or a cancel.
func (r *Renderer) CloseEditor(id string) error {
	card, ok := r.cards[id]
	if !ok || card.State != CardEditing {
		return nil
	}
	card.State = CardShown
	card.Draft = ""
	card.DraftColor = model.ColorNone
	return r.view.PatchEditor(*card)
}

// SetLikePending disables or re-enables the like button of a card. Counts and
// markers are untouched.
func (r *Renderer) SetLikePending(id string, pending bool) error {
	card, ok := r.cards[id]
	if !ok || card.LikePending == pending {
		return nil
	}
	card.LikePending = pending
	return r.view.PatchCard(*card)
}

// Card returns a copy of the shadow card.
func (r *Renderer) Card(id string) (Card, bool) {
	card, ok := r.cards[id]
	if !ok {
		return Card{}, false
	}
	return *card, true
}

// Notify shows err as a notice that expires after the notice TTL.
func (r *Renderer) Notify(err error) error {
	r.seq++
	n := Notice{
		ID:      fmt.Sprintf("notice-%d", r.seq),
		Kind:    model.KindOf(err),
		Text:    NoticeText(err),
		Expires: r.now().Add(r.noticeTTL),
	}
	r.notices = append(r.notices, n)
	return r.view.ShowNotice(n)
}

// Dismiss removes a notice before it expires.
func (r *Renderer) Dismiss(id string) error {
	i := slices.IndexFunc(r.notices, func(n Notice) bool { return n.ID == id })
	if i < 0 {
		return nil
	}
	r.notices = slices.Delete(r.notices, i, i+1)
	return r.view.RemoveNotice(id)
}

// ExpireNotices removes every notice expired at now.
func (r *Renderer) ExpireNotices(now time.Time) error {
	kept := r.notices[:0]
	var expired []string
	for _, n := range r.notices {
		if now.Before(n.Expires) {
			kept = append(kept, n)
			continue
		}
		expired = append(expired, n.ID)
	}
	r.notices = kept

	for _, id := range expired {
		if err := r.view.RemoveNotice(id); err != nil {
			return err
		}
	}
	return nil
}

// NextExpiry returns when the oldest notice expires.
func (r *Renderer) NextExpiry() (time.Time, bool) {
	if len(r.notices) == 0 {
		return time.Time{}, false
	}
	next := r.notices[0].Expires
	for _, n := range r.notices[1:] {
		if n.Expires.Before(next) {
			next = n.Expires
		}
	}
	return next, true
}

// Notices returns the visible notices.
func (r *Renderer) Notices() []Notice {
	return slices.Clone(r.notices)
}

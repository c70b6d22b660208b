package testutil

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dtroode/noteboard/internal/board"
)

type editor struct {
	open bool
	text string
}

// Recorder is a board.View that keeps the state a browser page would show.
type Recorder struct {
	mu      sync.Mutex
	order   []string
	cards   map[string]board.Card
	editors map[string]editor
	viewer  board.ViewerState
	notices []board.Notice
	ops     []string
	err     error
}

func NewRecorder() *Recorder {
	return &Recorder{
		cards:   make(map[string]board.Card),
		editors: make(map[string]editor),
	}
}

// FailWith makes every following write return err.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) PrependCard(card board.Card) error {
	return r.insert("prepend", card, func(id string) { r.order = slices.Insert(r.order, 0, id) })
}

func (r *Recorder) AppendCard(card board.Card) error {
	return r.insert("append", card, func(id string) { r.order = append(r.order, id) })
}

func (r *Recorder) insert(op string, card board.Card, place func(string)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(op, card.ID); err != nil {
		return err
	}
	if _, ok := r.cards[card.ID]; ok {
		return fmt.Errorf("card %s inserted twice", card.ID)
	}
	place(card.ID)
	r.cards[card.ID] = card
	r.editors[card.ID] = editor{open: card.State == board.CardEditing, text: card.Draft}
	return nil
}

func (r *Recorder) PatchCard(card board.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("patch", card.ID); err != nil {
		return err
	}
	if _, ok := r.cards[card.ID]; !ok {
		return fmt.Errorf("card %s not shown", card.ID)
	}
	r.cards[card.ID] = card
	return nil
}

func (r *Recorder) PatchAuthor(card board.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("author", card.ID); err != nil {
		return err
	}
	c, ok := r.cards[card.ID]
	if !ok {
		return fmt.Errorf("card %s not shown", card.ID)
	}
	c.AuthorName = card.AuthorName
	c.AuthorPicture = card.AuthorPicture
	r.cards[card.ID] = c
	return nil
}

func (r *Recorder) PatchEditor(card board.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("editor", card.ID); err != nil {
		return err
	}
	if _, ok := r.cards[card.ID]; !ok {
		return fmt.Errorf("card %s not shown", card.ID)
	}
	r.editors[card.ID] = editor{open: card.State == board.CardEditing, text: card.Draft}
	return nil
}

func (r *Recorder) RemoveCard(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("remove", id); err != nil {
		return err
	}
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	delete(r.cards, id)
	delete(r.editors, id)
	return nil
}

func (r *Recorder) PatchViewer(viewer board.ViewerState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("viewer", viewer.UserID); err != nil {
		return err
	}
	r.viewer = viewer
	return nil
}

func (r *Recorder) ShowNotice(notice board.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("notice", notice.ID); err != nil {
		return err
	}
	r.notices = append(r.notices, notice)
	return nil
}

func (r *Recorder) RemoveNotice(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("unnotice", id); err != nil {
		return err
	}
	r.notices = slices.DeleteFunc(r.notices, func(n board.Notice) bool { return n.ID == id })
	return nil
}

// record must be called with mu held.
func (r *Recorder) record(op, id string) error {
	if r.err != nil {
		return r.err
	}
	r.ops = append(r.ops, op+" "+id)
	return nil
}

// Type replaces the editor content of a card as the user would.
func (r *Recorder) Type(id, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.editors[id]; ok && e.open {
		e.text = text
		r.editors[id] = e
	}
}

// IDs returns the shown card ids from top to bottom.
func (r *Recorder) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}

func (r *Recorder) Card(id string) (board.Card, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[id]
	return c, ok
}

// Editor reports whether the editor of a card is open and what it contains.
func (r *Recorder) Editor(id string) (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.editors[id]
	return e.open, e.text
}

func (r *Recorder) Viewer() board.ViewerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewer
}

func (r *Recorder) Notices() []board.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.notices)
}

// Ops returns every successful write as "op id".
func (r *Recorder) Ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.ops)
}

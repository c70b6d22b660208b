package view

import (
	"github.com/starfederation/datastar-go/datastar"

	"github.com/dtroode/noteboard/internal/board"
)

const (
	messagesID = "messages"
	noticesID  = "notices"
)

var _ board.View = (*SSE)(nil)

// SSE patches the page of one board over a datastar event stream. It is only
// written from the board loop.
type SSE struct {
	sse  *datastar.ServerSentEventGenerator
	tmpl *Templates
	base string
}

// NewSSE creates the view of the page whose actions live under base.
func NewSSE(sse *datastar.ServerSentEventGenerator, tmpl *Templates, base string) *SSE {
	return &SSE{sse: sse, tmpl: tmpl, base: base}
}

func (v *SSE) PrependCard(card board.Card) error {
	html, err := v.tmpl.Card(v.base, card)
	if err != nil {
		return err
	}
	return v.sse.PatchElements(html, datastar.WithSelectorID(messagesID), datastar.WithModePrepend())
}

func (v *SSE) AppendCard(card board.Card) error {
	html, err := v.tmpl.Card(v.base, card)
	if err != nil {
		return err
	}
	return v.sse.PatchElements(html, datastar.WithSelectorID(messagesID), datastar.WithModeAppend())
}

func (v *SSE) PatchCard(card board.Card) error {
	return v.patch(v.tmpl.CardBody(v.base, card))
}

func (v *SSE) PatchAuthor(card board.Card) error {
	return v.patch(v.tmpl.CardAuthor(v.base, card))
}

func (v *SSE) PatchEditor(card board.Card) error {
	return v.patch(v.tmpl.CardEditor(v.base, card))
}

func (v *SSE) RemoveCard(id string) error {
	return v.sse.RemoveElement("#card-" + id)
}

func (v *SSE) PatchViewer(viewer board.ViewerState) error {
	return v.patch(v.tmpl.Viewer(v.base, viewer))
}

func (v *SSE) ShowNotice(notice board.Notice) error {
	html, err := v.tmpl.Notice(v.base, notice)
	if err != nil {
		return err
	}
	return v.sse.PatchElements(html, datastar.WithSelectorID(noticesID), datastar.WithModeAppend())
}

func (v *SSE) RemoveNotice(id string) error {
	return v.sse.RemoveElement("#" + id)
}

// patch morphs the element with the id of the rendered fragment.
func (v *SSE) patch(html string, err error) error {
	if err != nil {
		return err
	}
	return v.sse.PatchElements(html)
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dtroode/noteboard/internal/api/http/view"
	"github.com/dtroode/noteboard/internal/board"
	"github.com/dtroode/noteboard/internal/logger"
	"github.com/dtroode/noteboard/internal/model"
)

func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// Message handles the message actions of a page.
type Message struct {
	boards
}

// NewMessage creates a new Message handler.
func NewMessage(registry *board.Registry, contextManager model.ContextManager, logger *logger.Logger) *Message {
	return &Message{
		boards: boards{
			registry:       registry,
			contextManager: contextManager,
			logger:         logger,
		},
	}
}

// Create posts the composed text as a new message.
func (h *Message) Create(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "post message", func(b *board.Board, s view.Signals) error {
		return b.PostMessage(r.Context(), s.Text, model.Color(s.Color))
	})
}

func (h *Message) StartEdit(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	h.do(w, r, "start edit", func(b *board.Board) error {
		return b.StartEdit(r.Context(), id)
	})
}

// Draft records the editor content without saving it.
func (h *Message) Draft(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	h.serve(w, r, "draft edit", func(b *board.Board, s view.Signals) error {
		edit := s.Edits[id]
		b.DraftEdit(id, edit.Text, model.Color(edit.Color))
		return nil
	})
}

func (h *Message) CancelEdit(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	h.do(w, r, "cancel edit", func(b *board.Board) error {
		b.CancelEdit(id)
		return nil
	})
}

// SaveEdit writes the editor content of a message.
func (h *Message) SaveEdit(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	h.serve(w, r, "save edit", func(b *board.Board, s view.Signals) error {
		edit, ok := s.Edits[id]
		if !ok {
			return notify(b, board.ErrCardNotEditable)
		}
		return b.SaveEdit(r.Context(), id, edit.Text, model.Color(edit.Color))
	})
}

func (h *Message) Delete(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	h.do(w, r, "delete message", func(b *board.Board) error {
		return b.DeleteMessage(r.Context(), id)
	})
}

func (h *Message) Like(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	h.do(w, r, "like", func(b *board.Board) error {
		return b.Like(r.Context(), id)
	})
}

func (h *Message) Unlike(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	h.do(w, r, "unlike", func(b *board.Board) error {
		return b.Unlike(r.Context(), id)
	})
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/dtroode/noteboard/internal/api/http/view"
	"github.com/dtroode/noteboard/internal/board"
	"github.com/dtroode/noteboard/internal/logger"
	"github.com/dtroode/noteboard/internal/model"
)

// Base is the path prefix of the actions of page tabID.
func Base(tabID string) string {
	return "/t/" + tabID
}

// Options configures the boards created for new pages.
type Options struct {
	Board           board.Options
	MaxMessageLimit int
	SecureCookies   bool
}

// boards resolves the board an action request belongs to.
type boards struct {
	registry       *board.Registry
	contextManager model.ContextManager
	logger         *logger.Logger
}

func (s boards) resolve(r *http.Request) (*board.Board, error) {
	tabID, ok := s.contextManager.GetTabID(r.Context())
	if !ok {
		return nil, ErrNoBoard
	}
	b, ok := s.registry.Get(tabID)
	if !ok {
		return nil, ErrNoBoard
	}
	return b, nil
}

// do runs an action that needs no client state and answers 204 on success.
func (s boards) do(w http.ResponseWriter, r *http.Request, op string, fn func(*board.Board) error) {
	b, err := s.resolve(r)
	if err == nil {
		err = fn(b)
	}
	s.finish(w, r, op, err)
}

// serve runs an action with the signals sent by the page.
func (s boards) serve(w http.ResponseWriter, r *http.Request, op string, fn func(*board.Board, view.Signals) error) {
	b, err := s.resolve(r)
	if err == nil {
		var signals view.Signals
		signals, err = readSignals(r)
		if err == nil {
			err = fn(b, signals)
		}
	}
	s.finish(w, r, op, err)
}

func (s boards) finish(w http.ResponseWriter, r *http.Request, op string, err error) {
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	args := []any{
		"action", op,
		"path", r.URL.Path,
		"error", err.Error(),
	}
	if statusFor(err) >= http.StatusInternalServerError {
		s.logger.Error("Board handler: action failed", args...)
	} else {
		s.logger.Debug("Board handler: action rejected", args...)
	}
	handleError(w, err)
}

func readSignals(r *http.Request) (view.Signals, error) {
	var signals view.Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return signals, err
		}
		return signals, fmt.Errorf("%w: %w", ErrBadSignals, err)
	}
	return signals, nil
}

// notify shows err on the board and returns it.
func notify(b *board.Board, err error) error {
	b.Notify(err)
	return err
}

// Board serves the page and its event stream.
type Board struct {
	boards
	auth     model.AuthBackend
	docs     model.DocumentStore
	pictures board.PictureService
	tmpl     *view.Templates
	opts     Options
}

// NewBoard creates a new Board handler.
func NewBoard(
	registry *board.Registry,
	auth model.AuthBackend,
	docs model.DocumentStore,
	pictures board.PictureService,
	tmpl *view.Templates,
	contextManager model.ContextManager,
	opts Options,
	logger *logger.Logger,
) *Board {
	return &Board{
		boards: boards{
			registry:       registry,
			contextManager: contextManager,
			logger:         logger,
		},
		auth:     auth,
		docs:     docs,
		pictures: pictures,
		tmpl:     tmpl,
		opts:     opts,
	}
}

// Page renders a fresh page. Every load gets its own page id, so reloading
// starts a new board.
func (h *Board) Page(w http.ResponseWriter, r *http.Request) {
	tabID := uuid.NewString()
	base := Base(tabID)

	limit := h.opts.Board.MessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	signals, err := json.Marshal(view.Signals{
		Limit:       h.clampLimit(limit),
		Upload:      []string{},
		UploadMimes: []string{},
		Edits:       map[string]view.EditSignals{},
	})
	if err != nil {
		h.logger.Error("Board handler: failed to encode signals",
			"error", err.Error())
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	err = h.tmpl.Page(w, view.Page{
		Base:    base,
		Signals: string(signals),
		Viewer:  view.Viewer{Base: base},
	})
	if err != nil {
		h.logger.Error("Board handler: failed to render page",
			"tab_id", tabID,
			"error", err.Error())
	}
}

// Stream runs the board of the page for as long as the browser stays
// connected. A session cookie is resumed before the first batch is shown.
func (h *Board) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tabID, ok := h.contextManager.GetTabID(ctx)
	if !ok {
		handleError(w, ErrNoBoard)
		return
	}

	signals, err := readSignals(r)
	if err != nil {
		handleError(w, err)
		return
	}

	opts := h.opts.Board
	if signals.Limit != 0 {
		opts.MessageLimit = h.clampLimit(signals.Limit)
	}

	sse := datastar.NewSSE(w, r)
	b := board.New(tabID, h.auth, h.docs, h.pictures, view.NewSSE(sse, h.tmpl, Base(tabID)), opts, h.logger)

	h.registry.Add(b)
	defer h.registry.Remove(b)

	if token, ok := h.contextManager.GetSessionToken(ctx); ok {
		if err := b.Resume(ctx, token); err != nil {
			h.logger.Debug("Board handler: session not resumed",
				"tab_id", tabID,
				"error", err.Error())
		}
	}

	h.logger.Info("Board handler: page connected",
		"tab_id", tabID,
		"boards", h.registry.Len())

	if err := b.Run(ctx); err != nil {
		h.logger.Warn("Board handler: board stopped",
			"tab_id", tabID,
			"error", err.Error())
		return
	}

	h.logger.Info("Board handler: page disconnected",
		"tab_id", tabID)
}

// Dismiss removes a notice from the page.
func (h *Board) Dismiss(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	h.do(w, r, "dismiss", func(b *board.Board) error {
		b.Dismiss(id)
		return nil
	})
}

func (h *Board) clampLimit(n int) int {
	n = max(n, 1)
	if h.opts.MaxMessageLimit > 0 {
		n = min(n, h.opts.MaxMessageLimit)
	}
	return n
}

// Package board keeps one browser page in sync with the document store. A Board
// owns the caches of the page and a single loop goroutine that applies live
// query batches, session callbacks and UI actions in order.
package board

import (
	"context"
	"errors"
	"time"

	"github.com/dtroode/noteboard/internal/logger"
	"github.com/dtroode/noteboard/internal/model"
)

const actionQueueSize = 64

// ErrBoardClosed is returned for actions on a board whose loop has stopped.
var ErrBoardClosed = errors.New("board is closed")

// Options configures a board.
type Options struct {
	MessageLimit int
	NoticeTTL    time.Duration
	Placeholder  string
}

// Board is the synchronization layer of one open page.
type Board struct {
	id     string
	opts   Options
	logger *logger.Logger

	Session  *SessionState
	Profiles *ProfileCache
	Messages *MessageStore

	renderer *Renderer

	actions chan func()
	ready   chan struct{}
	done    chan struct{}

	// err is the first view failure. Only the loop touches it.
	err error
}

// New creates the board of page id. Nothing happens until Run is called.
func New(
	id string,
	auth model.AuthBackend,
	docs model.DocumentStore,
	pictures PictureService,
	view View,
	opts Options,
	logger *logger.Logger,
) *Board {
	b := &Board{
		id:      id,
		opts:    opts,
		logger:  logger.With("board_id", id),
		actions: make(chan func(), actionQueueSize),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}

	b.Profiles = NewProfileCache(docs, opts.Placeholder)
	b.Session = NewSessionState(auth, docs, pictures, b.Post, b.logger)
	b.Messages = NewMessageStore(docs, b.Session)
	b.Session.purger = b.Messages
	b.renderer = NewRenderer(view, b.Profiles, opts.NoticeTTL)

	b.Session.OnLogin(func(sess model.Session) {
		b.check(b.renderer.SetViewer(&sess))
	})
	b.Session.OnLogout(func(string) {
		b.check(b.renderer.SetViewer(nil))
	})

	return b
}

func (b *Board) ID() string {
	return b.id
}

// Ready is closed once the message subscription is established.
func (b *Board) Ready() <-chan struct{} {
	return b.ready
}

// Done is closed when Run returns.
func (b *Board) Done() <-chan struct{} {
	return b.done
}

// Run drives the board until ctx is done or the view fails. Profiles are
// subscribed first; messages only after the first profile snapshot was
// applied, so every card can resolve its author.
func (b *Board) Run(ctx context.Context) error {
	defer close(b.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b.check(b.renderer.SetViewer(nil))

	profiles, err := b.Profiles.Subscribe(ctx)
	if err != nil {
		return err
	}

	for !b.Profiles.Synced() {
		if b.err != nil {
			return b.err
		}
		select {
		case batch, ok := <-profiles:
			if !ok {
				return ctx.Err()
			}
			if batch.Err != nil {
				b.check(b.renderer.Notify(batch.Err))
				b.logger.Error("Board: profile subscription failed",
					"error", batch.Err.Error())
				return batch.Err
			}
			b.applyProfiles(batch)
		case fn := <-b.actions:
			fn()
		case <-ctx.Done():
			return nil
		}
	}

	messages, err := b.Messages.Subscribe(ctx, b.opts.MessageLimit)
	if err != nil {
		return err
	}
	close(b.ready)

	b.logger.Info("Board: synchronized",
		"profiles", b.Profiles.Len(),
		"limit", b.opts.MessageLimit)

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		if b.err != nil {
			return b.err
		}

		var expiry <-chan time.Time
		if next, ok := b.renderer.NextExpiry(); ok {
			timer.Reset(time.Until(next))
			expiry = timer.C
		}

		select {
		case batch, ok := <-profiles:
			if !ok {
				profiles = nil
				continue
			}
			if batch.Err != nil {
				b.subscriptionFailed("profiles", batch.Err)
				profiles = nil
				continue
			}
			b.applyProfiles(batch)

		case batch, ok := <-messages:
			if !ok {
				messages = nil
				continue
			}
			if batch.Err != nil {
				b.subscriptionFailed("messages", batch.Err)
				messages = nil
				continue
			}
			b.check(b.renderer.Messages(b.Messages.Apply(batch)))

		case fn := <-b.actions:
			fn()

		case now := <-expiry:
			b.check(b.renderer.ExpireNotices(now))

		case <-ctx.Done():
			return nil
		}
	}
}

func (b *Board) applyProfiles(batch model.Batch[model.Profile]) {
	b.check(b.renderer.Profiles(b.Profiles.Apply(batch)))
}

func (b *Board) subscriptionFailed(name string, err error) {
	b.logger.Error("Board: subscription failed",
		"subscription", name,
		"error", err.Error())
	b.check(b.renderer.Notify(err))
}

func (b *Board) check(err error) {
	if err != nil && b.err == nil {
		b.err = err
	}
}

// Post schedules fn on the board loop. It reports false if the board is closed.
func (b *Board) Post(fn func()) bool {
	select {
	case <-b.done:
		return false
	default:
	}

	select {
	case b.actions <- fn:
		return true
	case <-b.done:
		return false
	}
}

// Do runs fn on the board loop and waits for its result.
func (b *Board) Do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	if !b.Post(func() { errc <- fn() }) {
		return ErrBoardClosed
	}

	select {
	case err := <-errc:
		return err
	case <-b.done:
		return ErrBoardClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Notify shows err as a notice. Errors are logged unless they are expected
// user mistakes.
func (b *Board) Notify(err error) {
	if err == nil {
		return
	}
	if model.KindOf(err) == model.KindInternal {
		b.logger.Error("Board: action failed",
			"error", err.Error())
	}
	b.Post(func() {
		b.check(b.renderer.Notify(err))
	})
}

func (b *Board) report(err error) error {
	b.Notify(err)
	return err
}

// Dismiss removes a notice.
func (b *Board) Dismiss(id string) {
	b.Post(func() {
		b.check(b.renderer.Dismiss(id))
	})
}

// Card returns the shadow card of a message as the loop sees it.
func (b *Board) Card(ctx context.Context, id string) (Card, error) {
	var card Card
	err := b.Do(ctx, func() error {
		c, ok := b.renderer.Card(id)
		if !ok {
			return model.ErrMessageMissing
		}
		card = c
		return nil
	})
	return card, err
}

// Viewer returns the header state as the loop sees it.
func (b *Board) Viewer(ctx context.Context) (ViewerState, error) {
	var v ViewerState
	err := b.Do(ctx, func() error {
		v = b.renderer.Viewer()
		return nil
	})
	return v, err
}

// Notices returns the visible notices.
func (b *Board) Notices(ctx context.Context) ([]Notice, error) {
	var notices []Notice
	err := b.Do(ctx, func() error {
		notices = b.renderer.Notices()
		return nil
	})
	return notices, err
}

package board

import (
	"context"
	"errors"

	"github.com/dtroode/noteboard/internal/model"
)

// The actions below run on the caller's goroutine, typically an HTTP handler.
// Failures are shown as notices on the board and returned.

func (b *Board) Login(ctx context.Context, email, password string) error {
	_, err := b.Session.Login(ctx, email, password)
	return b.report(err)
}

// Resume restores a session from token without reporting failures to the user.
func (b *Board) Resume(ctx context.Context, token string) error {
	_, err := b.Session.Resume(ctx, token)
	return err
}

func (b *Board) CreateAccount(ctx context.Context, email, password, displayName string) error {
	_, err := b.Session.CreateAccount(ctx, email, password, displayName)
	return b.report(err)
}

func (b *Board) Logout(ctx context.Context) error {
	return b.report(b.Session.Logout(ctx))
}

func (b *Board) PostMessage(ctx context.Context, text string, color model.Color) error {
	_, err := b.Messages.Create(ctx, text, color)
	return b.report(err)
}

// StartEdit opens the editor of a card owned by the viewer.
func (b *Board) StartEdit(ctx context.Context, id string) error {
	err := b.Do(ctx, func() error {
		err := b.renderer.StartEdit(id)
		if errors.Is(err, ErrCardNotEditable) || errors.Is(err, model.ErrMessageMissing) {
			return err
		}
		b.check(err)
		return nil
	})
	return b.report(err)
}

// DraftEdit records what the user typed into an open editor.
func (b *Board) DraftEdit(id, text string, color model.Color) {
	b.Post(func() {
		b.renderer.SetDraft(id, text, color)
	})
}

func (b *Board) CancelEdit(id string) {
	b.Post(func() {
		b.check(b.renderer.CloseEditor(id))
	})
}

// SaveEdit writes the edited text. The editor stays open with the draft when
// the write fails.
func (b *Board) SaveEdit(ctx context.Context, id, text string, color model.Color) error {
	b.DraftEdit(id, text, color)

	if err := b.Messages.Edit(ctx, id, text, color); err != nil {
		return b.report(err)
	}

	b.Post(func() {
		b.check(b.renderer.CloseEditor(id))
	})
	return nil
}

func (b *Board) DeleteMessage(ctx context.Context, id string) error {
	return b.report(b.Messages.Delete(ctx, id))
}

// Like disables the like button of the card until the write resolved. The
// count changes only with the confirmed change event.
func (b *Board) Like(ctx context.Context, id string) error {
	return b.toggleLike(ctx, id, b.Messages.Like)
}

func (b *Board) Unlike(ctx context.Context, id string) error {
	return b.toggleLike(ctx, id, b.Messages.Unlike)
}

func (b *Board) toggleLike(ctx context.Context, id string, write func(context.Context, string) error) error {
	b.Post(func() {
		b.check(b.renderer.SetLikePending(id, true))
	})

	err := write(ctx, id)

	b.Post(func() {
		b.check(b.renderer.SetLikePending(id, false))
	})
	return b.report(err)
}

func (b *Board) UpdateProfile(ctx context.Context, displayName, pictureURL string) error {
	_, err := b.Session.UpdateProfile(ctx, displayName, pictureURL)
	return b.report(err)
}

func (b *Board) ChangePassword(ctx context.Context, current, next string) error {
	return b.report(b.Session.ChangePassword(ctx, current, next))
}

func (b *Board) ChangeEmail(ctx context.Context, current, newEmail string) error {
	sess, err := b.Session.ChangeEmail(ctx, current, newEmail)
	if err != nil {
		return b.report(err)
	}

	b.Post(func() {
		b.check(b.renderer.SetViewer(&sess))
	})
	return nil
}

func (b *Board) SendVerification(ctx context.Context) error {
	return b.report(b.Session.SendVerification(ctx))
}

// DeleteAccount deletes the account of the viewer and all of their messages.
func (b *Board) DeleteAccount(ctx context.Context, current string) (int, error) {
	n, err := b.Session.DeleteAccount(ctx, current)
	return n, b.report(err)
}

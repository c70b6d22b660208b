package board

import (
	"errors"

	"github.com/dtroode/noteboard/internal/model"
)

var noticeTexts = []struct {
	err  error
	text string
}{
	{model.ErrWrongPassword, "Wrong email or password."},
	{model.ErrUserNotFound, "No account with this email exists."},
	{model.ErrUserDisabled, "This account has been disabled."},
	{model.ErrInvalidEmail, "The email address is not valid."},
	{model.ErrEmailInUse, "An account with this email already exists."},
	{model.ErrWeakPassword, "The password must be at least 6 characters long."},
	{model.ErrOperationNotAllowed, "This operation is not allowed."},
	{model.ErrInvalidToken, "The link or session has expired. Please sign in again."},
	{model.ErrNotOwner, "Only the author can change this message."},
	{model.ErrTextTooShort, "A message needs at least 3 characters."},
	{model.ErrTextTooLong, "A message can have at most 5000 characters."},
	{model.ErrPasswordMismatch, "The passwords do not match."},
	{model.ErrInvalidColor, "Unknown color."},
	{model.ErrInvalidPicture, "The picture URL does not point to an image."},
	{model.ErrMessageMissing, "The message no longer exists."},
	{model.ErrProfileMissing, "The profile no longer exists."},
	{model.ErrAlreadyLiked, "You already like this message."},
	{model.ErrNotLiked, "You do not like this message."},
	{model.ErrNotAuthenticated, "Please sign in first."},
	{ErrCardNotEditable, "Only the author can change this message."},
}

// NoticeText returns the text shown to users for err.
func NoticeText(err error) string {
	for _, t := range noticeTexts {
		if errors.Is(err, t.err) {
			return t.text
		}
	}
	return "Something went wrong. Please try again."
}

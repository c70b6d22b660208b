package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/dtroode/noteboard/internal/board"
	"github.com/dtroode/noteboard/internal/model"
)

var (
	// ErrNoBoard is returned for actions of a page whose stream is not connected.
	ErrNoBoard = errors.New("page is not connected")
	// ErrBadSignals is returned when the client state sent with an action cannot be read.
	ErrBadSignals = errors.New("malformed signals")
)

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrBadSignals):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoBoard):
		return http.StatusNotFound
	case errors.Is(err, board.ErrBoardClosed):
		return http.StatusGone
	case errors.Is(err, board.ErrCardNotEditable):
		return http.StatusForbidden
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}

	switch model.KindOf(err) {
	case model.KindAuth:
		switch {
		case errors.Is(err, model.ErrEmailInUse):
			return http.StatusConflict
		case errors.Is(err, model.ErrOperationNotAllowed):
			return http.StatusForbidden
		case errors.Is(err, model.ErrInvalidEmail), errors.Is(err, model.ErrWeakPassword):
			return http.StatusUnprocessableEntity
		}
		return http.StatusUnauthorized
	case model.KindOwnership:
		return http.StatusForbidden
	case model.KindValidation:
		return http.StatusUnprocessableEntity
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindState:
		if errors.Is(err, model.ErrNotAuthenticated) {
			return http.StatusUnauthorized
		}
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error, status int) string {
	switch {
	case errors.Is(err, ErrNoBoard), errors.Is(err, board.ErrBoardClosed):
		return "The page lost its connection. Please reload."
	case status == http.StatusBadRequest:
		return http.StatusText(status)
	case status == http.StatusRequestEntityTooLarge:
		return "The picture is too large."
	}
	return board.NoticeText(err)
}

func handleError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	http.Error(w, messageFor(err, status), status)
}

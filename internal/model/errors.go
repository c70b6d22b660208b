package model

import "errors"

// ErrNotFound is returned by stores when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Authentication errors.
var (
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrUserDisabled        = errors.New("user account is disabled")
	ErrUserNotFound        = errors.New("no user with this email")
	ErrWrongPassword       = errors.New("wrong password")
	ErrEmailInUse          = errors.New("email address is already in use")
	ErrWeakPassword        = errors.New("password is too weak")
	ErrOperationNotAllowed = errors.New("operation not allowed")
	ErrInvalidToken        = errors.New("invalid or expired token")
)

// Ownership errors.
var (
	ErrNotOwner = errors.New("only the author may change this message")
)

// Validation errors.
var (
	ErrTextTooShort     = errors.New("message text is too short")
	ErrTextTooLong      = errors.New("message text is too long")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrInvalidColor     = errors.New("unknown message color")
	ErrInvalidPicture   = errors.New("picture URL does not point to an image")
)

// Not-found errors of the document collections.
var (
	ErrMessageMissing = errors.New("message does not exist")
	ErrProfileMissing = errors.New("profile does not exist")
)

// State errors.
var (
	ErrAlreadyLiked     = errors.New("message is already liked")
	ErrNotLiked         = errors.New("message is not liked")
	ErrNotAuthenticated = errors.New("not logged in")
)

// ErrorKind groups errors into the families shown to users.
type ErrorKind string

const (
	KindAuth       ErrorKind = "auth"
	KindOwnership  ErrorKind = "ownership"
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindState      ErrorKind = "state"
	KindInternal   ErrorKind = "internal"
)

var errorKinds = map[error]ErrorKind{
	ErrInvalidEmail:        KindAuth,
	ErrUserDisabled:        KindAuth,
	ErrUserNotFound:        KindAuth,
	ErrWrongPassword:       KindAuth,
	ErrEmailInUse:          KindAuth,
	ErrWeakPassword:        KindAuth,
	ErrOperationNotAllowed: KindAuth,
	ErrInvalidToken:        KindAuth,
	ErrNotOwner:            KindOwnership,
	ErrTextTooShort:        KindValidation,
	ErrTextTooLong:         KindValidation,
	ErrPasswordMismatch:    KindValidation,
	ErrInvalidColor:        KindValidation,
	ErrInvalidPicture:      KindValidation,
	ErrMessageMissing:      KindNotFound,
	ErrProfileMissing:      KindNotFound,
	ErrNotFound:            KindNotFound,
	ErrAlreadyLiked:        KindState,
	ErrNotLiked:            KindState,
	ErrNotAuthenticated:    KindState,
}

// KindOf reports the family of err, looking through wrapped errors.
func KindOf(err error) ErrorKind {
	for sentinel, kind := range errorKinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindInternal
}

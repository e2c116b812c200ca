// Package usecase implements the business logic for the user feature.
package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound is returned by repositories when no user matches.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when the username unique index is violated.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidCredentials is returned by Authenticate when the username
	// is unknown or the password does not match.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Kind classifies a failure so the transport layer can pick a status code.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindForbidden
	KindPersistence
	KindSession
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindPersistence:
		return "persistence"
	case KindSession:
		return "session"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by every user operation.
// Message is safe to show to clients; Err is the underlying cause, if any,
// and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// User-facing messages.
const (
	MsgFillAllFields       = "Please fill out all fields."
	MsgPasswordsMismatch   = "Your passwords do not match."
	MsgAuthError           = "Auth error"
	MsgAuthFailed          = "500: Authentication failed, try again."
	MsgAuthNotFound        = "404: Authentication failed, try again."
	MsgLoggedOut           = "You are successfully logged out"
	MsgUserGetNotFound     = "404 on user get"
	MsgPasswordRequired    = "You must provide a password."
	MsgUpdateNotFound      = "404 no user on update"
	MsgViewerNotFound      = "Forbidden: User Not Found"
	MsgInternalServerError = "internal server error"
)

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func notFoundError(msg string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Err: err}
}

func forbiddenError(msg string, err error) *Error {
	return &Error{Kind: KindForbidden, Message: msg, Err: err}
}

func persistenceError(err error) *Error {
	return &Error{Kind: KindPersistence, Message: MsgInternalServerError, Err: err}
}

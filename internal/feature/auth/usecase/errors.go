// Package usecase implements session lifecycle for the auth feature.
package usecase

import "errors"

var (
	// ErrSessionNotFound is returned when a session cannot be found by ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionRevoked is returned when the session was logged out.
	ErrSessionRevoked = errors.New("session has been revoked")

	// ErrSessionExpired is returned when the session passed its expiry.
	ErrSessionExpired = errors.New("session has expired")

	// ErrInvalidSessionToken is returned when the cookie token fails verification.
	ErrInvalidSessionToken = errors.New("invalid session token")
)

// Package common defines shared constants and sentinel errors used across
// the dayplanner services and repositories. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already taken")

	// Validation errors (empty or malformed required fields).
	ErrValidation    = errors.New("validation error")
	ErrEmptyTitle    = errors.New("task title must not be empty")
	ErrEmptyPassword = errors.New("password must not be empty")
	ErrMissingField  = errors.New("required field missing")

	// Auth errors (bad credentials, bad or stale verification codes).
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrCodeMismatch = errors.New("verification code mismatch")
	ErrCodeExpired  = errors.New("verification code expired")

	// Session flow errors (operation not allowed in the current state).
	ErrInvalidTransition = errors.New("invalid session state transition")
	ErrSessionExpired    = errors.New("session expired")

	// Collaborator errors.
	ErrTransportFailure = errors.New("mail transport failure")

	// Reminder errors.
	ErrAlreadyPassed = errors.New("reminder time already passed")

	// Generic/internal flow control.
	ErrInternal = errors.New("internal error")
)

// Package common defines shared constants and sentinel errors used across
// the pixvault server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Uniqueness violations (email already pending or already registered).
	ErrorConflict = errors.New("already exists")

	// Registration lifecycle errors.
	ErrorCodeInvalidOrExpired = errors.New("verification code invalid or expired")
	ErrorRegistrationExpired  = errors.New("registration expired")

	// Image lifecycle errors (illegal transition, e.g. restoring an
	// image that is not soft-deleted).
	ErrorInvalidState = errors.New("invalid state")

	// Collaborator transport errors.
	ErrorStorageWrite  = errors.New("storage write failed")
	ErrorStorageDelete = errors.New("storage delete failed")
	ErrorSigning       = errors.New("url signing failed")
	ErrorMailTransport = errors.New("mail transport failed")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)

// Package models defines the persistent entities of the pixvault server.
package models

import "time"

// PendingUser is a not-yet-confirmed signup awaiting email verification.
// The row lives until the code is verified, the signup is restarted, or the
// expiry sweep removes it.
type PendingUser struct {
	ID               string
	Username         string
	Email            string
	PasswordHash     string
	VerificationCode string
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

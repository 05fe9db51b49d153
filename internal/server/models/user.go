package models

import "time"

// User is a confirmed account. On promotion from a PendingUser the id,
// username, email and password hash carry over unchanged.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

package models

import "time"

// Image is a stored media record. FileName is the object-storage key.
// DeletedAt is set iff IsDeleted is true.
type Image struct {
	ID        string
	UserID    string
	FileName  string
	URL       string
	CreatedAt time.Time
	IsDeleted bool
	DeletedAt *time.Time
}

// Package pendingusers stores not-yet-confirmed signups with their
// verification codes and expiry timestamps.
package pendingusers

import (
	"context"
	"time"

	"pixvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.PendingUser) (*models.PendingUser, error)
	GetByEmail(ctx context.Context, email string) (*models.PendingUser, error)
	// GetByEmailAndCode matches email and code against registrations whose
	// expiry is still in the future relative to now. An expired row is
	// reported as not found.
	GetByEmailAndCode(ctx context.Context, email, code string, now time.Time) (*models.PendingUser, error)
	// Update rewrites the verification code and expiry of an existing
	// registration in place, keeping its identity.
	Update(ctx context.Context, user *models.PendingUser) error
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes every registration whose expiry has passed and
	// returns the number of rows removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

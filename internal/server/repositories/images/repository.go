// Package images stores image records and their soft-delete lifecycle.
package images

import (
	"context"
	"time"

	"pixvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, image *models.Image) (*models.Image, error)
	GetByID(ctx context.Context, id string) (*models.Image, error)
	SelectActiveByUser(ctx context.Context, userID string) ([]*models.Image, error)
	SelectDeletedByUser(ctx context.Context, userID string) ([]*models.Image, error)
	// SoftDelete marks the image deleted and stamps deleted_at. It reports
	// false when no row with that id exists. Re-deleting an already
	// soft-deleted image re-stamps the timestamp.
	SoftDelete(ctx context.Context, id string, now time.Time) (bool, error)
	// Restore clears the deleted flag and the deleted_at timestamp.
	Restore(ctx context.Context, id string) error
	// SelectDeletedBefore returns soft-deleted images whose deleted_at is
	// older than the cutoff.
	SelectDeletedBefore(ctx context.Context, cutoff time.Time) ([]*models.Image, error)
	HardDelete(ctx context.Context, id string) error
}

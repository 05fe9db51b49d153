package images

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pixvault/internal/common"
	"pixvault/internal/dbx"
	"pixvault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const imageColumns = `id, user_id, file_name, url, created_at, is_deleted, deleted_at`

func (r *PostgresRepository) Create(ctx context.Context, image *models.Image) (*models.Image, error) {

	query :=
		`INSERT INTO images (id, user_id, file_name, url, created_at)
         VALUES ($1, $2, $3, $4, $5)
		 `

	_, err := r.db.ExecContext(ctx, query,
		image.ID, image.UserID, image.FileName, image.URL, image.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return image, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE id = $1`

	image := &models.Image{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&image.ID, &image.UserID, &image.FileName, &image.URL,
		&image.CreatedAt, &image.IsDeleted, &image.DeletedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return image, nil
}

func (r *PostgresRepository) SelectActiveByUser(ctx context.Context, userID string) ([]*models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE user_id = $1 AND NOT is_deleted ORDER BY created_at`

	return r.selectMany(ctx, query, userID)
}

func (r *PostgresRepository) SelectDeletedByUser(ctx context.Context, userID string) ([]*models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE user_id = $1 AND is_deleted ORDER BY deleted_at`

	return r.selectMany(ctx, query, userID)
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id string, now time.Time) (bool, error) {
	query :=
		`UPDATE images SET is_deleted = true, deleted_at = $2
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, now)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return affected > 0, nil
}

func (r *PostgresRepository) Restore(ctx context.Context, id string) error {
	query :=
		`UPDATE images SET is_deleted = false, deleted_at = NULL
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) SelectDeletedBefore(ctx context.Context, cutoff time.Time) ([]*models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE is_deleted AND deleted_at < $1`

	return r.selectMany(ctx, query, cutoff)
}

func (r *PostgresRepository) HardDelete(ctx context.Context, id string) error {
	query := `DELETE FROM images WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, arg any) ([]*models.Image, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Image
	for rows.Next() {
		image := &models.Image{}
		if err := rows.Scan(&image.ID, &image.UserID, &image.FileName, &image.URL,
			&image.CreatedAt, &image.IsDeleted, &image.DeletedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, image)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

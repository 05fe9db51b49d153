package pendingusers

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

func (r *PostgresRepository) Create(ctx context.Context, user *models.PendingUser) (*models.PendingUser, error) {

	query :=
		`INSERT INTO pending_users (id, username, email, password_hash, verification_code, created_at, expires_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.VerificationCode, user.CreatedAt, user.ExpiresAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.PendingUser, error) {
	query :=
		`SELECT id, username, email, password_hash, verification_code, created_at, expires_at
		 FROM pending_users
		 WHERE email = $1
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByEmailAndCode(ctx context.Context, email, code string, now time.Time) (*models.PendingUser, error) {
	query :=
		`SELECT id, username, email, password_hash, verification_code, created_at, expires_at
		 FROM pending_users
		 WHERE email = $1 AND verification_code = $2 AND expires_at > $3
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, email, code, now))
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.PendingUser) error {
	query :=
		`UPDATE pending_users SET verification_code = $2, expires_at = $3
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, user.ID, user.VerificationCode, user.ExpiresAt)
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

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM pending_users WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM pending_users WHERE expires_at < $1`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return affected, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.PendingUser, error) {
	user := &models.PendingUser{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.VerificationCode, &user.CreatedAt, &user.ExpiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

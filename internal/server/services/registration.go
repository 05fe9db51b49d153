// Package services contains server-side business logic. This file implements
// RegistrationService, which drives the pending-registration state machine:
// signup, code resend, verification (promotion to a confirmed user), the
// expiry sweep, plus login and the direct user-creation path.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pixvault/internal/common"
	"pixvault/internal/dbx"
	"pixvault/internal/server/auth"
	sc "pixvault/internal/server/config"
	"pixvault/internal/server/mail"
	"pixvault/internal/server/models"
	"pixvault/internal/server/repositories/repomanager"
)

// timeNow is a seam so tests can move the clock.
var timeNow = time.Now

// PendingUserView is the response shape for a started registration.
// It never carries the password hash.
type PendingUserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserView is the response shape for a confirmed user.
type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

func toPendingUserView(u *models.PendingUser) *PendingUserView {
	return &PendingUserView{ID: u.ID, Username: u.Username, Email: u.Email, ExpiresAt: u.ExpiresAt}
}

func toUserView(u *models.User) *UserView {
	return &UserView{ID: u.ID, Username: u.Username, Email: u.Email, IsAdmin: u.IsAdmin, CreatedAt: u.CreatedAt}
}

// RegistrationService provides the registration workflow:
//   - Begin: start a signup and mail a verification code
//   - Resend: reissue the code with a shorter window
//   - Verify: promote a pending registration to a confirmed user
//   - SweepExpired: drop registrations whose window has passed
//   - Login / CreateUser: confirmed-account operations
type RegistrationService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	mailer                      mail.Sender
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	pendingCodeTTL              time.Duration
	resendCodeTTL               time.Duration
}

// NewRegistrationService constructs a RegistrationService using
// repositories, the mail sender, and server config.
func NewRegistrationService(db *sql.DB, m repomanager.RepositoryManager, mailer mail.Sender, cfg *sc.Config) *RegistrationService {
	return &RegistrationService{
		db:                          db,
		repomanager:                 m,
		mailer:                      mailer,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		pendingCodeTTL:              cfg.PendingCodeTTL,
		resendCodeTTL:               cfg.ResendCodeTTL,
	}
}

// Begin starts a registration: it rejects emails already held by a confirmed
// user or a live pending registration, generates a 6-digit code valid for
// the configured signup window, persists the pending record, and sends
// exactly one verification email. A pending registration that has already
// expired does not block the email; it is replaced.
func (s *RegistrationService) Begin(ctx context.Context, username, email, password string) (*PendingUserView, error) {
	userRepo := s.repomanager.Users(s.db)
	if _, err := userRepo.GetByEmail(ctx, email); err == nil {
		return nil, common.ErrorConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	now := timeNow()

	pendingRepo := s.repomanager.PendingUsers(s.db)
	existing, err := pendingRepo.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.ExpiresAt.After(now):
		return nil, common.ErrorConflict
	case err == nil:
		// stale registration, replace it
		if err := pendingRepo.Delete(ctx, existing.ID); err != nil {
			return nil, err
		}
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	code, err := common.MakeVerificationCode()
	if err != nil {
		return nil, common.ErrorInternal
	}

	pending := &models.PendingUser{
		ID:               uuid.NewString(),
		Username:         username,
		Email:            email,
		PasswordHash:     string(hash),
		VerificationCode: code,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.pendingCodeTTL),
	}

	created, err := pendingRepo.Create(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("error creating pending registration: %w", err)
	}

	if err := s.mailer.SendVerificationEmail(ctx, created.Email, code); err != nil {
		return nil, err
	}

	return toPendingUserView(created), nil
}

// Resend reissues the verification code for a pending registration. If the
// registration has already expired it is deleted and the caller must start
// over at Begin. The new code gets the shorter resend window, counted from
// now, and the record keeps its identity.
func (s *RegistrationService) Resend(ctx context.Context, email string) error {
	pendingRepo := s.repomanager.PendingUsers(s.db)

	pending, err := pendingRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	now := timeNow()
	if pending.ExpiresAt.Before(now) {
		if err := pendingRepo.Delete(ctx, pending.ID); err != nil {
			return err
		}
		return common.ErrorRegistrationExpired
	}

	code, err := common.MakeVerificationCode()
	if err != nil {
		return common.ErrorInternal
	}

	pending.VerificationCode = code
	pending.ExpiresAt = now.Add(s.resendCodeTTL)

	if err := pendingRepo.Update(ctx, pending); err != nil {
		return err
	}

	return s.mailer.SendVerificationEmail(ctx, pending.Email, code)
}

// Verify promotes a pending registration whose email and code match and
// whose expiry has not passed. The confirmed user keeps the pending
// registration's id, username, email and password hash. Creation of the
// user and deletion of the pending row run in one transaction, so a crash
// can never leave a confirmed user with a dangling pending record.
func (s *RegistrationService) Verify(ctx context.Context, email, code string) (*UserView, error) {
	pending, err := s.repomanager.PendingUsers(s.db).GetByEmailAndCode(ctx, email, code, timeNow())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorCodeInvalidOrExpired
		}
		return nil, err
	}

	var user *models.User
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var createErr error
		user, createErr = s.repomanager.Users(tx).Create(ctx, &models.User{
			ID:           pending.ID,
			Username:     pending.Username,
			Email:        pending.Email,
			PasswordHash: pending.PasswordHash,
			IsAdmin:      false,
		})
		if createErr != nil {
			return fmt.Errorf("error creating user: %w", createErr)
		}
		return s.repomanager.PendingUsers(tx).Delete(ctx, pending.ID)
	}); err != nil {
		return nil, err
	}

	return toUserView(user), nil
}

// SweepExpired deletes every pending registration whose expiry has passed
// and returns the number removed.
func (s *RegistrationService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repomanager.PendingUsers(s.db).DeleteExpired(ctx, timeNow())
}

// GetUser returns the confirmed user with the given id.
func (s *RegistrationService) GetUser(ctx context.Context, id string) (*UserView, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserView(user), nil
}

// Login checks the credentials of a confirmed user and mints an access
// token. An unknown email and a wrong password collapse to the same error.
func (s *RegistrationService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}

	return token, nil
}

// CreateUser creates a confirmed user directly, bypassing verification.
// Used by the admin/test path.
func (s *RegistrationService) CreateUser(ctx context.Context, username, email, password string, isAdmin bool) (*UserView, error) {
	userRepo := s.repomanager.Users(s.db)

	if _, err := userRepo.GetByEmail(ctx, email); err == nil {
		return nil, common.ErrorConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := userRepo.Create(ctx, &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return toUserView(user), nil
}

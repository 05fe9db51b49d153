// Package httpapi exposes the registration and image workflows over a small
// JSON/multipart HTTP API.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"pixvault/internal/logging"
	"pixvault/internal/server/services"
)

// RegistrationAPI is the slice of the registration workflow the HTTP layer
// consumes.
type RegistrationAPI interface {
	Begin(ctx context.Context, username, email, password string) (*services.PendingUserView, error)
	Resend(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (*services.UserView, error)
	Login(ctx context.Context, email, password string) (string, error)
	GetUser(ctx context.Context, id string) (*services.UserView, error)
	CreateUser(ctx context.Context, username, email, password string, isAdmin bool) (*services.UserView, error)
}

// ImageAPI is the slice of the image workflow the HTTP layer consumes.
type ImageAPI interface {
	Upload(ctx context.Context, userID, fileName string, content io.Reader) (*services.ImageView, error)
	ListActive(ctx context.Context, userID string) ([]*services.ImageView, error)
	ListDeleted(ctx context.Context, userID string) ([]*services.ImageView, error)
	SoftDelete(ctx context.Context, imageID string) (bool, error)
	Restore(ctx context.Context, imageID string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Server serves the public HTTP endpoint.
type Server struct {
	address       string
	logger        logging.Logger
	registrations RegistrationAPI
	images        ImageAPI
	jwtSecret     []byte
	signedURLTTL  time.Duration
}

func NewServer(address string, logger logging.Logger, registrations RegistrationAPI, images ImageAPI, secretKey string, signedURLTTL time.Duration) *Server {
	return &Server{
		address:       address,
		logger:        logger.With("module", "http_server"),
		registrations: registrations,
		images:        images,
		jwtSecret:     []byte(secretKey),
		signedURLTTL:  signedURLTTL,
	}
}

// Run starts the HTTP server and shuts it down gracefully when ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Package server initializes and runs the pixvault backend: it wires the
// database, object storage, mail transport, the background sweeper and the
// HTTP server, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"pixvault/internal/logging"
	"pixvault/internal/server/config"
	"pixvault/internal/server/httpapi"
	"pixvault/internal/server/mail"
	"pixvault/internal/server/repositories/repomanager"
	"pixvault/internal/server/services"
	"pixvault/internal/server/sweeper"
)

type App struct {
	config              *config.Config
	logger              logging.Logger
	db                  *sql.DB
	repomanager         repomanager.RepositoryManager
	registrationService *services.RegistrationService
	imageService        *services.ImageService
	sweeper             *sweeper.Sweeper
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	mailer := mail.NewSMTPSender(c)

	rs := services.NewRegistrationService(db, m, mailer, c)
	is := services.NewImageService(db, m, c, logger)
	sw := sweeper.New(logger, rs, is)

	return &App{
		config:              c,
		logger:              logger,
		db:                  db,
		repomanager:         m,
		registrationService: rs,
		imageService:        is,
		sweeper:             sw,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config.EndpointAddr, app.logger,
		app.registrationService, app.imageService,
		app.config.SecretKey, app.config.SignedURLTTL)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	if err := app.sweeper.Start(); err != nil {
		return fmt.Errorf("sweeper start error: %w", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.sweeper.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing db", "error", err)
	}

	return nil
}

// Package sweeper runs the periodic cleanup jobs: the nightly purge of old
// soft-deleted images and the hourly removal of expired pending
// registrations.
package sweeper

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"

	"pixvault/internal/logging"
)

// RegistrationSweeper is the slice of the registration workflow the sweeper
// needs.
type RegistrationSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// ImageSweeper is the slice of the image workflow the sweeper needs.
type ImageSweeper interface {
	SweepOldDeleted(ctx context.Context) (int, error)
}

const (
	imagePurgeSchedule        = "0 0 * * *" // daily at midnight
	registrationSweepSchedule = "@hourly"
)

// Sweeper owns the process-wide scheduler. Start and Stop are idempotent;
// job failures are logged and the job simply runs again at its next tick.
type Sweeper struct {
	cron          *cron.Cron
	logger        logging.Logger
	registrations RegistrationSweeper
	images        ImageSweeper

	mu         sync.Mutex
	started    bool
	registered bool
}

func New(logger logging.Logger, registrations RegistrationSweeper, images ImageSweeper) *Sweeper {
	l := logger.With("module", "sweeper")
	return &Sweeper{
		cron:          cron.New(cron.WithChain(cron.Recover(&cronLogger{l}))),
		logger:        l,
		registrations: registrations,
		images:        images,
	}
}

// Start registers the two jobs and starts the scheduler. Calling Start on a
// running sweeper is a no-op.
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// jobs are registered once; a stop/start cycle must not duplicate them
	if !s.registered {
		if _, err := s.cron.AddFunc(imagePurgeSchedule, s.purgeOldImages); err != nil {
			return err
		}
		if _, err := s.cron.AddFunc(registrationSweepSchedule, s.sweepExpiredRegistrations); err != nil {
			return err
		}
		s.registered = true
	}

	s.cron.Start()
	s.started = true
	s.logger.Info(context.Background(), "sweeper started")

	return nil
}

// Stop halts the scheduler. Calling Stop on a stopped sweeper is a no-op.
// Jobs already in flight run to completion.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	<-s.cron.Stop().Done()
	s.started = false
	s.logger.Info(context.Background(), "sweeper stopped")
}

func (s *Sweeper) purgeOldImages() {
	ctx := context.Background()

	purged, err := s.images.SweepOldDeleted(ctx)
	if err != nil {
		s.logger.Error(ctx, "image purge sweep failed", "error", err)
		return
	}
	s.logger.Info(ctx, "image purge sweep completed", "purged", purged)
}

func (s *Sweeper) sweepExpiredRegistrations() {
	ctx := context.Background()

	removed, err := s.registrations.SweepExpired(ctx)
	if err != nil {
		s.logger.Error(ctx, "pending registration sweep failed", "error", err)
		return
	}
	s.logger.Info(ctx, "pending registration sweep completed", "removed", removed)
}

// cronLogger adapts logging.Logger to the cron.Logger interface used by the
// recovery chain.
type cronLogger struct {
	l logging.Logger
}

func (c *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Info(context.Background(), msg, keysAndValues...)
}

func (c *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(context.Background(), msg, append([]any{"error", err}, keysAndValues...)...)
}

package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ExpiredDeleter removes records whose expiry predates the cutoff
type ExpiredDeleter interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper periodically purges records whose retention has long passed.
// In-memory purge tasks do not survive a restart; the sweep guarantees
// eventual cleanup regardless.
type Sweeper struct {
	cron      *cron.Cron
	repo      ExpiredDeleter
	retention time.Duration
	clock     Clock
}

// NewSweeper creates a sweeper running on the given cron schedule
func NewSweeper(schedule string, repo ExpiredDeleter, retention time.Duration, clock Clock) (*Sweeper, error) {
	s := &Sweeper{
		cron:      cron.New(),
		repo:      repo,
		retention: retention,
		clock:     clock,
	}

	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins the recurring sweep
func (s *Sweeper) Start() {
	slog.Info("Starting maintenance sweeper", "retention", s.retention.String())
	s.cron.Start()
}

// Stop halts the recurring sweep and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("Maintenance sweeper stopped")
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cutoff := s.clock.Now().Add(-s.retention)

	deleted, err := s.repo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		slog.Error("Maintenance sweep failed", "error", err)
		return
	}

	if deleted > 0 {
		slog.Info("Maintenance sweep purged records",
			"count", deleted,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}
}

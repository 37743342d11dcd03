// Package sweeper owns the two periodic background passes: the
// auto-complete sweep over reservations and the notification dispatch
// sweep. Both run on a fixed interval under one cron engine with an
// explicit start/stop lifecycle, so tests can call the sweep functions
// directly instead of waiting on wall-clock timers.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SweepFunc is one sweep pass. Implementations isolate per-row failures;
// an error returned here means the whole pass could not run.
type SweepFunc func(ctx context.Context) error

// Sweeper schedules named sweep passes at fixed intervals.
type Sweeper struct {
	cronEngine *cron.Cron
	log        *logrus.Entry
	jobTimeout time.Duration
}

// New creates an empty sweeper. Jobs are added with Add before Start.
func New(log *logrus.Logger) *Sweeper {
	return &Sweeper{
		cronEngine: cron.New(),
		log:        log.WithField("component", "sweeper"),
		jobTimeout: time.Minute,
	}
}

// Add registers a sweep to run every interval. Must be called before Start.
func (s *Sweeper) Add(name string, interval time.Duration, fn SweepFunc) error {
	if interval < time.Second {
		return fmt.Errorf("sweep %q: interval %s is below the 1s cron resolution", name, interval)
	}

	spec := fmt.Sprintf("@every %s", interval)
	_, err := s.cronEngine.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.log.WithError(err).WithField("sweep", name).Error("sweep pass failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep %q: %w", name, err)
	}

	s.log.WithFields(logrus.Fields{"sweep": name, "interval": interval}).Info("sweep registered")
	return nil
}

// Start launches the cron engine in its own goroutine.
func (s *Sweeper) Start() {
	s.cronEngine.Start()
	s.log.Info("sweeper started")
}

// Stop halts scheduling and waits for any running pass to finish.
func (s *Sweeper) Stop() {
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.log.Info("sweeper stopped")
}

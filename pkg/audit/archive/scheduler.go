package archive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the archiver on a cron schedule.
type Scheduler struct {
	archiver *Archiver
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
	hookMu   sync.Mutex
	onRun    func(*Result, error)
}

// NewScheduler creates a new archive scheduler.
func NewScheduler(archiver *Archiver) *Scheduler {
	return &Scheduler{
		archiver: archiver,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "audit.archive.scheduler"),
	}
}

// OnRun registers a hook called after every scheduled run. result is nil
// when err is set.
func (s *Scheduler) OnRun(fn func(result *Result, err error)) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.onRun = fn
}

// Start schedules archive runs using the configured cron expression.
//
// Common cron expressions:
//   - "0 3 * * *"    - Daily at 3 AM
//   - "0 */6 * * *"  - Every 6 hours
//   - "0 0 * * 0"    - Weekly on Sunday at midnight
//
// If Schedule is empty, the scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.archiver.config.Schedule
	if schedule == "" {
		s.logger.Info("archive schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	if _, err := s.cron.AddFunc(schedule, func() {
		s.runArchive(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule archiving: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("archive scheduler started",
		"schedule", schedule,
		"after_days", s.archiver.config.AfterDays,
		"directory", s.archiver.config.Directory,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runArchive(ctx context.Context) {
	s.logger.Info("starting scheduled audit archive")

	result, err := s.archiver.Run(ctx)
	s.hookMu.Lock()
	onRun := s.onRun
	s.hookMu.Unlock()
	if onRun != nil {
		onRun(result, err)
	}
	if err != nil {
		s.logger.Error("scheduled archive failed", "error", err)
		return
	}
	if result.Count > 0 {
		s.logger.Info("scheduled archive completed",
			"file", result.File,
			"archived_count", result.Count,
		)
	} else {
		s.logger.Debug("scheduled archive completed, nothing to archive")
	}
}

// Stop stops the scheduler and waits for any running job to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("archive scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled archive time.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}

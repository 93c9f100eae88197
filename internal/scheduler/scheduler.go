// Package scheduler manages the recurring background jobs.
package scheduler

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs on cron schedules. Each job name owns
// at most one cron entry: re-arming a name removes the prior entry first,
// so calling Arm twice (e.g. after a hot-reload re-init) never accumulates
// duplicate timers.
type Scheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID
	mu      sync.Mutex
	log     zerolog.Logger
}

// New creates a new scheduler
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		entries: make(map[string]cron.EntryID),
		log:     log.With().Str("component", "scheduler").Logger(),
	}
}

// Arm registers a job on the given cron schedule, stopping any prior entry
// armed under the same job name.
// Schedule examples:
//   - "0 6 * * *"   - Daily at 06:00
//   - "@hourly"     - Every hour
//   - "@every 30s"  - Every 30 seconds
func (s *Scheduler) Arm(schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prior, ok := s.entries[job.Name()]; ok {
		s.cron.Remove(prior)
		s.log.Info().Str("job", job.Name()).Msg("Stopped prior schedule entry before re-arming")
	}

	id, err := s.cron.AddFunc(schedule, func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", job.Name(), err)
	}

	s.entries[job.Name()] = id
	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job armed")

	return nil
}

// runJob executes one firing. Job failures are logged, never propagated:
// a failed run must not disturb the next natural firing.
func (s *Scheduler) runJob(job Job) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error().
				Str("job", job.Name()).
				Interface("panic", p).
				Msg("Job panicked")
		}
	}()

	s.log.Debug().Str("job", job.Name()).Msg("Running job")

	if err := job.Run(); err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Msg("Job failed")
	} else {
		s.log.Debug().Str("job", job.Name()).Msg("Job completed")
	}
}

// EntryCount returns the number of armed entries, used by status reporting
// and tests
func (s *Scheduler) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return job.Run()
}

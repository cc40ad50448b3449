// Package scheduler drives the recurring sync cycle: fetch completed
// tasks since the watermark, group them by day, merge each day's block
// into its daily note, advance the watermark, and rearm the timer.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/loggbok/internal/models"
	"github.com/starford/loggbok/internal/settings"
	"github.com/starford/loggbok/internal/vault"
)

// Source yields completed tasks stopped strictly after the watermark.
type Source interface {
	CompletedTasks(ctx context.Context, since int64) ([]models.Task, error)
}

// Notifier receives the user-visible outcome of each cycle.
type Notifier interface {
	PublishSyncCompleted(days, tasks int)
	PublishSyncFailed(errMsg string)
}

// Options configures a Scheduler.
type Options struct {
	Source   Source
	Notes    *vault.DailyNotes
	Vault    vault.Provider
	Settings *settings.Store
	Notifier Notifier // optional
	Logger   *slog.Logger
	Location *time.Location   // defaults to time.Local
	Now      func() time.Time // defaults to time.Now
}

// Scheduler owns the single outstanding sync timer and the watermark
// lifecycle. One event loop runs cycles serially, so two cycles can
// never overlap; a manual trigger during a running cycle parks in a
// single-slot queue and is coalesced into one follow-up cycle.
type Scheduler struct {
	source   Source
	notes    *vault.DailyNotes
	store    vault.Provider
	cfg      *settings.Store
	notifier Notifier
	logger   *slog.Logger
	loc      *time.Location
	now      func() time.Time

	triggerCh    chan struct{}
	rescheduleCh chan struct{}

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler. It does not start the loop; call Run.
func New(opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		source:       opts.Source,
		notes:        opts.Notes,
		store:        opts.Vault,
		cfg:          opts.Settings,
		notifier:     opts.Notifier,
		logger:       opts.Logger,
		loc:          opts.Location,
		now:          opts.Now,
		triggerCh:    make(chan struct{}, 1),
		rescheduleCh: make(chan struct{}, 1),
	}
}

// Run executes the scheduler loop until ctx is cancelled. The timer is
// rearmed after every cycle, success or failure: a failed cycle leaves
// the watermark in place so the next attempt re-covers the same
// window, and idempotent section merges make the re-render harmless.
// The failure rearm uses retryDelay, not NextDelay: the stale
// watermark keeps NextDelay at zero while the sync is overdue, and
// rearming from it would retry an unreachable logbook in a tight loop.
func (s *Scheduler) Run(ctx context.Context) error {
	delay := s.NextDelay()
	s.logger.Info("scheduler: started", slog.Duration("next_sync_in", delay))

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler: stopped")
			return nil

		case <-s.rescheduleCh:
			resetTimer(timer, s.NextDelay())
			continue

		case <-timer.C:
		case <-s.triggerCh:
		}

		s.setRunning(true)
		result, err := s.runCycle(ctx)
		s.setRunning(false)

		if err != nil {
			s.logger.Error("scheduler: cycle failed", slog.String("error", err.Error()))
			if s.notifier != nil {
				s.notifier.PublishSyncFailed(err.Error())
			}
			resetTimer(timer, s.retryDelay())
		} else {
			s.logger.Info("scheduler: cycle complete",
				slog.Int("days", result.Days),
				slog.Int("tasks", result.Tasks))
			if s.notifier != nil {
				s.notifier.PublishSyncCompleted(result.Days, result.Tasks)
			}
			resetTimer(timer, s.NextDelay())
		}
	}
}

// TriggerNow requests a sync cycle outside the schedule. If a cycle is
// already running or queued the request is coalesced with it.
func (s *Scheduler) TriggerNow() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

// Reschedule wakes the loop to recompute the timer from the current
// settings, e.g. after the interval changed.
func (s *Scheduler) Reschedule() {
	select {
	case s.rescheduleCh <- struct{}{}:
	default:
	}
}

// UpdateSettings applies a partial settings mutation, persists it, and
// reschedules when the change requires it. The returned bool reports
// whether a reschedule happened.
func (s *Scheduler) UpdateSettings(apply func(*settings.Settings)) (settings.Settings, bool, error) {
	before := s.cfg.Get()
	after, err := s.cfg.Update(apply)
	if err != nil {
		return after, false, err
	}
	resched := after.SyncInterval != before.SyncInterval
	if resched {
		s.Reschedule()
	}
	return after, resched, nil
}

// Status describes the scheduler for the status endpoint.
type Status struct {
	LastSyncTime int64 `json:"lastSyncTime"`
	NextSyncTime int64 `json:"nextSyncTime"`
	Running      bool  `json:"running"`
}

// Status returns the current watermark, the next due time, and whether
// a cycle is in flight.
func (s *Scheduler) Status() Status {
	cfg := s.cfg.Get()
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	return Status{
		LastSyncTime: cfg.LatestSyncTime,
		NextSyncTime: cfg.LatestSyncTime + cfg.SyncInterval,
		Running:      running,
	}
}

// NextDelay computes how long until the next scheduled cycle:
// watermark + interval − now, floored at zero so an overdue sync fires
// immediately.
func (s *Scheduler) NextDelay() time.Duration {
	cfg := s.cfg.Get()
	remaining := cfg.LatestSyncTime + cfg.SyncInterval - s.now().Unix()
	if remaining < 0 {
		remaining = 0
	}
	return time.Duration(remaining) * time.Second
}

// retryDelay is the rearm delay after a failed cycle: one full
// interval from now, regardless of the watermark.
func (s *Scheduler) retryDelay() time.Duration {
	return time.Duration(s.cfg.Get().SyncInterval) * time.Second
}

func (s *Scheduler) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

// resetTimer stops, drains, and rearms a timer. The loop owns the
// timer, so the drain cannot race with another receiver.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

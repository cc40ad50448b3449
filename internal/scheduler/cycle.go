package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/loggbok/internal/markdown"
	"github.com/starford/loggbok/internal/models"
	"github.com/starford/loggbok/internal/render"
	"github.com/starford/loggbok/internal/settings"
)

// CycleResult summarizes one successful sync cycle.
type CycleResult struct {
	Days  int
	Tasks int
}

// RunOnce executes a single sync cycle outside the timer loop, for the
// one-shot CLI command.
func (s *Scheduler) RunOnce(ctx context.Context) (CycleResult, error) {
	return s.runCycle(ctx)
}

// runCycle performs fetch → group → render → merge → advance-watermark.
// Day merges run concurrently and fail independently; the watermark
// only advances when every day succeeded, so a failed window is
// re-covered by the next attempt.
func (s *Scheduler) runCycle(ctx context.Context) (CycleResult, error) {
	cfg := s.cfg.Get()
	start := s.now()

	tasks, err := s.source.CompletedTasks(ctx, cfg.LatestSyncTime)
	if err != nil {
		return CycleResult{}, fmt.Errorf("cycle: fetch: %w", err)
	}

	days := render.GroupByDay(tasks, s.loc)
	renderer := render.New(cfg)

	var (
		g     errgroup.Group
		mu    sync.Mutex
		fails []error
		total int
	)
	for key, dayTasks := range days {
		total += len(dayTasks)
		g.Go(func() error {
			if err := s.mergeDay(key, dayTasks, renderer, cfg); err != nil {
				s.logger.Warn("cycle: day merge failed",
					slog.String("day", key),
					slog.String("error", err.Error()))
				mu.Lock()
				fails = append(fails, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(fails) > 0 {
		return CycleResult{}, fmt.Errorf("cycle: %d of %d days failed: %w",
			len(fails), len(days), errors.Join(fails...))
	}

	if _, err := s.cfg.Update(func(c *settings.Settings) {
		c.LatestSyncTime = start.Unix()
	}); err != nil {
		return CycleResult{}, fmt.Errorf("cycle: advance watermark: %w", err)
	}

	return CycleResult{Days: len(days), Tasks: total}, nil
}

// mergeDay renders one day's block and merges it into that day's note.
// The write is skipped when the merge changes nothing, so repeat syncs
// do not churn note mtimes.
func (s *Scheduler) mergeDay(key string, tasks []models.Task, renderer *render.Renderer, cfg settings.Settings) error {
	date, err := render.ParseDayKey(key, s.loc)
	if err != nil {
		return fmt.Errorf("day %s: %w", key, err)
	}

	path, err := s.notes.ResolveOrCreate(date)
	if err != nil {
		return fmt.Errorf("day %s: resolve note: %w", key, err)
	}

	current, err := s.store.Read(path)
	if err != nil {
		return fmt.Errorf("day %s: read note: %w", key, err)
	}

	body := renderer.Render(tasks)
	merged := markdown.UpdateSection(string(current), cfg.SectionHeading, body)
	if merged == string(current) {
		return nil
	}

	if err := s.store.Write(path, []byte(merged)); err != nil {
		return fmt.Errorf("day %s: write note: %w", key, err)
	}
	return nil
}

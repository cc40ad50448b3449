package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/loggbok/internal/models"
	"github.com/starford/loggbok/internal/settings"
	"github.com/starford/loggbok/internal/vault"
)

type fakeSource struct {
	tasks []models.Task
	err   error
	calls chan int64
}

func (f *fakeSource) CompletedTasks(_ context.Context, since int64) ([]models.Task, error) {
	if f.calls != nil {
		f.calls <- since
	}
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Task
	for _, t := range f.tasks {
		if t.StopDate > since {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	completed chan [2]int
	failed    chan string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		completed: make(chan [2]int, 8),
		failed:    make(chan string, 8),
	}
}

func (n *fakeNotifier) PublishSyncCompleted(days, tasks int) { n.completed <- [2]int{days, tasks} }
func (n *fakeNotifier) PublishSyncFailed(errMsg string)      { n.failed <- errMsg }

type env struct {
	sched *Scheduler
	store vault.Provider
	notes *vault.DailyNotes
	cfg   *settings.Store
}

func newEnv(t *testing.T, src Source, now func() time.Time) *env {
	t.Helper()

	dir := t.TempDir()
	store, err := vault.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	notes := vault.NewDailyNotes(store, "daily", "")

	cfg, err := settings.Open(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatal(err)
	}

	sched := New(Options{
		Source:   src,
		Notes:    notes,
		Vault:    store,
		Settings: cfg,
		Logger:   slog.Default(),
		Location: time.UTC,
		Now:      now,
	})
	return &env{sched: sched, store: store, notes: notes, cfg: cfg}
}

func fixedNow(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0).UTC() }
}

func TestNextDelay(t *testing.T) {
	e := newEnv(t, &fakeSource{}, fixedNow(1000))
	if _, err := e.cfg.Update(func(s *settings.Settings) {
		s.LatestSyncTime = 1000
		s.SyncInterval = 60
	}); err != nil {
		t.Fatal(err)
	}

	if got := e.sched.NextDelay(); got != 60*time.Second {
		t.Errorf("NextDelay = %v, want 60s", got)
	}

	e.sched.now = fixedNow(1100)
	if got := e.sched.NextDelay(); got != 0 {
		t.Errorf("overdue NextDelay = %v, want 0", got)
	}
}

func TestRetryDelay_NonZeroWhileOverdue(t *testing.T) {
	e := newEnv(t, &fakeSource{}, fixedNow(10_000))

	// Watermark 0 with the default 3600 s interval: the sync is long
	// overdue, so the regular rearm delay is zero.
	if got := e.sched.NextDelay(); got != 0 {
		t.Fatalf("NextDelay = %v, want 0 while overdue", got)
	}
	if got := e.sched.retryDelay(); got != 3600*time.Second {
		t.Errorf("retryDelay = %v, want one full interval", got)
	}
}

// countingSource fails every fetch and counts the attempts.
type countingSource struct {
	err   error
	calls atomic.Int64
}

func (c *countingSource) CompletedTasks(context.Context, int64) ([]models.Task, error) {
	c.calls.Add(1)
	return nil, c.err
}

func TestRun_FailedCycleDoesNotSpin(t *testing.T) {
	src := &countingSource{err: errors.New("logbook unreachable")}
	e := newEnv(t, src, nil) // real clock; watermark 0 makes the first cycle fire at once

	notifier := newFakeNotifier()
	e.sched.notifier = notifier

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = e.sched.Run(ctx)
		close(done)
	}()

	select {
	case <-notifier.failed:
	case <-time.After(5 * time.Second):
		t.Fatal("failed cycle not reported")
	}

	// The failure rearm is a full interval out, so an unreachable
	// logbook gets exactly one attempt here, not thousands.
	time.Sleep(300 * time.Millisecond)
	if got := src.calls.Load(); got != 1 {
		t.Errorf("fetch attempts = %d, want 1", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}

func TestRunOnce_MergesEachDayAndAdvancesWatermark(t *testing.T) {
	day1 := time.Date(2023, 11, 14, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2023, 11, 15, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{tasks: []models.Task{
		{Title: "first", Area: "Work", StopDate: day1.Unix()},
		{Title: "second", StopDate: day1.Add(time.Hour).Unix()},
		{Title: "next day", StopDate: day2.Unix()},
	}}
	nowUnix := day2.Add(6 * time.Hour).Unix()
	e := newEnv(t, src, fixedNow(nowUnix))

	result, err := e.sched.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if result.Days != 2 || result.Tasks != 3 {
		t.Errorf("result = %+v, want 2 days / 3 tasks", result)
	}

	note1, err := e.store.Read("daily/2023-11-14.md")
	if err != nil {
		t.Fatalf("read day 1 note: %v", err)
	}
	for _, want := range []string{"## Logbook", "### Work", "- [x] first", "- [x] second"} {
		if !strings.Contains(string(note1), want) {
			t.Errorf("day 1 note missing %q:\n%s", want, note1)
		}
	}

	note2, err := e.store.Read("daily/2023-11-15.md")
	if err != nil {
		t.Fatalf("read day 2 note: %v", err)
	}
	if !strings.Contains(string(note2), "- [x] next day") {
		t.Errorf("day 2 note missing task:\n%s", note2)
	}

	if got := e.cfg.Get().LatestSyncTime; got != nowUnix {
		t.Errorf("watermark = %d, want %d", got, nowUnix)
	}
}

func TestRunOnce_IdempotentMerge(t *testing.T) {
	day := time.Date(2023, 11, 14, 10, 0, 0, 0, time.UTC)
	src := &fakeSource{tasks: []models.Task{
		{Title: "task", StopDate: day.Unix(), Subtasks: []models.Subtask{{Title: "sub"}}},
	}}
	e := newEnv(t, src, fixedNow(day.Add(time.Hour).Unix()))

	if _, err := e.sched.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	once, _ := e.store.Read("daily/2023-11-14.md")

	// Rewind the watermark so the same window is fetched again, as a
	// failed cycle would leave it.
	if _, err := e.cfg.Update(func(s *settings.Settings) { s.LatestSyncTime = 0 }); err != nil {
		t.Fatal(err)
	}
	if _, err := e.sched.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	twice, _ := e.store.Read("daily/2023-11-14.md")

	if string(once) != string(twice) {
		t.Errorf("re-sync changed note:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestRunOnce_PreservesSurroundingSections(t *testing.T) {
	day := time.Date(2023, 11, 14, 10, 0, 0, 0, time.UTC)
	src := &fakeSource{tasks: []models.Task{{Title: "task", StopDate: day.Unix()}}}
	e := newEnv(t, src, fixedNow(day.Add(time.Hour).Unix()))

	existing := "# Tuesday\n\nMorning pages.\n\n## Logbook\nstale\n\n## Journal\nkeep me\n"
	if err := e.store.Write("daily/2023-11-14.md", []byte(existing)); err != nil {
		t.Fatal(err)
	}

	if _, err := e.sched.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	got, _ := e.store.Read("daily/2023-11-14.md")
	text := string(got)
	if !strings.Contains(text, "# Tuesday\n\nMorning pages.") {
		t.Errorf("preamble altered:\n%s", text)
	}
	if !strings.Contains(text, "## Journal\nkeep me\n") {
		t.Errorf("sibling section altered:\n%s", text)
	}
	if strings.Contains(text, "stale") {
		t.Errorf("old section body survived:\n%s", text)
	}
}

func TestRunOnce_FetchFailureKeepsWatermark(t *testing.T) {
	src := &fakeSource{err: errors.New("db locked")}
	e := newEnv(t, src, fixedNow(5000))
	if _, err := e.cfg.Update(func(s *settings.Settings) { s.LatestSyncTime = 1234 }); err != nil {
		t.Fatal(err)
	}

	if _, err := e.sched.RunOnce(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	if got := e.cfg.Get().LatestSyncTime; got != 1234 {
		t.Errorf("watermark moved on failure: %d", got)
	}
}

// failingVault wraps a Provider and fails reads of one path, so a
// single day's merge breaks while the others proceed.
type failingVault struct {
	vault.Provider
	failPath string
}

func (f *failingVault) Read(path string) ([]byte, error) {
	if path == f.failPath {
		return nil, errors.New("injected read failure")
	}
	return f.Provider.Read(path)
}

func TestRunOnce_DayFailureIsIsolated(t *testing.T) {
	day1 := time.Date(2023, 11, 14, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2023, 11, 15, 10, 0, 0, 0, time.UTC)
	src := &fakeSource{tasks: []models.Task{
		{Title: "bad day", StopDate: day1.Unix()},
		{Title: "good day", StopDate: day2.Unix()},
	}}
	e := newEnv(t, src, fixedNow(day2.Add(time.Hour).Unix()))

	fv := &failingVault{Provider: e.store, failPath: "daily/2023-11-14.md"}
	e.sched.store = fv
	e.sched.notes = vault.NewDailyNotes(fv, "daily", "")

	_, err := e.sched.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected cycle error")
	}

	// The healthy day still merged.
	note, readErr := e.store.Read("daily/2023-11-15.md")
	if readErr != nil {
		t.Fatalf("good day note missing: %v", readErr)
	}
	if !strings.Contains(string(note), "- [x] good day") {
		t.Errorf("good day note incomplete:\n%s", note)
	}

	// Watermark stays put so the window is retried.
	if got := e.cfg.Get().LatestSyncTime; got != 0 {
		t.Errorf("watermark advanced despite failure: %d", got)
	}
}

func TestUpdateSettings_RescheduleFlag(t *testing.T) {
	e := newEnv(t, &fakeSource{}, fixedNow(1000))

	_, resched, err := e.sched.UpdateSettings(func(s *settings.Settings) {
		s.IncludeTags = false
	})
	if err != nil {
		t.Fatal(err)
	}
	if resched {
		t.Error("cosmetic change should not reschedule")
	}

	_, resched, err = e.sched.UpdateSettings(func(s *settings.Settings) {
		s.SyncInterval = 30
	})
	if err != nil {
		t.Fatal(err)
	}
	if !resched {
		t.Error("interval change should reschedule")
	}
}

func TestRun_ManualTrigger(t *testing.T) {
	day := time.Date(2023, 11, 14, 10, 0, 0, 0, time.UTC)
	src := &fakeSource{tasks: []models.Task{{Title: "task", StopDate: day.Unix()}}}
	e := newEnv(t, src, nil) // real clock

	// Push the scheduled sync far into the future so only the manual
	// trigger can start a cycle, while keeping the watermark at zero
	// so the seeded task is still inside the fetch window.
	if _, err := e.cfg.Update(func(s *settings.Settings) {
		s.SyncInterval = 100_000_000 // ~3 years
	}); err != nil {
		t.Fatal(err)
	}

	notifier := newFakeNotifier()
	e.sched.notifier = notifier

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = e.sched.Run(ctx)
		close(done)
	}()

	e.sched.TriggerNow()

	select {
	case got := <-notifier.completed:
		if got[0] != 1 || got[1] != 1 {
			t.Errorf("completion notice = %v, want 1 day / 1 task", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("manual trigger did not complete a cycle")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}

package tracker

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"timetracker/internal/core/model"
	"timetracker/internal/core/worklog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fakeClock) Advance(delta time.Duration) {
	clock.mu.Lock()
	clock.now = clock.now.Add(delta)
	clock.mu.Unlock()
}

type scheduledTask struct {
	fn        func()
	cancelled bool
}

type manualScheduler struct {
	mu    sync.Mutex
	tasks []*scheduledTask
}

func (scheduler *manualScheduler) Every(_ time.Duration, fn func()) func() {
	task := &scheduledTask{fn: fn}
	scheduler.mu.Lock()
	scheduler.tasks = append(scheduler.tasks, task)
	scheduler.mu.Unlock()
	return func() {
		scheduler.mu.Lock()
		task.cancelled = true
		scheduler.mu.Unlock()
	}
}

func (scheduler *manualScheduler) Fire() {
	scheduler.mu.Lock()
	var active []func()
	for _, task := range scheduler.tasks {
		if !task.cancelled {
			active = append(active, task.fn)
		}
	}
	scheduler.mu.Unlock()

	for _, fn := range active {
		fn()
	}
}

func (scheduler *manualScheduler) Active() int {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	count := 0
	for _, task := range scheduler.tasks {
		if !task.cancelled {
			count++
		}
	}
	return count
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (notifier *recordingNotifier) Notify(title, message string) {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.messages = append(notifier.messages, title+": "+message)
}

func (notifier *recordingNotifier) Count() int {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	return len(notifier.messages)
}

type memorySink struct {
	writes []string
	err    error
}

func (sink *memorySink) Write(text string) error {
	if sink.err != nil {
		return sink.err
	}
	sink.writes = append(sink.writes, text)
	return nil
}

type harness struct {
	tracker   *Tracker
	clock     *fakeClock
	scheduler *manualScheduler
	notifier  *recordingNotifier
	sink      *memorySink
}

func newHarness(t *testing.T, config model.TrackerConfig) *harness {
	t.Helper()
	h := &harness{
		clock:     &fakeClock{now: time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)},
		scheduler: &manualScheduler{},
		notifier:  &recordingNotifier{},
		sink:      &memorySink{},
	}
	h.tracker = New(config, worklog.New(h.sink), Config{
		Now:       h.clock.Now,
		Scheduler: h.scheduler,
	})
	h.tracker.SetNotifier(h.notifier)
	return h
}

func (h *harness) Tick(count int) {
	for i := 0; i < count; i++ {
		h.clock.Advance(time.Second)
		h.scheduler.Fire()
	}
}

func lines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestStartThenStopLogsTwoLinesForSameDescription(t *testing.T) {
	h := newHarness(t, model.DefaultTrackerConfig())

	require.NoError(t, h.tracker.Start("reading mail"))
	require.NoError(t, h.tracker.Stop())

	logLines := lines(h.tracker.Snapshot().LogText)
	require.Len(t, logLines, 2)
	assert.Equal(t, "Started at 2026-03-14 09:30:00: reading mail", logLines[0])
	assert.Equal(t, "Ended at 2026-03-14 09:30:00 (Duration: 00:00:00): reading mail", logLines[1])
	assert.Len(t, h.sink.writes, 2)
}

func TestStartTickStopEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), worklog.FileName(time.Date(2026, 3, 14, 9, 29, 0, 0, time.Local)))
	clock := &fakeClock{now: time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)}
	scheduler := &manualScheduler{}
	tracker := New(model.DefaultTrackerConfig(), worklog.New(worklog.NewFileSink(path)), Config{
		Now:       clock.Now,
		Scheduler: scheduler,
	})

	require.NoError(t, tracker.Start("writing spec"))
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		scheduler.Fire()
	}
	assert.Equal(t, "00:00:05", tracker.Snapshot().Display)
	require.NoError(t, tracker.Stop())

	text := tracker.Snapshot().LogText
	assert.Contains(t, text, "Started at 2026-03-14 09:30:00: writing spec")
	assert.Contains(t, text, "Ended at 2026-03-14 09:30:05 (Duration: 00:00:05): writing spec")

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, text, string(onDisk))

	snapshot := tracker.Snapshot()
	assert.Equal(t, StateIdle, snapshot.State)
	assert.Equal(t, "00:00:00", snapshot.Display)
}

func TestStopWhileIdleChangesNothing(t *testing.T) {
	h := newHarness(t, model.DefaultTrackerConfig())

	before := h.tracker.Snapshot()
	require.NoError(t, h.tracker.Stop())

	assert.Equal(t, before, h.tracker.Snapshot())
	assert.Empty(t, h.sink.writes)
}

func TestLapWhileIdleChangesNothing(t *testing.T) {
	h := newHarness(t, model.DefaultTrackerConfig())

	require.NoError(t, h.tracker.Lap("anything"))

	assert.False(t, h.tracker.Running())
	assert.Empty(t, h.tracker.Snapshot().LogText)
	assert.Zero(t, h.scheduler.Active())
}

func TestStartWhileRunningIsNoop(t *testing.T) {
	h := newHarness(t, model.DefaultTrackerConfig())

	require.NoError(t, h.tracker.Start("first"))
	h.Tick(2)
	require.NoError(t, h.tracker.Start("second"))

	snapshot := h.tracker.Snapshot()
	assert.Equal(t, "first", snapshot.Description)
	assert.Equal(t, "00:00:02", snapshot.Display)
	assert.Len(t, lines(snapshot.LogText), 1)
	assert.Equal(t, 1, h.scheduler.Active())
}

func TestLapClosesAndReopensSession(t *testing.T) {
	h := newHarness(t, model.DefaultTrackerConfig())

	require.NoError(t, h.tracker.Start("design"))
	h.Tick(3)
	require.NoError(t, h.tracker.Lap("review"))

	snapshot := h.tracker.Snapshot()
	assert.Equal(t, StateRunning, snapshot.State)
	assert.Equal(t, "review", snapshot.Description)
	assert.Equal(t, "00:00:00", snapshot.Display)
	assert.Equal(t, h.clock.Now(), snapshot.StartedAt)
	assert.Equal(t, []string{
		"Started at 2026-03-14 09:30:00: design",
		"Ended at 2026-03-14 09:30:03 (Duration: 00:00:03): design",
		"Started at 2026-03-14 09:30:03: review",
	}, lines(snapshot.LogText))
	assert.Equal(t, 1, h.scheduler.Active())

	h.Tick(1)
	assert.Equal(t, "00:00:01", h.tracker.Snapshot().Display)
}

func TestStaleTickAfterRestartIsIgnored(t *testing.T) {
	h := newHarness(t, model.DefaultTrackerConfig())

	require.NoError(t, h.tracker.Start("a"))
	stale := h.scheduler.tasks[0].fn
	require.NoError(t, h.tracker.Stop())
	require.NoError(t, h.tracker.Start("b"))

	stale()
	assert.Equal(t, "00:00:00", h.tracker.Snapshot().Display)
}

func TestWallClockBreakFiresAfterInterval(t *testing.T) {
	config := model.DefaultTrackerConfig()
	config.BreakInterval = time.Minute
	h := newHarness(t, config)

	require.NoError(t, h.tracker.Start("focus"))
	h.Tick(59)
	assert.Zero(t, h.notifier.Count())

	h.Tick(1)
	require.Equal(t, 1, h.notifier.Count())
	assert.Equal(t, NotificationTitle+": "+NotificationMessage, h.notifier.messages[0])

	h.Tick(59)
	assert.Equal(t, 1, h.notifier.Count())
	h.Tick(1)
	assert.Equal(t, 2, h.notifier.Count())
}

func TestWallClockBreakSurvivesLap(t *testing.T) {
	config := model.DefaultTrackerConfig()
	config.BreakInterval = time.Minute
	h := newHarness(t, config)

	require.NoError(t, h.tracker.Start("focus"))
	h.Tick(40)
	require.NoError(t, h.tracker.Lap("focus again"))
	h.Tick(19)
	assert.Zero(t, h.notifier.Count())
	h.Tick(1)
	assert.Equal(t, 1, h.notifier.Count())
}

func TestWallClockBreakCatchesUpAfterStall(t *testing.T) {
	config := model.DefaultTrackerConfig()
	config.BreakInterval = time.Minute
	h := newHarness(t, config)

	require.NoError(t, h.tracker.Start("focus"))
	h.clock.Advance(5 * time.Minute)
	h.scheduler.Fire()

	assert.Equal(t, 1, h.notifier.Count())
	assert.Equal(t, "00:00:01", h.tracker.Snapshot().Display)
}

func TestElapsedBreakFiresOnMultiples(t *testing.T) {
	config := model.DefaultTrackerConfig()
	config.BreakInterval = time.Minute
	config.BreakPolicy = model.BreakPolicyElapsed
	h := newHarness(t, config)

	require.NoError(t, h.tracker.Start("focus"))
	h.Tick(59)
	assert.Zero(t, h.notifier.Count())
	h.Tick(1)
	assert.Equal(t, 1, h.notifier.Count())
	h.Tick(60)
	assert.Equal(t, 2, h.notifier.Count())
}

func TestElapsedBreakRestartsOnLap(t *testing.T) {
	config := model.DefaultTrackerConfig()
	config.BreakInterval = time.Minute
	config.BreakPolicy = model.BreakPolicyElapsed
	h := newHarness(t, config)

	require.NoError(t, h.tracker.Start("focus"))
	h.Tick(40)
	require.NoError(t, h.tracker.Lap("focus again"))
	h.Tick(20)
	assert.Zero(t, h.notifier.Count())
	h.Tick(40)
	assert.Equal(t, 1, h.notifier.Count())
}

func TestNoTicksWhileIdle(t *testing.T) {
	config := model.DefaultTrackerConfig()
	config.BreakInterval = time.Minute
	h := newHarness(t, config)

	require.NoError(t, h.tracker.Start("focus"))
	require.NoError(t, h.tracker.Stop())
	h.Tick(120)

	assert.Zero(t, h.notifier.Count())
	assert.Equal(t, "00:00:00", h.tracker.Snapshot().Display)
}

func TestCloseStopsActiveSession(t *testing.T) {
	h := newHarness(t, model.DefaultTrackerConfig())

	require.NoError(t, h.tracker.Start("late work"))
	h.Tick(2)
	require.NoError(t, h.tracker.Close())

	logLines := lines(h.tracker.Snapshot().LogText)
	require.Len(t, logLines, 2)
	assert.Equal(t, "Ended at 2026-03-14 09:30:02 (Duration: 00:00:02): late work", logLines[1])
	assert.False(t, h.tracker.Running())
	assert.Zero(t, h.scheduler.Active())
	require.NotEmpty(t, h.sink.writes)
	assert.Equal(t, h.tracker.Snapshot().LogText, h.sink.writes[len(h.sink.writes)-1])
}

func TestCloseWithoutStopOnCloseOnlyFlushes(t *testing.T) {
	config := model.DefaultTrackerConfig()
	config.StopOnClose = false
	h := newHarness(t, config)

	require.NoError(t, h.tracker.Start("left open"))
	require.NoError(t, h.tracker.Close())

	assert.Len(t, lines(h.tracker.Snapshot().LogText), 1)
	assert.Len(t, h.sink.writes, 2)
	assert.Zero(t, h.scheduler.Active())
}

func TestCloseIsIdempotentAndClosesObservers(t *testing.T) {
	h := newHarness(t, model.DefaultTrackerConfig())
	events := h.tracker.Subscribe(4)

	require.NoError(t, h.tracker.Close())
	require.NoError(t, h.tracker.Close())

	_, open := <-events
	assert.False(t, open)

	late := h.tracker.Subscribe(1)
	_, open = <-late
	assert.False(t, open)
}

func TestManualLogEditsArePersistedOnNextWrite(t *testing.T) {
	h := newHarness(t, model.DefaultTrackerConfig())

	h.tracker.SetLogText("Started at 2026-03-14 08:00:00: backfilled")
	assert.Empty(t, h.sink.writes)

	require.NoError(t, h.tracker.Start("now"))
	assert.Equal(t, []string{
		"Started at 2026-03-14 08:00:00: backfilled",
		"Started at 2026-03-14 09:30:00: now",
	}, lines(h.sink.writes[0]))
}

func TestEmptyDescriptionIsLoggedVerbatim(t *testing.T) {
	h := newHarness(t, model.DefaultTrackerConfig())

	require.NoError(t, h.tracker.Start(""))
	assert.Equal(t, "Started at 2026-03-14 09:30:00: ", h.tracker.Snapshot().LogText)
}

func TestPersistFailureIsReportedAndStateKept(t *testing.T) {
	h := newHarness(t, model.DefaultTrackerConfig())
	h.sink.err = errors.New("disk full")
	events := h.tracker.Subscribe(8)

	err := h.tracker.Start("task")
	require.Error(t, err)
	assert.ErrorIs(t, err, h.sink.err)
	assert.True(t, h.tracker.Running())
	assert.Contains(t, h.tracker.Snapshot().LogText, "task")

	var types []EventType
	for len(events) > 0 {
		types = append(types, (<-events).Type)
	}
	assert.Equal(t, []EventType{EventStarted, EventPersistError}, types)
}

func TestEventsFollowSessionLifecycle(t *testing.T) {
	config := model.DefaultTrackerConfig()
	config.BreakInterval = time.Minute
	config.BreakPolicy = model.BreakPolicyElapsed
	h := newHarness(t, config)
	events := h.tracker.Subscribe(128)

	require.NoError(t, h.tracker.Start("x"))
	h.Tick(60)
	require.NoError(t, h.tracker.Stop())

	first := <-events
	assert.Equal(t, EventStarted, first.Type)
	assert.Equal(t, "x", first.Description)

	var ticks, breaks int
	var last Event
	for len(events) > 0 {
		last = <-events
		switch last.Type {
		case EventTick:
			ticks++
		case EventBreakDue:
			breaks++
		}
	}
	assert.Equal(t, 60, ticks)
	assert.Equal(t, 1, breaks)
	assert.Equal(t, EventStopped, last.Type)
	assert.Equal(t, 60*time.Second, last.Duration)
}

func TestTickerSchedulerStopsOnCancel(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	cancel := TickerScheduler{}.Every(time.Millisecond, func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls > 0
	}, time.Second, time.Millisecond)

	cancel()
	cancel()
}

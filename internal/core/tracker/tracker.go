package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"timetracker/internal/core/model"
	"timetracker/internal/core/worklog"
)

const (
	// NotificationTitle is the title and app name of break reminders.
	NotificationTitle = "Simple Time Tracker"
	// NotificationMessage is the body of break reminders.
	NotificationMessage = "Time to check what you are doing, perhaps take a break?"
	// NotificationTimeout is how long reminders ask to stay on screen.
	NotificationTimeout = 10 * time.Second
)

// Notifier delivers break reminders. Delivery is fire and forget.
type Notifier interface {
	Notify(title, message string)
}

// Config contains runtime options for Tracker.
type Config struct {
	TickInterval time.Duration
	Now          func() time.Time
	Scheduler    Scheduler
}

// Snapshot is a read-only view of the tracker for renderers.
type Snapshot struct {
	State       State
	Description string
	StartedAt   time.Time
	Elapsed     time.Duration
	Display     string
	LogText     string
}

// Tracker is the stopwatch controller: one optional active session, a
// periodic tick while it runs, and an append-only log of session edges.
type Tracker struct {
	mu          sync.Mutex
	config      model.TrackerConfig
	options     Config
	log         *worklog.Log
	notifier    Notifier
	policy      breakPolicy
	running     bool
	startTime   time.Time
	description string
	elapsed     int
	generation  uint64
	cancelTick  func()
	events      []chan Event
	closed      bool
}

// New creates an idle Tracker writing to log.
func New(config model.TrackerConfig, log *worklog.Log, options Config) *Tracker {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Scheduler == nil {
		options.Scheduler = TickerScheduler{}
	}
	if config.BreakInterval <= 0 {
		config.BreakInterval = model.DefaultBreakInterval
	}
	if log == nil {
		log = worklog.New(nil)
	}

	return &Tracker{
		config:  config,
		options: options,
		log:     log,
		policy:  newBreakPolicy(config),
	}
}

// SetNotifier injects the break reminder collaborator.
func (tracker *Tracker) SetNotifier(notifier Notifier) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	tracker.notifier = notifier
}

// Subscribe registers a new observer channel.
func (tracker *Tracker) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	tracker.mu.Lock()
	if tracker.closed {
		close(ch)
	} else {
		tracker.events = append(tracker.events, ch)
	}
	tracker.mu.Unlock()
	return ch
}

// Config returns the configuration the tracker was built with.
func (tracker *Tracker) Config() model.TrackerConfig {
	return tracker.config
}

// Start opens a session with description. It is a no-op while running.
func (tracker *Tracker) Start(description string) error {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	if tracker.running || tracker.closed {
		return nil
	}

	now := tracker.options.Now()
	tracker.policy.reset(now)
	return tracker.startLocked(now, description)
}

// Stop closes the active session. It is a no-op while idle.
func (tracker *Tracker) Stop() error {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	if !tracker.running {
		return nil
	}
	return tracker.stopLocked(tracker.options.Now())
}

// Lap closes the active session and immediately opens a new one with
// description. Both log lines share one timestamp. It is a no-op while idle.
func (tracker *Tracker) Lap(description string) error {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	if !tracker.running {
		return nil
	}

	now := tracker.options.Now()
	stopErr := tracker.stopLocked(now)
	startErr := tracker.startLocked(now, description)
	return errors.Join(stopErr, startErr)
}

// Close stops an active session when configured to, persists the log a
// final time and closes all observers. Later calls do nothing.
func (tracker *Tracker) Close() error {
	tracker.mu.Lock()
	if tracker.closed {
		tracker.mu.Unlock()
		return nil
	}

	var stopErr error
	if tracker.running {
		if tracker.config.StopOnClose {
			stopErr = tracker.stopLocked(tracker.options.Now())
		} else {
			tracker.cancelTickLocked()
			tracker.running = false
		}
	}
	tracker.closed = true
	events := tracker.events
	tracker.events = nil
	tracker.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}

	var flushErr error
	if err := tracker.log.Flush(); err != nil {
		flushErr = fmt.Errorf("final log write: %w", err)
	}
	return errors.Join(stopErr, flushErr)
}

// SetLogText replaces the log with user-edited text. The edit is written out
// with the next log mutation or on Close.
func (tracker *Tracker) SetLogText(text string) {
	tracker.log.SetText(text)
}

// Running reports whether a session is active.
func (tracker *Tracker) Running() bool {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	return tracker.running
}

// Snapshot returns the current state.
func (tracker *Tracker) Snapshot() Snapshot {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	snapshot := Snapshot{
		State:   StateIdle,
		Elapsed: time.Duration(tracker.elapsed) * time.Second,
		Display: worklog.FormatSeconds(tracker.elapsed),
		LogText: tracker.log.Text(),
	}
	if tracker.running {
		snapshot.State = StateRunning
		snapshot.Description = tracker.description
		snapshot.StartedAt = tracker.startTime
	}
	return snapshot
}

func (tracker *Tracker) tick(generation uint64) {
	tracker.mu.Lock()
	if !tracker.running || generation != tracker.generation {
		tracker.mu.Unlock()
		return
	}

	now := tracker.options.Now()
	tracker.elapsed++
	elapsed := time.Duration(tracker.elapsed) * time.Second
	tracker.emitLocked(Event{
		Type:        EventTick,
		State:       StateRunning,
		Description: tracker.description,
		Elapsed:     elapsed,
		At:          now,
	})

	due := tracker.policy.due(now, tracker.elapsed)
	notifier := tracker.notifier
	if due {
		tracker.emitLocked(Event{
			Type:    EventBreakDue,
			State:   StateRunning,
			Elapsed: elapsed,
			Message: NotificationMessage,
			At:      now,
		})
	}
	tracker.mu.Unlock()

	if due {
		slog.Debug("break reminder due", "elapsed", elapsed, "policy", tracker.config.BreakPolicy)
		if notifier != nil {
			notifier.Notify(NotificationTitle, NotificationMessage)
		}
	}
}

func (tracker *Tracker) startLocked(now time.Time, description string) error {
	tracker.running = true
	tracker.startTime = now
	tracker.description = description
	tracker.elapsed = 0
	tracker.generation++
	generation := tracker.generation
	tracker.cancelTick = tracker.options.Scheduler.Every(tracker.options.TickInterval, func() {
		tracker.tick(generation)
	})

	tracker.emitLocked(Event{
		Type:        EventStarted,
		State:       StateRunning,
		Description: description,
		At:          now,
	})

	if err := tracker.log.Append(worklog.StartedLine(now, description)); err != nil {
		return tracker.persistFailedLocked(now, err)
	}
	return nil
}

func (tracker *Tracker) stopLocked(now time.Time) error {
	tracker.cancelTickLocked()
	duration := now.Sub(tracker.startTime)
	if duration < 0 {
		duration = 0
	}
	description := tracker.description

	tracker.running = false
	tracker.description = ""
	tracker.startTime = time.Time{}
	tracker.elapsed = 0

	tracker.emitLocked(Event{
		Type:        EventStopped,
		State:       StateIdle,
		Description: description,
		Duration:    duration,
		At:          now,
	})

	if err := tracker.log.Append(worklog.EndedLine(now, duration, description)); err != nil {
		return tracker.persistFailedLocked(now, err)
	}
	return nil
}

func (tracker *Tracker) cancelTickLocked() {
	if tracker.cancelTick != nil {
		tracker.cancelTick()
		tracker.cancelTick = nil
	}
	tracker.generation++
}

func (tracker *Tracker) persistFailedLocked(now time.Time, err error) error {
	err = fmt.Errorf("persist log: %w", err)
	state := StateIdle
	if tracker.running {
		state = StateRunning
	}
	tracker.emitLocked(Event{
		Type:    EventPersistError,
		State:   state,
		Message: err.Error(),
		At:      now,
	})
	return err
}

func (tracker *Tracker) emitLocked(event Event) {
	for _, ch := range tracker.events {
		select {
		case ch <- event:
		default:
		}
	}
}

package tracker

import "time"

// State represents the current tracker mode.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// EventType defines the type of tracker event.
type EventType string

const (
	EventStarted      EventType = "started"
	EventStopped      EventType = "stopped"
	EventTick         EventType = "tick"
	EventBreakDue     EventType = "break_due"
	EventPersistError EventType = "persist_error"
)

// Event represents a tracker update for observers.
type Event struct {
	Type        EventType
	State       State
	Description string
	Elapsed     time.Duration
	Duration    time.Duration
	Message     string
	At          time.Time
}

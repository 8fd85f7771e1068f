package model

import (
	"fmt"
	"time"
)

// BreakPolicy selects how the tracker decides a break reminder is due.
type BreakPolicy string

const (
	// BreakPolicyWallClock fires when the wall-clock time since the last
	// reminder reaches the interval.
	BreakPolicyWallClock BreakPolicy = "wallclock"
	// BreakPolicyElapsed fires whenever the session's elapsed seconds are a
	// multiple of the interval.
	BreakPolicyElapsed BreakPolicy = "elapsed"
)

// DefaultBreakInterval is used when no interval is configured.
const DefaultBreakInterval = 30 * time.Minute

// TrackerConfig contains runtime settings for the tracker controller.
type TrackerConfig struct {
	BreakInterval time.Duration
	BreakPolicy   BreakPolicy
	StopOnClose   bool
	LogDir        string
}

// DefaultTrackerConfig returns the settings used when nothing is configured.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		BreakInterval: DefaultBreakInterval,
		BreakPolicy:   BreakPolicyWallClock,
		StopOnClose:   true,
		LogDir:        ".",
	}
}

// Validate reports configuration the tracker cannot run with.
func (config TrackerConfig) Validate() error {
	if config.BreakInterval < time.Minute {
		return fmt.Errorf("break interval must be a positive number of minutes, got %s", config.BreakInterval)
	}
	if config.BreakInterval%time.Minute != 0 {
		return fmt.Errorf("break interval must be whole minutes, got %s", config.BreakInterval)
	}
	if _, err := ParseBreakPolicy(string(config.BreakPolicy)); err != nil {
		return err
	}
	return nil
}

// ParseBreakPolicy converts a user-supplied policy name.
func ParseBreakPolicy(value string) (BreakPolicy, error) {
	switch BreakPolicy(value) {
	case BreakPolicyWallClock, BreakPolicyElapsed:
		return BreakPolicy(value), nil
	default:
		return "", fmt.Errorf("unknown break policy %q (want %q or %q)", value, BreakPolicyWallClock, BreakPolicyElapsed)
	}
}

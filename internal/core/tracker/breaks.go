package tracker

import (
	"time"

	"timetracker/internal/core/model"
)

// breakPolicy decides whether a reminder is due on a tick.
type breakPolicy interface {
	// reset is called when a fresh session starts (not on lap).
	reset(now time.Time)
	due(now time.Time, elapsedSeconds int) bool
}

func newBreakPolicy(config model.TrackerConfig) breakPolicy {
	if config.BreakPolicy == model.BreakPolicyElapsed {
		return &elapsedPolicy{intervalSeconds: int(config.BreakInterval / time.Second)}
	}
	return &wallClockPolicy{interval: config.BreakInterval}
}

type wallClockPolicy struct {
	interval         time.Duration
	lastNotification time.Time
}

func (policy *wallClockPolicy) reset(now time.Time) {
	policy.lastNotification = now
}

func (policy *wallClockPolicy) due(now time.Time, _ int) bool {
	if now.Sub(policy.lastNotification) < policy.interval {
		return false
	}
	policy.lastNotification = now
	return true
}

// elapsedPolicy restarts with every session, laps included, since the
// elapsed counter does.
type elapsedPolicy struct {
	intervalSeconds int
}

func (policy *elapsedPolicy) reset(time.Time) {}

func (policy *elapsedPolicy) due(_ time.Time, elapsedSeconds int) bool {
	if policy.intervalSeconds <= 0 || elapsedSeconds <= 0 {
		return false
	}
	return elapsedSeconds%policy.intervalSeconds == 0
}

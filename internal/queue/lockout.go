package queue

import (
	"sync"

	"github.com/ironrail/throttle/internal/command"
)

// LockoutStatus reports the current holder of a source lockout.
type LockoutStatus struct {
	Source      command.Source
	RemainingMs int64
}

// Lockout enforces a cooldown window after a command is accepted from
// a source at or above SourcePhysical: for durationMs afterward, only
// a command from an equal-or-higher-priority source may be accepted.
// Sources below SourcePhysical never establish a lockout themselves —
// they pass through freely unless a higher-tier lockout already holds
// the motor. This is what stops MQTT or a web client from fighting
// physical knob control while still letting them fight each other
// freely, matching the original's SourceLockout::should_accept.
type Lockout struct {
	mu         sync.Mutex
	durationMs int64
	active     bool
	source     command.Source
	untilMs    int64
}

// NewLockout builds a lockout with the given cooldown window.
func NewLockout(durationMs int64) *Lockout {
	return &Lockout{durationMs: durationMs}
}

// ShouldAccept reports whether a command from source is accepted at
// nowMs, establishing or extending the lockout as a side effect when
// the command is accepted from a source at or above SourcePhysical.
// Admission and lockout establishment are a single atomic decision;
// there is no separate step that records the holder.
func (l *Lockout) ShouldAccept(source command.Source, nowMs int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active && nowMs >= l.untilMs {
		l.active = false
	}

	if !l.active {
		if source >= command.SourcePhysical {
			l.active = true
			l.source = source
			l.untilMs = nowMs + l.durationMs
		}
		return true
	}

	if source >= l.source {
		l.source = source
		l.untilMs = nowMs + l.durationMs
		return true
	}
	return false
}

// Clear releases the lockout unconditionally. Used on e-stop, which
// must never be held back by a lower-priority lockout window.
func (l *Lockout) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = false
}

// Status reports the current holder and remaining cooldown, if any.
func (l *Lockout) Status(nowMs int64) (LockoutStatus, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.active || nowMs >= l.untilMs {
		return LockoutStatus{}, false
	}
	return LockoutStatus{Source: l.source, RemainingMs: l.untilMs - nowMs}, true
}

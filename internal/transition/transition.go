// Package transition implements the Transition Manager: at most one
// active and one queued transition, interpolation driven by Strategy,
// and the lock/interrupt semantics that keep a protected departure
// from being knocked sideways by a lower-priority command.
package transition

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ironrail/throttle/internal/command"
	"github.com/ironrail/throttle/internal/speedval"
	"github.com/ironrail/throttle/internal/strategy"
)

// RejectReason explains why try_start refused to install a transition.
type RejectReason int

const (
	ReasonTransitionLocked RejectReason = iota
	ReasonLowerPriority
	ReasonQueueFull
)

func (r RejectReason) String() string {
	switch r {
	case ReasonTransitionLocked:
		return "transition_locked"
	case ReasonLowerPriority:
		return "lower_priority"
	case ReasonQueueFull:
		return "queue_full"
	default:
		return "unknown"
	}
}

// ResultKind tags the outcome of TryStart.
type ResultKind int

const (
	ResultStarted ResultKind = iota
	ResultQueued
	ResultInterrupted
	ResultRejected
)

func (k ResultKind) String() string {
	switch k {
	case ResultStarted:
		return "started"
	case ResultQueued:
		return "queued"
	case ResultInterrupted:
		return "interrupted"
	case ResultRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Result is the outcome of a TryStart call.
type Result struct {
	Kind           ResultKind
	PreviousTarget speedval.Speed // valid when Kind == ResultInterrupted
	Reason         RejectReason   // valid when Kind == ResultRejected
}

func started() Result                                 { return Result{Kind: ResultStarted} }
func queued() Result                                  { return Result{Kind: ResultQueued} }
func interrupted(prevTarget speedval.Speed) Result     { return Result{Kind: ResultInterrupted, PreviousTarget: prevTarget} }
func rejected(reason RejectReason) Result              { return Result{Kind: ResultRejected, Reason: reason} }

// ActiveTransition is the currently-running interpolation, if any.
type ActiveTransition struct {
	ID        uuid.UUID
	From      speedval.Speed
	To        speedval.Speed
	Strategy  strategy.Strategy
	StartedMs int64
	Source    command.Source
	Lock      strategy.LockLevel
	Interrupt strategy.InterruptPolicy
}

// QueuedTransition is the single deferred command waiting for the
// active transition to finish.
type QueuedTransition struct {
	To       speedval.Speed
	Strategy strategy.Strategy
	Source   command.Source
}

// LockStatus reports who, if anyone, holds the active transition.
type LockStatus struct {
	Source    command.Source
	Target    speedval.Speed
	HasQueued bool
}

// Progress reports the running state of the active transition.
type Progress struct {
	From              speedval.Speed
	To                speedval.Speed
	Current           speedval.Speed
	ElapsedMs         int64
	EstimatedTotalMs  int64
	HasEstimatedTotal bool
}

// Manager holds at most one active and one queued transition and
// drives their interpolation. All methods are safe for concurrent
// use; a single mutex guards the whole struct, matching the
// teacher's orderbook.OrderBook (one mutex per book, not
// fine-grained per field).
type Manager struct {
	mu           sync.Mutex
	currentValue speedval.Speed
	active       *ActiveTransition
	queued       *QueuedTransition
}

// NewManager starts the manager at the given initial value, idle.
func NewManager(initial speedval.Speed) *Manager {
	return &Manager{currentValue: initial}
}

// TryStart attempts to install a new transition. An e-stop always
// flushes both slots; otherwise a Hard lock, or a Source lock held by a
// higher-priority source, hands the command to applyInterruptPolicy,
// and every other case replaces the active transition.
func (m *Manager) TryStart(to speedval.Speed, strat strategy.Strategy, source command.Source, isEstop bool, nowMs int64) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if isEstop {
		hadActive := m.active != nil
		var prevTarget speedval.Speed
		if hadActive {
			prevTarget = m.active.To
		}
		m.active = nil
		m.queued = nil
		m.currentValue = to
		if hadActive {
			return interrupted(prevTarget)
		}
		return started()
	}

	if m.active != nil {
		switch m.active.Lock {
		case strategy.LockHard:
			return m.applyInterruptPolicy(m.active.Interrupt, to, strat, source)
		case strategy.LockSource:
			if source < m.active.Source {
				return m.applyInterruptPolicy(m.active.Interrupt, to, strat, source)
			}
			// incoming source is equal or higher priority: fall through to replace.
		case strategy.LockNone:
			// fall through to replace.
		}
	}

	hadActive := m.active != nil
	var prevTarget speedval.Speed
	if hadActive {
		prevTarget = m.active.To
	}
	m.installActive(to, strat, source, nowMs)
	if hadActive {
		return interrupted(prevTarget)
	}
	return started()
}

// applyInterruptPolicy handles the three ways a locked active
// transition can respond to a disallowed incoming command. The
// reason codes are fixed by policy, independent of which lock level
// triggered the check.
func (m *Manager) applyInterruptPolicy(policy strategy.InterruptPolicy, to speedval.Speed, strat strategy.Strategy, source command.Source) Result {
	switch policy {
	case strategy.InterruptReject:
		return rejected(ReasonTransitionLocked)
	case strategy.InterruptQueue:
		if m.queued == nil {
			m.queued = &QueuedTransition{To: to, Strategy: strat, Source: source}
			return queued()
		}
		return rejected(ReasonQueueFull)
	case strategy.InterruptReplace:
		// Contradictory state (locked but replace) — fail closed.
		return rejected(ReasonLowerPriority)
	default:
		return rejected(ReasonTransitionLocked)
	}
}

// installActive installs a new active transition whose from is the
// current interpolated value, never the old target, so interruptions
// never produce a jump.
func (m *Manager) installActive(to speedval.Speed, strat strategy.Strategy, source command.Source, nowMs int64) {
	m.active = &ActiveTransition{
		ID:        uuid.New(),
		From:      m.currentValue,
		To:        to,
		Strategy:  strat,
		StartedMs: nowMs,
		Source:    source,
		Lock:      strat.Lock(),
		Interrupt: strat.OnInterrupt(),
	}
}

// Update drives the active transition (promoting a queued one first,
// if idle) and returns the resulting value and whether the manager is
// now idle.
func (m *Manager) Update(nowMs int64) (speedval.Speed, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(nowMs)
}

func (m *Manager) updateLocked(nowMs int64) (speedval.Speed, bool) {
	if m.active == nil {
		if m.queued != nil {
			q := m.queued
			m.queued = nil
			m.installActive(q.To, q.Strategy, q.Source, nowMs)
			return m.updateLocked(nowMs)
		}
		return m.currentValue, true
	}

	elapsed := nowMs - m.active.StartedMs
	if elapsed < 0 {
		elapsed = 0 // saturating_sub
	}

	value, done := m.active.Strategy.Interpolate(m.active.From, m.active.To, elapsed)
	m.currentValue = value
	if done {
		m.active = nil
	}
	return value, done
}

// CancelAndSet drops both slots and sets current_value directly. Used
// by fault handling, which must pre-empt any running transition
// without cooperation.
func (m *Manager) CancelAndSet(v speedval.Speed) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = nil
	m.queued = nil
	m.currentValue = v
}

// CancelAll drops both slots, preserving current_value.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = nil
	m.queued = nil
}

// CurrentValue returns the most recently interpolated value.
func (m *Manager) CurrentValue() speedval.Speed {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentValue
}

// LockStatus reports the active transition's holder, target, and
// whether a command is queued behind it. The second return value is
// false when no transition is active.
func (m *Manager) LockStatus() (LockStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return LockStatus{}, false
	}
	return LockStatus{Source: m.active.Source, Target: m.active.To, HasQueued: m.queued != nil}, true
}

// Progress reports the active transition's interpolation state for
// telemetry. The second return value is false when no transition is
// active.
func (m *Manager) Progress(nowMs int64) (Progress, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return Progress{}, false
	}
	elapsed := nowMs - m.active.StartedMs
	if elapsed < 0 {
		elapsed = 0
	}
	total, hasTotal := m.active.Strategy.DurationMs()
	return Progress{
		From:              m.active.From,
		To:                m.active.To,
		Current:           m.currentValue,
		ElapsedMs:         elapsed,
		EstimatedTotalMs:  total,
		HasEstimatedTotal: hasTotal,
	}, true
}

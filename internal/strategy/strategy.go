// Package strategy implements the four execution strategies a speed
// transition can run under. Each is a small, cheaply-copied value
// type; the Strategy interface itself is the object-erased wrapper
// the design notes call for — Go's interfaces give first-class
// dynamic dispatch, so there is no separate tagged-union type to hand-roll.
package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/ironrail/throttle/internal/speedval"
)

// LockLevel controls how strongly a running transition resists replacement.
type LockLevel int

const (
	LockNone LockLevel = iota
	LockSource
	LockHard
)

func (l LockLevel) String() string {
	switch l {
	case LockNone:
		return "none"
	case LockSource:
		return "source"
	case LockHard:
		return "hard"
	default:
		return "unknown"
	}
}

// InterruptPolicy controls what happens to a disallowed incoming command.
type InterruptPolicy int

const (
	InterruptReplace InterruptPolicy = iota
	InterruptQueue
	InterruptReject
)

func (p InterruptPolicy) String() string {
	switch p {
	case InterruptReplace:
		return "replace"
	case InterruptQueue:
		return "queue"
	case InterruptReject:
		return "reject"
	default:
		return "unknown"
	}
}

// Strategy is a pure interpolation rule plus two policy bits. Every
// implementation must be a value type: cheap to copy, safe to send
// between goroutines, no pointer receivers, no shared mutable state.
type Strategy interface {
	// Interpolate returns the speed at elapsedMs since the transition
	// started, and whether the transition is complete. When done is
	// true, value must equal to exactly — the endpoint law.
	Interpolate(from, to speedval.Speed, elapsedMs int64) (value speedval.Speed, done bool)
	// DurationMs returns the strategy's total duration, if it has a
	// fixed one. Momentum has none: its duration depends on from/to.
	DurationMs() (ms int64, ok bool)
	Lock() LockLevel
	OnInterrupt() InterruptPolicy
}

// Immediate jumps straight to the target.
type Immediate struct{}

func (Immediate) Interpolate(_, to speedval.Speed, _ int64) (speedval.Speed, bool) {
	return to, true
}

func (Immediate) DurationMs() (int64, bool)        { return 0, true }
func (Immediate) Lock() LockLevel                  { return LockNone }
func (Immediate) OnInterrupt() InterruptPolicy      { return InterruptReplace }

// Linear ramps at a constant rate over DurationMs.
type Linear struct {
	duration  int64
	lock      LockLevel
	interrupt InterruptPolicy
}

// NewLinear builds an unlocked, replaceable linear ramp.
func NewLinear(durationMs int64) Linear {
	return Linear{duration: durationMs, lock: LockNone, interrupt: InterruptReplace}
}

// LockedLinear builds a hard-locked, non-interruptible linear ramp —
// used for departures that must not be cut short.
func LockedLinear(durationMs int64) Linear {
	return Linear{duration: durationMs, lock: LockHard, interrupt: InterruptReject}
}

// SourceLockedLinear builds a source-locked, replaceable-by-equal-or-
// higher-priority linear ramp.
func SourceLockedLinear(durationMs int64) Linear {
	return Linear{duration: durationMs, lock: LockSource, interrupt: InterruptReplace}
}

func (l Linear) Interpolate(from, to speedval.Speed, elapsedMs int64) (speedval.Speed, bool) {
	if l.duration == 0 || elapsedMs >= l.duration {
		return to, true
	}
	t := decimal.NewFromInt(elapsedMs).Div(decimal.NewFromInt(l.duration))
	delta := to.Sub(from)
	return from.Add(delta.Mul(t)).Clamp(speedval.Zero, speedval.Full), false
}

func (l Linear) DurationMs() (int64, bool)       { return l.duration, true }
func (l Linear) Lock() LockLevel                 { return l.lock }
func (l Linear) OnInterrupt() InterruptPolicy    { return l.interrupt }

// EaseInOut ramps along a smoothstep curve: t^2 * (3 - 2t).
type EaseInOut struct {
	duration  int64
	lock      LockLevel
	interrupt InterruptPolicy
}

// NewEaseInOut builds an unlocked, replaceable ease curve.
func NewEaseInOut(durationMs int64) EaseInOut {
	return EaseInOut{duration: durationMs, lock: LockNone, interrupt: InterruptReplace}
}

// DepartureEaseInOut builds a hard-locked, non-interruptible ease
// curve for a protected departure.
func DepartureEaseInOut(durationMs int64) EaseInOut {
	return EaseInOut{duration: durationMs, lock: LockHard, interrupt: InterruptReject}
}

// ArrivalEaseInOut builds a source-locked ease curve that queues a
// disallowed incoming command instead of rejecting or replacing it.
func ArrivalEaseInOut(durationMs int64) EaseInOut {
	return EaseInOut{duration: durationMs, lock: LockSource, interrupt: InterruptQueue}
}

func (e EaseInOut) Interpolate(from, to speedval.Speed, elapsedMs int64) (speedval.Speed, bool) {
	if e.duration == 0 || elapsedMs >= e.duration {
		return to, true
	}
	t := decimal.NewFromInt(elapsedMs).Div(decimal.NewFromInt(e.duration))
	three := decimal.NewFromInt(3)
	two := decimal.NewFromInt(2)
	smooth := t.Mul(t).Mul(three.Sub(two.Mul(t)))
	delta := to.Sub(from)
	return from.Add(delta.Mul(smooth)).Clamp(speedval.Zero, speedval.Full), false
}

func (e EaseInOut) DurationMs() (int64, bool)    { return e.duration, true }
func (e EaseInOut) Lock() LockLevel              { return e.lock }
func (e EaseInOut) OnInterrupt() InterruptPolicy { return e.interrupt }

// Momentum accelerates toward the target at a capped rate. Its
// duration is data-dependent (it depends on |to - from|), so
// DurationMs reports unknown.
type Momentum struct {
	// AccelerationPerSec is speed-fraction gained per second-squared.
	AccelerationPerSec decimal.Decimal
	// MaxRatePerSec caps the instantaneous rate of change.
	MaxRatePerSec decimal.Decimal
}

func (m Momentum) Interpolate(from, to speedval.Speed, elapsedMs int64) (speedval.Speed, bool) {
	delta := to.Decimal().Sub(from.Decimal())
	if delta.IsZero() {
		return to, true
	}
	sign := decimal.NewFromInt(int64(delta.Sign()))
	absDelta := delta.Abs()

	elapsedSec := speedval.FromMillis(elapsedMs)
	rate := m.AccelerationPerSec.Mul(elapsedSec)
	if rate.GreaterThan(m.MaxRatePerSec) {
		rate = m.MaxRatePerSec
	}
	magnitude := rate.Mul(elapsedSec)

	if magnitude.Cmp(absDelta) >= 0 {
		return to, true
	}

	displacement := magnitude.Mul(sign)
	return speedval.FromDecimal(from.Decimal().Add(displacement)), false
}

func (m Momentum) DurationMs() (int64, bool)    { return 0, false }
func (Momentum) Lock() LockLevel                { return LockNone }
func (Momentum) OnInterrupt() InterruptPolicy   { return InterruptReplace }

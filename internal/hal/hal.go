// Package hal defines the hardware abstraction boundary: the
// capability-set interfaces the controller drives, and nothing about
// how a concrete board implements them. Simulated implementations for
// bench testing and the embedded demo live in the hal/simulated
// subpackage.
package hal

import (
	"time"

	"github.com/ironrail/throttle/internal/command"
	"github.com/ironrail/throttle/internal/speedval"
)

// Motor is the output surface for the commanded speed and direction.
// SetSpeed and SetDirection are independent writes — the controller
// decides when each fires, since a direction change and an in-flight
// speed transition do not always land on the same tick.
// ReadCurrentMa is an optional capability: a board with no current
// sense returns ok=false rather than an error.
type Motor interface {
	SetSpeed(speed speedval.Speed) error
	SetDirection(direction command.Direction) error
	ReadCurrentMa() (ma int, ok bool, err error)
}

// StopMotor brings m to a full stop, speed first then direction,
// mirroring the order a hand-written stop would use on a board where
// direction can only be changed once the motor is no longer driving.
func StopMotor(m Motor) error {
	if err := m.SetSpeed(speedval.Zero); err != nil {
		return err
	}
	return m.SetDirection(command.DirectionStopped)
}

// Encoder reports the physical throttle knob's rotation and button.
// Poll samples the underlying GPIO/quadrature state; it must be
// called once per tick before ReadDelta or ButtonJustPressed are
// read, the same polling discipline a debounced rotary encoder needs
// on real hardware. ReadDelta consumes the clicks accumulated since
// the previous call: positive is clockwise (speed increase).
type Encoder interface {
	Poll() error
	ReadDelta() (int32, error)
	ButtonPressed() (bool, error)
	ButtonJustPressed() (bool, error)
}

// FaultDetector reports faults out of band from command flow — the
// controller polls it once per tick rather than being interrupted,
// keeping the hot path single-threaded. IsShortCircuit and
// IsOvercurrent are independent probes; FaultCurrentMa is a
// diagnostic reading that may be unavailable (ok=false) on a board
// with no current sense.
type FaultDetector interface {
	Poll() error
	IsShortCircuit() (bool, error)
	IsOvercurrent() (bool, error)
	FaultCurrentMa() (ma int, ok bool, err error)
}

// ActiveFault derives the single reportable fault from a detector's
// independent probes, short-circuit taking precedence over
// overcurrent when both fire at once.
func ActiveFault(f FaultDetector) (command.FaultKind, bool, error) {
	short, err := f.IsShortCircuit()
	if err != nil {
		return 0, false, err
	}
	if short {
		return command.FaultShortCircuit, true, nil
	}
	over, err := f.IsOvercurrent()
	if err != nil {
		return 0, false, err
	}
	if over {
		return command.FaultOvercurrent, true, nil
	}
	return 0, false, nil
}

// Clock is the sole source of time the controller consults, so tests
// can drive it deterministically instead of racing a wall clock.
type Clock interface {
	NowMs() int64
}

// Display renders throttle state for a human at the controls. It is
// best-effort: a Display failure must never affect arbitration.
type Display interface {
	Init() error
	Clear() error
	Render(snapshot Snapshot) error
	ShowMessage(line1 string, line2 *string) error
}

// Snapshot is the read-only state handed to a Display and to
// telemetry consumers.
type Snapshot struct {
	Speed         speedval.Speed
	Direction     command.Direction
	MaxSpeed      speedval.Speed
	Faulted       bool
	FaultKind     command.FaultKind
	Transitioning bool
	NowMs         int64
}

// SystemClock is the real-time Clock backed by time.Now, used by the
// hosted cmd/throttle binary.
type SystemClock struct{}

func (SystemClock) NowMs() int64 { return time.Now().UnixMilli() }

// Package command defines the tagged Command union, the Source and
// CommandKind orderings, and the e-stop promotion rule that makes
// arbitration possible across heterogeneous input sources.
package command

import (
	"github.com/google/uuid"

	"github.com/ironrail/throttle/internal/speedval"
	"github.com/ironrail/throttle/internal/strategy"
)

// Source identifies where a command originated. The ordering is the
// total order used for both lockout comparisons and queue priority:
// Mqtt < WebApi < WebLocal < Physical < Fault < Emergency.
type Source int

const (
	SourceMqtt Source = iota
	SourceWebApi
	SourceWebLocal
	SourcePhysical
	SourceFault
	SourceEmergency
)

func (s Source) String() string {
	switch s {
	case SourceMqtt:
		return "mqtt"
	case SourceWebApi:
		return "web_api"
	case SourceWebLocal:
		return "web_local"
	case SourcePhysical:
		return "physical"
	case SourceFault:
		return "fault"
	case SourceEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// CommandKind orders command variants by priority within a source:
// SetMaxSpeed < SetDirection < SetSpeed < EmergencyStop.
type CommandKind int

const (
	KindSetMaxSpeed CommandKind = iota
	KindSetDirection
	KindSetSpeed
	KindEmergencyStop
)

func (k CommandKind) String() string {
	switch k {
	case KindSetMaxSpeed:
		return "set_max_speed"
	case KindSetDirection:
		return "set_direction"
	case KindSetSpeed:
		return "set_speed"
	case KindEmergencyStop:
		return "emergency_stop"
	default:
		return "unknown"
	}
}

// Direction is orthogonal to speed magnitude.
type Direction int

const (
	DirectionStopped Direction = iota
	DirectionForward
	DirectionReverse
)

func (d Direction) String() string {
	switch d {
	case DirectionStopped:
		return "stopped"
	case DirectionForward:
		return "forward"
	case DirectionReverse:
		return "reverse"
	default:
		return "unknown"
	}
}

// FaultKind is reported by the HAL's FaultDetector. ShortCircuit
// outranks Overcurrent when both are raised simultaneously.
type FaultKind int

const (
	FaultShortCircuit FaultKind = iota
	FaultOvercurrent
)

func (f FaultKind) String() string {
	switch f {
	case FaultShortCircuit:
		return "short_circuit"
	case FaultOvercurrent:
		return "overcurrent"
	default:
		return "unknown"
	}
}

// Command is a tagged union of the four command variants. The concrete
// variant types are the static form; at the engine boundary commands
// are always boxed into this interface, which is the "dynamic form" —
// Go interfaces already erase the concrete type, so converting
// a concrete variant into the union is just assigning it to a
// Command-typed value, total and free of allocation beyond the
// interface's own word pair.
type Command interface {
	Kind() CommandKind
}

// SetSpeed requests a transition to Target under Strategy.
type SetSpeed struct {
	Target   speedval.Speed
	Strategy strategy.Strategy
}

func (SetSpeed) Kind() CommandKind { return KindSetSpeed }

// SetDirection requests an immediate direction change.
type SetDirection struct {
	Direction Direction
}

func (SetDirection) Kind() CommandKind { return KindSetDirection }

// SetMaxSpeed caps the speed subsequent SetSpeed commands may reach.
type SetMaxSpeed struct {
	Value speedval.Speed
}

func (SetMaxSpeed) Kind() CommandKind { return KindSetMaxSpeed }

// EmergencyStop is a state transition, not an ordinary command: it
// carries the side effect of flushing any active and queued
// transition. It must never be routed through the same path as an
// ordinary Emergency-source SetSpeed.
type EmergencyStop struct{}

func (EmergencyStop) Kind() CommandKind { return KindEmergencyStop }

// IsEstop reports whether c is an EmergencyStop variant.
func IsEstop(c Command) bool {
	_, ok := c.(EmergencyStop)
	return ok
}

// Priority is the sole ordering key for arbitration: (effective
// source, kind). Timestamps break no ties — they are retained on
// PrioritizedCommand for diagnostics only.
type Priority struct {
	Source Source
	Kind   CommandKind
}

// Less reports whether p sorts before other — p is lower priority.
func (p Priority) Less(other Priority) bool {
	if p.Source != other.Source {
		return p.Source < other.Source
	}
	return p.Kind < other.Kind
}

// PrioritizedCommand tags a Command with its Source and submission time.
type PrioritizedCommand struct {
	ID          uuid.UUID
	Command     Command
	Source      Source
	TimestampMs uint64
}

// Priority computes the e-stop promotion: an EmergencyStop command's
// effective source is always Emergency, regardless of its declared
// Source, so an e-stop from any source is indistinguishable from an
// Emergency-source command for arbitration purposes.
func (p PrioritizedCommand) Priority() Priority {
	if IsEstop(p.Command) {
		return Priority{Source: SourceEmergency, Kind: KindEmergencyStop}
	}
	return Priority{Source: p.Source, Kind: p.Command.Kind()}
}

// Package throttle implements the Throttle Controller: the single
// point where admitted commands are applied to the Transition Manager
// and HAL Motor, and where fault handling pre-empts everything else.
package throttle

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ironrail/throttle/internal/command"
	"github.com/ironrail/throttle/internal/hal"
	"github.com/ironrail/throttle/internal/queue"
	"github.com/ironrail/throttle/internal/speedval"
	"github.com/ironrail/throttle/internal/strategy"
	"github.com/ironrail/throttle/internal/transition"
)

// Outcome is the result of ApplyCommand.
type Outcome struct {
	Admission     queue.Admission
	Transition    transition.Result
	FaultRejected bool
}

// Controller owns the transition manager, the command processor, and
// the orthogonal direction/max-speed/fault state a transition alone
// cannot express.
type Controller struct {
	mu sync.Mutex

	motor     hal.Motor
	clock     hal.Clock
	tm        *transition.Manager
	processor *queue.Processor

	direction command.Direction
	maxSpeed  speedval.Speed

	faulted   bool
	faultKind command.FaultKind
}

// New builds a controller idle at zero speed, stopped direction, and
// max speed uncapped.
func New(motor hal.Motor, clock hal.Clock, lockoutMs int64, queueCapacity int) *Controller {
	return &Controller{
		motor:     motor,
		clock:     clock,
		tm:        transition.NewManager(speedval.Zero),
		processor: queue.NewProcessor(lockoutMs, queueCapacity),
		direction: command.DirectionStopped,
		maxSpeed:  speedval.Full,
	}
}

// ApplyCommand admits cmd from source through the lockout/queue and,
// if admitted immediately, applies it. An EmergencyStop always
// bypasses the lockout and flushes anything queued behind it. A
// command arriving while the controller is faulted is rejected
// outright unless it is an EmergencyStop.
func (c *Controller) ApplyCommand(cmd command.Command, source command.Source) Outcome {
	now := c.clock.NowMs()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.faulted && !command.IsEstop(cmd) {
		return Outcome{FaultRejected: true}
	}

	pc := command.PrioritizedCommand{ID: uuid.New(), Command: cmd, Source: source, TimestampMs: uint64(now)}

	adm := c.processor.Submit(pc, now)
	if !adm.Accepted {
		return Outcome{Admission: adm}
	}

	return Outcome{Admission: adm, Transition: c.execute(pc, now)}
}

// execute applies an already-admitted command to the transition
// manager and orthogonal state.
func (c *Controller) execute(pc command.PrioritizedCommand, now int64) transition.Result {
	switch v := pc.Command.(type) {
	case command.SetSpeed:
		target := v.Target
		if target.GreaterThan(c.maxSpeed) {
			target = c.maxSpeed
		}
		return c.tm.TryStart(target, v.Strategy, pc.Source, false, now)

	case command.SetDirection:
		c.direction = v.Direction
		c.motor.SetDirection(v.Direction)
		return transition.Result{Kind: transition.ResultStarted}

	case command.SetMaxSpeed:
		// The cap only clamps future SetSpeed targets (above) and the
		// value Update writes to the motor each tick — an in-flight
		// transition whose target already exceeds the new cap keeps
		// running untouched.
		c.maxSpeed = v.Value
		return transition.Result{Kind: transition.ResultStarted}

	case command.EmergencyStop:
		res := c.tm.TryStart(speedval.Zero, strategy.Immediate{}, command.SourceEmergency, true, now)
		c.direction = command.DirectionStopped
		c.motor.SetDirection(command.DirectionStopped)
		c.motor.SetSpeed(speedval.Zero)
		return res

	default:
		return transition.Result{Kind: transition.ResultRejected, Reason: transition.ReasonTransitionLocked}
	}
}

// Update drives the controller for one tick: it promotes any queued
// command whose lockout has expired, advances the active transition,
// and writes the result to the Motor. It is a no-op with respect to
// the Motor while faulted beyond holding it at Stop.
func (c *Controller) Update(nowMs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cmd, ok := c.processor.Drain(nowMs); ok {
		c.execute(cmd, nowMs)
	}

	value, _ := c.tm.Update(nowMs)

	if c.faulted {
		hal.StopMotor(c.motor)
		return
	}

	// Safety belt: the max-speed cap is enforced on every tick's
	// output, never just on the target a transition was started
	// toward, so a cap lowered mid-transition still bounds what
	// actually reaches the motor.
	if value.GreaterThan(c.maxSpeed) {
		value = c.maxSpeed
	}
	c.motor.SetSpeed(value)
}

// HandleFault pre-empts any running transition, stops the motor, and
// latches the controller faulted until ClearFault is called.
func (c *Controller) HandleFault(kind command.FaultKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.faulted = true
	c.faultKind = kind
	c.tm.CancelAndSet(speedval.Zero)
	c.direction = command.DirectionStopped
	hal.StopMotor(c.motor)
}

// ClearFault releases the fault latch. The controller remains at zero
// speed until a new command arrives.
func (c *Controller) ClearFault() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.faulted = false
}

// State returns a read-only snapshot for telemetry and display.
func (c *Controller) State(nowMs int64) hal.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, transitioning := c.tm.LockStatus()
	return hal.Snapshot{
		Speed:         c.tm.CurrentValue(),
		Direction:     c.direction,
		MaxSpeed:      c.maxSpeed,
		Faulted:       c.faulted,
		FaultKind:     c.faultKind,
		Transitioning: transitioning,
		NowMs:         nowMs,
	}
}

package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ironrail/throttle/internal/command"
	"github.com/ironrail/throttle/internal/speedval"
	"github.com/ironrail/throttle/internal/strategy"
)

func TestTryStartIdleInstallsActive(t *testing.T) {
	m := NewManager(speedval.Zero)
	res := m.TryStart(speedval.Full, strategy.NewLinear(1000), command.SourceWebApi, false, 0)
	assert.Equal(t, ResultStarted, res.Kind)

	status, ok := m.LockStatus()
	assert.True(t, ok)
	assert.Equal(t, command.SourceWebApi, status.Source)
}

func TestLinearHalfwayThenComplete(t *testing.T) {
	m := NewManager(speedval.Zero)
	m.TryStart(speedval.Full, strategy.NewLinear(1000), command.SourceWebApi, false, 0)

	v, done := m.Update(500)
	assert.False(t, done)
	assert.InDelta(t, 0.5, v.Float64(), 0.01)

	v, done = m.Update(1000)
	assert.True(t, done)
	assert.True(t, v.Equal(speedval.Full))

	_, ok := m.LockStatus()
	assert.False(t, ok)
}

func TestEstopInterruptsLockedDeparture(t *testing.T) {
	m := NewManager(speedval.Zero)
	m.TryStart(speedval.Full, strategy.LockedLinear(5000), command.SourceWebApi, false, 0)
	m.Update(1000) // partway through, now_ms=1000

	res := m.TryStart(speedval.Zero, strategy.Immediate{}, command.SourceMqtt, true, 1000)
	assert.Equal(t, ResultInterrupted, res.Kind)
	assert.True(t, res.PreviousTarget.Equal(speedval.Full))
	assert.True(t, m.CurrentValue().Equal(speedval.Zero))

	_, ok := m.LockStatus()
	assert.False(t, ok, "e-stop must flush the active transition, not merely override its target")
}

func TestHardLockRejectsIncoming(t *testing.T) {
	m := NewManager(speedval.Zero)
	m.TryStart(speedval.Full, strategy.LockedLinear(1000), command.SourceWebApi, false, 0)

	res := m.TryStart(speedval.New(0.5), strategy.NewLinear(200), command.SourcePhysical, false, 10)
	assert.Equal(t, ResultRejected, res.Kind)
	assert.Equal(t, ReasonTransitionLocked, res.Reason)
}

func TestArrivalQueuesThenRunsAfterCompletion(t *testing.T) {
	m := NewManager(speedval.Zero)
	// Locked by a higher-priority source; a lower-priority incoming command
	// falls inside the LockSource check and hits the Queue interrupt policy.
	m.TryStart(speedval.New(0.5), strategy.ArrivalEaseInOut(1000), command.SourcePhysical, false, 0)

	res := m.TryStart(speedval.Full, strategy.NewLinear(500), command.SourceWebApi, false, 10)
	assert.Equal(t, ResultQueued, res.Kind)

	// A second queue attempt while one is already queued must be rejected.
	res = m.TryStart(speedval.Zero, strategy.NewLinear(500), command.SourceWebApi, false, 20)
	assert.Equal(t, ResultRejected, res.Kind)
	assert.Equal(t, ReasonQueueFull, res.Reason)

	// The ease-in-out arrival completes at now_ms=1000.
	v, done := m.Update(1000)
	assert.True(t, done)
	assert.True(t, v.Equal(speedval.New(0.5)))

	// The next tick promotes the queued linear ramp to active, starting
	// from the value the arrival left behind.
	v, done = m.Update(1000)
	assert.False(t, done)
	assert.True(t, v.Equal(speedval.New(0.5)))

	status, ok := m.LockStatus()
	assert.True(t, ok)
	assert.Equal(t, speedval.Full, status.Target)

	// Drive the promoted ramp to completion.
	v, done = m.Update(1500)
	assert.True(t, done)
	assert.True(t, v.Equal(speedval.Full))
}

func TestSourceLockYieldsToHigherPrioritySource(t *testing.T) {
	m := NewManager(speedval.Zero)
	m.TryStart(speedval.New(0.5), strategy.SourceLockedLinear(1000), command.SourceWebApi, false, 0)

	// Lower priority than WebApi: rejected via the source lock's interrupt policy (Replace -> LowerPriority).
	res := m.TryStart(speedval.Full, strategy.NewLinear(200), command.SourceMqtt, false, 10)
	assert.Equal(t, ResultRejected, res.Kind)
	assert.Equal(t, ReasonLowerPriority, res.Reason)

	// Equal or higher priority than WebApi: replaces.
	res = m.TryStart(speedval.Full, strategy.NewLinear(200), command.SourcePhysical, false, 10)
	assert.Equal(t, ResultInterrupted, res.Kind)
}

func TestCancelAndSetDropsBothSlots(t *testing.T) {
	m := NewManager(speedval.Zero)
	m.TryStart(speedval.Full, strategy.LockedLinear(1000), command.SourceWebApi, false, 0)
	m.CancelAndSet(speedval.New(0.25))

	assert.True(t, m.CurrentValue().Equal(speedval.New(0.25)))
	_, ok := m.LockStatus()
	assert.False(t, ok)

	v, done := m.Update(0)
	assert.True(t, done)
	assert.True(t, v.Equal(speedval.New(0.25)))
}

func TestUpdateIdleIsNoop(t *testing.T) {
	m := NewManager(speedval.New(0.3))
	v1, done1 := m.Update(100)
	v2, done2 := m.Update(200)
	assert.True(t, done1)
	assert.True(t, done2)
	assert.True(t, v1.Equal(v2))
}

func TestInstallFromIsCurrentValueNotOldTarget(t *testing.T) {
	m := NewManager(speedval.Zero)
	m.TryStart(speedval.Full, strategy.NewLinear(1000), command.SourceWebApi, false, 0)
	m.Update(500) // current_value is now ~0.5

	m.TryStart(speedval.Zero, strategy.NewLinear(1000), command.SourceWebApi, false, 500)
	v, _ := m.Update(500) // elapsed 0 since new transition started
	assert.InDelta(t, 0.5, v.Float64(), 0.01, "a replaced transition must depart from the live value, not jump")
}

func TestProgressReportsEstimatedTotal(t *testing.T) {
	m := NewManager(speedval.Zero)
	m.TryStart(speedval.Full, strategy.NewLinear(1000), command.SourceWebApi, false, 0)

	p, ok := m.Progress(250)
	assert.True(t, ok)
	assert.Equal(t, int64(250), p.ElapsedMs)
	assert.True(t, p.HasEstimatedTotal)
	assert.Equal(t, int64(1000), p.EstimatedTotalMs)

	m.Update(1000)
	_, ok = m.Progress(1000)
	assert.False(t, ok)
}

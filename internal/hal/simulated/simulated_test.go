package simulated

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ironrail/throttle/internal/command"
	"github.com/ironrail/throttle/internal/speedval"
)

func TestMotorRecordsLastWrite(t *testing.T) {
	m := &Motor{}
	assert.NoError(t, m.SetSpeed(speedval.New(0.6)))
	assert.NoError(t, m.SetDirection(command.DirectionForward))

	speed, dir := m.Last()
	assert.True(t, speed.Equal(speedval.New(0.6)))
	assert.Equal(t, command.DirectionForward, dir)
}

func TestMotorHasNoCurrentSense(t *testing.T) {
	m := &Motor{}
	_, ok, err := m.ReadCurrentMa()
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestEncoderReadDeltaConsumesAccumulated(t *testing.T) {
	e := &Encoder{}
	e.Nudge(3)
	e.Nudge(2)

	delta, err := e.ReadDelta()
	assert.NoError(t, err)
	assert.Equal(t, int32(5), delta)

	delta, err = e.ReadDelta()
	assert.NoError(t, err)
	assert.Equal(t, int32(0), delta, "ReadDelta must reset the accumulator")
}

func TestEncoderButtonJustPressedIsEdgeTriggered(t *testing.T) {
	e := &Encoder{}
	e.SetButtonPressed(true)
	e.Poll()

	pressed, err := e.ButtonJustPressed()
	assert.NoError(t, err)
	assert.True(t, pressed)

	// Still held down, no new poll edge, second call reports no edge.
	e.Poll()
	pressed, err = e.ButtonJustPressed()
	assert.NoError(t, err)
	assert.False(t, pressed)

	held, err := e.ButtonPressed()
	assert.NoError(t, err)
	assert.True(t, held)
}

func TestFaultDetectorIndependentProbes(t *testing.T) {
	f := &FaultDetector{}
	short, _ := f.IsShortCircuit()
	over, _ := f.IsOvercurrent()
	assert.False(t, short)
	assert.False(t, over)

	f.SetOvercurrent(true)
	over, _ = f.IsOvercurrent()
	assert.True(t, over)
	short, _ = f.IsShortCircuit()
	assert.False(t, short)
}

func TestClockAdvances(t *testing.T) {
	c := NewClock(100)
	assert.Equal(t, int64(100), c.NowMs())
	c.Advance(50)
	assert.Equal(t, int64(150), c.NowMs())
}

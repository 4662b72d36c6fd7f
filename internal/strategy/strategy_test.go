package strategy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ironrail/throttle/internal/speedval"
)

func TestImmediateEndpointLaw(t *testing.T) {
	v, done := Immediate{}.Interpolate(speedval.New(0.2), speedval.New(0.9), 12345)
	assert.True(t, done)
	assert.True(t, v.Equal(speedval.New(0.9)))
}

func TestLinearBoundaries(t *testing.T) {
	l := NewLinear(1000)

	t.Run("zero elapsed returns from", func(t *testing.T) {
		v, done := l.Interpolate(speedval.Zero, speedval.Full, 0)
		assert.False(t, done)
		assert.True(t, v.Equal(speedval.Zero))
	})

	t.Run("midpoint returns arithmetic mean", func(t *testing.T) {
		v, done := l.Interpolate(speedval.Zero, speedval.Full, 500)
		assert.False(t, done)
		assert.InDelta(t, 0.5, v.Float64(), 0.01)
	})

	t.Run("past duration returns to exactly, done", func(t *testing.T) {
		v, done := l.Interpolate(speedval.Zero, speedval.Full, 1000)
		assert.True(t, done)
		assert.True(t, v.Equal(speedval.Full))
	})

	t.Run("zero duration behaves as immediate", func(t *testing.T) {
		zero := NewLinear(0)
		v, done := zero.Interpolate(speedval.Zero, speedval.New(0.4), 0)
		assert.True(t, done)
		assert.True(t, v.Equal(speedval.New(0.4)))
	})

	t.Run("monotone progress", func(t *testing.T) {
		v1, _ := l.Interpolate(speedval.Zero, speedval.Full, 100)
		v2, _ := l.Interpolate(speedval.Zero, speedval.Full, 900)
		assert.True(t, v1.Cmp(v2) <= 0)
	})
}

func TestLinearConstructorPolicies(t *testing.T) {
	assert.Equal(t, LockNone, NewLinear(1).Lock())
	assert.Equal(t, InterruptReplace, NewLinear(1).OnInterrupt())

	assert.Equal(t, LockHard, LockedLinear(1).Lock())
	assert.Equal(t, InterruptReject, LockedLinear(1).OnInterrupt())

	assert.Equal(t, LockSource, SourceLockedLinear(1).Lock())
	assert.Equal(t, InterruptReplace, SourceLockedLinear(1).OnInterrupt())
}

func TestEaseInOutBoundaries(t *testing.T) {
	e := NewEaseInOut(1000)

	t.Run("t=0 returns from", func(t *testing.T) {
		v, done := e.Interpolate(speedval.New(0.2), speedval.New(0.8), 0)
		assert.False(t, done)
		assert.True(t, v.Equal(speedval.New(0.2)))
	})

	t.Run("t=d returns to, done", func(t *testing.T) {
		v, done := e.Interpolate(speedval.New(0.2), speedval.New(0.8), 1000)
		assert.True(t, done)
		assert.True(t, v.Equal(speedval.New(0.8)))
	})

	t.Run("midpoint returns arithmetic mean", func(t *testing.T) {
		v, done := e.Interpolate(speedval.Zero, speedval.Full, 500)
		assert.False(t, done)
		assert.InDelta(t, 0.5, v.Float64(), 0.001)
	})
}

func TestEaseInOutConstructorPolicies(t *testing.T) {
	assert.Equal(t, LockHard, DepartureEaseInOut(1).Lock())
	assert.Equal(t, InterruptReject, DepartureEaseInOut(1).OnInterrupt())

	assert.Equal(t, LockSource, ArrivalEaseInOut(1).Lock())
	assert.Equal(t, InterruptQueue, ArrivalEaseInOut(1).OnInterrupt())
}

func TestMomentum(t *testing.T) {
	m := Momentum{
		AccelerationPerSec: decimal.NewFromFloat(2.0),
		MaxRatePerSec:      decimal.NewFromFloat(1.0),
	}

	t.Run("from equals to completes immediately at any elapsed", func(t *testing.T) {
		v, done := m.Interpolate(speedval.New(0.4), speedval.New(0.4), 999)
		assert.True(t, done)
		assert.True(t, v.Equal(speedval.New(0.4)))
	})

	t.Run("never overshoots to", func(t *testing.T) {
		v, done := m.Interpolate(speedval.Zero, speedval.Full, 5000)
		assert.True(t, done)
		assert.True(t, v.Equal(speedval.Full))
	})

	t.Run("duration is unknown", func(t *testing.T) {
		_, ok := m.DurationMs()
		assert.False(t, ok)
	})

	t.Run("progresses toward target without reaching it early", func(t *testing.T) {
		v, done := m.Interpolate(speedval.Zero, speedval.Full, 10)
		assert.False(t, done)
		assert.True(t, v.GreaterThan(speedval.Zero))
		assert.True(t, v.LessThan(speedval.Full))
	})
}

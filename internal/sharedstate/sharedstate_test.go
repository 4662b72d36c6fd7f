package sharedstate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ironrail/throttle/internal/command"
	"github.com/ironrail/throttle/internal/hal/simulated"
	"github.com/ironrail/throttle/internal/speedval"
	"github.com/ironrail/throttle/internal/strategy"
	"github.com/ironrail/throttle/internal/throttle"
)

func TestCheckChangesOnlyReportsOnDifference(t *testing.T) {
	motor := &simulated.Motor{}
	s := New(throttle.New(motor, simulated.NewClock(0), 200, 8))

	_, changed := s.CheckChanges(0)
	assert.True(t, changed, "first call has no prior snapshot to compare against")

	_, changed = s.CheckChanges(0)
	assert.False(t, changed, "nothing moved between calls")

	s.ApplyCommand(command.SetSpeed{Target: speedval.New(0.5), Strategy: strategy.Immediate{}}, command.SourceWebApi)
	s.Update(0)

	snap, changed := s.CheckChanges(0)
	assert.True(t, changed)
	assert.True(t, snap.Speed.Equal(speedval.New(0.5)))
}

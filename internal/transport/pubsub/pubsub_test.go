package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ironrail/throttle/internal/command"
	"github.com/ironrail/throttle/internal/speedval"
)

func TestDecodeSetSpeed(t *testing.T) {
	cmd, ok := decode(wireCommand{Kind: "set_speed", Target: 0.6, Strategy: "linear", DurationMs: 500})
	assert.True(t, ok)
	ss, isSetSpeed := cmd.(command.SetSpeed)
	assert.True(t, isSetSpeed)
	assert.True(t, ss.Target.Equal(speedval.New(0.6)))
	d, ok := ss.Strategy.DurationMs()
	assert.True(t, ok)
	assert.Equal(t, int64(500), d)
}

func TestDecodeEmergencyStop(t *testing.T) {
	cmd, ok := decode(wireCommand{Kind: "emergency_stop"})
	assert.True(t, ok)
	assert.True(t, command.IsEstop(cmd))
}

func TestDecodeUnknownKind(t *testing.T) {
	_, ok := decode(wireCommand{Kind: "reboot"})
	assert.False(t, ok)
}

func TestDecodeSetDirection(t *testing.T) {
	cmd, ok := decode(wireCommand{Kind: "set_direction", Direction: "reverse"})
	assert.True(t, ok)
	sd, isSetDirection := cmd.(command.SetDirection)
	assert.True(t, isSetDirection)
	assert.Equal(t, command.DirectionReverse, sd.Direction)
}

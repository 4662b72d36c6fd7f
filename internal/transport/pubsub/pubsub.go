// Package pubsub wires the remote Mqtt command source and the
// outbound telemetry fan-out onto NATS subjects.
package pubsub

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/ironrail/throttle/internal/command"
	"github.com/ironrail/throttle/internal/hal"
	"github.com/ironrail/throttle/internal/sharedstate"
	"github.com/ironrail/throttle/internal/speedval"
	"github.com/ironrail/throttle/internal/strategy"
)

const (
	subjectCommands  = "throttle.commands"
	subjectTelemetry = "throttle.telemetry"
)

// wireCommand is the JSON envelope commands arrive in on
// subjectCommands.
type wireCommand struct {
	Kind       string  `json:"kind"`
	Target     float64 `json:"target,omitempty"`
	Direction  string  `json:"direction,omitempty"`
	Strategy   string  `json:"strategy,omitempty"`
	DurationMs int64   `json:"duration_ms,omitempty"`
}

// Client wraps a *nats.Conn, subscribing it to the command subject
// and publishing telemetry snapshots.
type Client struct {
	conn   *nats.Conn
	shared *sharedstate.Shared
	log    *zap.Logger
	sub    *nats.Subscription
}

// Connect dials url and subscribes to the command subject, applying
// every valid command it decodes to shared as an Mqtt-source command.
func Connect(url string, shared *sharedstate.Shared, log *zap.Logger) (*Client, error) {
	conn, err := nats.Connect(url, nats.Name("throttle-controller"))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}

	c := &Client{conn: conn, shared: shared, log: log}
	sub, err := conn.Subscribe(subjectCommands, c.handleMessage)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", subjectCommands, err)
	}
	c.sub = sub
	return c, nil
}

func (c *Client) handleMessage(msg *nats.Msg) {
	var wc wireCommand
	if err := json.Unmarshal(msg.Data, &wc); err != nil {
		c.log.Warn("discarding malformed mqtt command", zap.Error(err))
		return
	}

	cmd, ok := decode(wc)
	if !ok {
		c.log.Warn("discarding unknown mqtt command kind", zap.String("kind", wc.Kind))
		return
	}

	c.shared.ApplyCommand(cmd, command.SourceMqtt)
}

func decode(wc wireCommand) (command.Command, bool) {
	switch wc.Kind {
	case "set_speed":
		return command.SetSpeed{
			Target:   speedval.New(wc.Target),
			Strategy: resolveStrategy(wc.Strategy, wc.DurationMs),
		}, true
	case "set_direction":
		return command.SetDirection{Direction: resolveDirection(wc.Direction)}, true
	case "set_max_speed":
		return command.SetMaxSpeed{Value: speedval.New(wc.Target)}, true
	case "emergency_stop":
		return command.EmergencyStop{}, true
	default:
		return nil, false
	}
}

func resolveStrategy(name string, durationMs int64) strategy.Strategy {
	switch name {
	case "linear":
		return strategy.NewLinear(durationMs)
	case "ease_in_out":
		return strategy.NewEaseInOut(durationMs)
	default:
		return strategy.Immediate{}
	}
}

func resolveDirection(name string) command.Direction {
	switch name {
	case "forward":
		return command.DirectionForward
	case "reverse":
		return command.DirectionReverse
	default:
		return command.DirectionStopped
	}
}

// PublishSnapshot publishes snap to the telemetry subject. Failures
// are logged, never propagated: a broker outage must never affect
// arbitration.
func (c *Client) PublishSnapshot(snap hal.Snapshot) {
	data, err := json.Marshal(map[string]any{
		"speed":         snap.Speed.Float64(),
		"direction":     snap.Direction.String(),
		"max_speed":     snap.MaxSpeed.Float64(),
		"faulted":       snap.Faulted,
		"transitioning": snap.Transitioning,
		"now_ms":        snap.NowMs,
	})
	if err != nil {
		c.log.Warn("failed to marshal telemetry snapshot", zap.Error(err))
		return
	}
	if err := c.conn.Publish(subjectTelemetry, data); err != nil {
		c.log.Warn("failed to publish telemetry snapshot", zap.Error(err))
	}
}

// Close unsubscribes and drains the connection.
func (c *Client) Close() error {
	if err := c.sub.Unsubscribe(); err != nil {
		return fmt.Errorf("unsubscribing from %s: %w", subjectCommands, err)
	}
	return c.conn.Drain()
}

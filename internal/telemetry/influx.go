package telemetry

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/ironrail/throttle/internal/hal"
)

// InfluxSink writes speed/direction snapshots to an InfluxDB bucket
// using the non-blocking write API, so a slow or unreachable InfluxDB
// instance never stalls the control loop.
type InfluxSink struct {
	client influxdb2.Client
	writer api.WriteAPI
	bucket string
}

// NewInfluxSink opens a non-blocking write client against url/org/bucket.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	client := influxdb2.NewClient(url, token)
	return &InfluxSink{
		client: client,
		writer: client.WriteAPI(org, bucket),
		bucket: bucket,
	}
}

// WriteSnapshot enqueues a point for snap, timestamped at snap.NowMs.
// Write errors are reported by the underlying client asynchronously on
// its Errors channel; this sink does not read that channel.
func (s *InfluxSink) WriteSnapshot(snap hal.Snapshot) {
	point := influxdb2.NewPointWithMeasurement("throttle_state").
		AddTag("direction", snap.Direction.String()).
		AddField("speed", snap.Speed.Float64()).
		AddField("max_speed", snap.MaxSpeed.Float64()).
		AddField("faulted", snap.Faulted).
		AddField("transitioning", snap.Transitioning).
		SetTime(time.UnixMilli(snap.NowMs))
	s.writer.WritePoint(point)
}

// Close flushes pending writes and releases the client.
func (s *InfluxSink) Close(ctx context.Context) error {
	s.writer.Flush()
	s.client.Close()
	select {
	case <-ctx.Done():
		return fmt.Errorf("closing influx sink: %w", ctx.Err())
	default:
		return nil
	}
}

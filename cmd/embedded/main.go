// Command embedded runs the controller as a single-threaded 50Hz
// superloop against the simulated HAL, the shape the controller takes
// on a microcontroller with no OS scheduler: one goroutine, one
// ticker, no transport layer.
package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ironrail/throttle/internal/command"
	"github.com/ironrail/throttle/internal/hal"
	"github.com/ironrail/throttle/internal/hal/simulated"
	"github.com/ironrail/throttle/internal/speedval"
	"github.com/ironrail/throttle/internal/strategy"
	"github.com/ironrail/throttle/internal/throttle"
)

const tickInterval = 20 * time.Millisecond // 50Hz

func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	motor := &simulated.Motor{}
	encoder := &simulated.Encoder{}
	faults := &simulated.FaultDetector{}
	display := &simulated.Display{}
	clock := simulated.NewClock(time.Now().UnixMilli())

	controller := throttle.New(motor, clock, 200, 8)
	display.Init()

	// Seed a departure so the loop has something to show immediately.
	controller.ApplyCommand(command.SetSpeed{Target: speedval.New(0.4), Strategy: strategy.NewLinear(2000)}, command.SourcePhysical)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	knobSpeed := speedval.New(0.4)
	tick := 0
	for range ticker.C {
		tick++
		clock.Advance(tickInterval.Milliseconds())
		nowMs := clock.NowMs()

		encoder.Poll()
		if delta, err := encoder.ReadDelta(); err == nil && delta != 0 {
			knobSpeed = knobSpeed.Add(speedval.New(float64(delta) / 100)).Clamp(speedval.Zero, speedval.Full)
			controller.ApplyCommand(command.SetSpeed{Target: knobSpeed, Strategy: strategy.NewLinear(300)}, command.SourcePhysical)
		}
		if pressed, err := encoder.ButtonJustPressed(); err == nil && pressed {
			controller.ApplyCommand(command.EmergencyStop{}, command.SourcePhysical)
		}

		faults.Poll()
		if kind, raised, err := hal.ActiveFault(faults); err == nil && raised {
			log.Warn("fault raised", zap.String("kind", kind.String()))
			controller.HandleFault(kind)
		}

		controller.Update(nowMs)

		snap := controller.State(nowMs)
		display.Render(snap)
		if tick%50 == 0 {
			printSnapshot(snap)
		}

		if tick >= 500 {
			return
		}
	}
}

func printSnapshot(snap hal.Snapshot) {
	fmt.Printf("t=%dms speed=%s direction=%s faulted=%v transitioning=%v\n",
		snap.NowMs, snap.Speed, snap.Direction, snap.Faulted, snap.Transitioning)
}

// Package simulated provides in-memory HAL implementations used by
// the embedded demo binary and by higher-level tests that want a real
// Motor/Encoder/FaultDetector without real hardware.
package simulated

import (
	"sync"

	"github.com/ironrail/throttle/internal/command"
	"github.com/ironrail/throttle/internal/hal"
	"github.com/ironrail/throttle/internal/speedval"
)

// Motor records the last commanded speed and direction. It never
// fails; a real board's Motor would surface driver errors here. It
// has no current sense, mirroring the esp32 BTS7960 driver, which
// reports current via a separate FaultDetector.
type Motor struct {
	mu        sync.Mutex
	speed     speedval.Speed
	direction command.Direction
}

func (m *Motor) SetSpeed(speed speedval.Speed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.speed = speed
	return nil
}

func (m *Motor) SetDirection(direction command.Direction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.direction = direction
	return nil
}

func (m *Motor) ReadCurrentMa() (int, bool, error) {
	return 0, false, nil
}

// Last returns the most recently commanded speed and direction.
func (m *Motor) Last() (speedval.Speed, command.Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speed, m.direction
}

// Encoder simulates a KY-040-style quadrature knob: test code or the
// embedded demo's input loop nudges the position with Nudge and
// toggles the button with SetButtonPressed. Poll latches the button's
// press edge, which ButtonJustPressed consumes; ReadDelta reads the
// position change since its previous call directly and does not
// depend on Poll.
type Encoder struct {
	mu               sync.Mutex
	position         int32
	lastReadPosition int32
	buttonPressed    bool
	buttonLast       bool
	buttonEdge       bool
}

// Nudge adds delta clicks to the encoder's position, to be picked up
// by the next ReadDelta.
func (e *Encoder) Nudge(delta int32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position += delta
}

// SetButtonPressed sets the raw button state for the next Poll.
func (e *Encoder) SetButtonPressed(pressed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buttonPressed = pressed
}

func (e *Encoder) Poll() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buttonPressed && !e.buttonLast {
		e.buttonEdge = true
	}
	e.buttonLast = e.buttonPressed
	return nil
}

func (e *Encoder) ReadDelta() (int32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delta := e.position - e.lastReadPosition
	e.lastReadPosition = e.position
	return delta, nil
}

func (e *Encoder) ButtonPressed() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buttonPressed, nil
}

func (e *Encoder) ButtonJustPressed() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	edge := e.buttonEdge
	e.buttonEdge = false
	return edge, nil
}

// FaultDetector simulates the BTS7960 current-sense fault detector:
// test code or the embedded demo's fault injector arms one or both
// conditions directly, mirroring Esp32Fault's independent
// is_short_circuit/is_overcurrent probes over a single sampled
// current reading.
type FaultDetector struct {
	mu           sync.Mutex
	shortCircuit bool
	overcurrent  bool
	currentMa    int
}

// SetShortCircuit arms or clears the short-circuit condition.
func (f *FaultDetector) SetShortCircuit(active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shortCircuit = active
}

// SetOvercurrent arms or clears the overcurrent condition.
func (f *FaultDetector) SetOvercurrent(active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overcurrent = active
}

// SetCurrentMa sets the diagnostic current reading FaultCurrentMa
// reports.
func (f *FaultDetector) SetCurrentMa(ma int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentMa = ma
}

func (f *FaultDetector) Poll() error { return nil }

func (f *FaultDetector) IsShortCircuit() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shortCircuit, nil
}

func (f *FaultDetector) IsOvercurrent() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overcurrent, nil
}

func (f *FaultDetector) FaultCurrentMa() (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentMa, true, nil
}

// Clock is a manually-advanced Clock for deterministic tests.
type Clock struct {
	mu    sync.Mutex
	nowMs int64
}

func NewClock(startMs int64) *Clock {
	return &Clock{nowMs: startMs}
}

func (c *Clock) NowMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowMs
}

func (c *Clock) Advance(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nowMs += ms
}

// Display captures the last rendered snapshot and message instead of
// drawing anything; it produces no output of its own.
type Display struct {
	mu          sync.Mutex
	initialized bool
	last        hal.Snapshot
	line1       string
	line2       *string
}

func (d *Display) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = true
	return nil
}

func (d *Display) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = hal.Snapshot{}
	d.line1, d.line2 = "", nil
	return nil
}

func (d *Display) Render(snapshot hal.Snapshot) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = snapshot
	return nil
}

func (d *Display) ShowMessage(line1 string, line2 *string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.line1, d.line2 = line1, line2
	return nil
}

// Last returns the most recently rendered snapshot.
func (d *Display) Last() hal.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Message returns the most recently shown message lines.
func (d *Display) Message() (string, *string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.line1, d.line2
}

// Initialized reports whether Init has been called.
func (d *Display) Initialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

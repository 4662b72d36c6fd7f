// Package sharedstate wraps a Controller so that concurrent HTTP,
// pub/sub, and encoder-poll goroutines can reach it safely, and adds
// an independently-guarded change-detection slot so a telemetry
// stream can push snapshots only when something actually moved,
// instead of every tick.
package sharedstate

import (
	"sync"

	"github.com/ironrail/throttle/internal/command"
	"github.com/ironrail/throttle/internal/hal"
	"github.com/ironrail/throttle/internal/throttle"
)

// Shared guards a *throttle.Controller behind a mutex distinct from
// the controller's own, plus a separately-guarded "last published"
// snapshot used to detect whether a tick actually changed anything.
type Shared struct {
	mu         sync.Mutex
	controller *throttle.Controller

	changeMu sync.Mutex
	lastSeen hal.Snapshot
	hasSeen  bool
}

// New wraps an existing controller.
func New(controller *throttle.Controller) *Shared {
	return &Shared{controller: controller}
}

// ApplyCommand forwards to the wrapped controller under the shared
// lock. Safe to call concurrently from any transport.
func (s *Shared) ApplyCommand(cmd command.Command, source command.Source) throttle.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.ApplyCommand(cmd, source)
}

// Update forwards to the wrapped controller under the shared lock.
func (s *Shared) Update(nowMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.Update(nowMs)
}

// HandleFault forwards to the wrapped controller under the shared lock.
func (s *Shared) HandleFault(kind command.FaultKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.HandleFault(kind)
}

// ClearFault forwards to the wrapped controller under the shared lock.
func (s *Shared) ClearFault() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.ClearFault()
}

// State returns a snapshot under the shared lock.
func (s *Shared) State(nowMs int64) hal.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.State(nowMs)
}

// CheckChanges compares the controller's current snapshot against the
// last one CheckChanges returned as changed, and reports the new
// snapshot only if it differs. A telemetry publisher calling this
// every tick publishes only on actual state transitions.
func (s *Shared) CheckChanges(nowMs int64) (hal.Snapshot, bool) {
	snap := s.State(nowMs)

	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	if s.hasSeen && snapshotsEqual(s.lastSeen, snap) {
		return hal.Snapshot{}, false
	}
	s.lastSeen = snap
	s.hasSeen = true
	return snap, true
}

func snapshotsEqual(a, b hal.Snapshot) bool {
	return a.Speed.Equal(b.Speed) &&
		a.Direction == b.Direction &&
		a.MaxSpeed.Equal(b.MaxSpeed) &&
		a.Faulted == b.Faulted &&
		a.FaultKind == b.FaultKind &&
		a.Transitioning == b.Transitioning
}

package queue

import "github.com/ironrail/throttle/internal/command"

// Admission is the result of submitting a command to the Processor.
type Admission struct {
	Accepted bool
	Queued   bool
	Dropped  bool
}

// Processor composes the priority queue and the source lockout into
// the single admission point commands pass through before reaching
// the Transition Manager.
type Processor struct {
	lockout *Lockout
	queue   *Queue
}

// NewProcessor builds a processor with the given lockout cooldown and
// queue capacity.
func NewProcessor(lockoutMs int64, queueCapacity int) *Processor {
	return &Processor{
		lockout: NewLockout(lockoutMs),
		queue:   NewQueue(queueCapacity),
	}
}

// Submit admits cmd immediately, queues it behind the current
// lockout holder, or drops it if the queue is already full of
// equal-or-higher priority work. An e-stop always bypasses the
// lockout and flushes anything waiting behind it.
func (p *Processor) Submit(cmd command.PrioritizedCommand, nowMs int64) Admission {
	if command.IsEstop(cmd.Command) {
		p.lockout.Clear()
		p.queue.ClearBelow(command.SourceEmergency)
		return Admission{Accepted: true}
	}

	if p.lockout.ShouldAccept(cmd.Source, nowMs) {
		return Admission{Accepted: true}
	}

	switch p.queue.Push(cmd) {
	case PushDroppedQueueFull:
		return Admission{Dropped: true}
	default:
		return Admission{Queued: true}
	}
}

// Drain pops the next admitted command, if any, once the lockout
// holding it back has expired.
func (p *Processor) Drain(nowMs int64) (command.PrioritizedCommand, bool) {
	cmd, ok := p.queue.Pop()
	if !ok {
		return command.PrioritizedCommand{}, false
	}
	if !p.lockout.ShouldAccept(cmd.Source, nowMs) {
		// Still locked out; put it back and report nothing ready.
		p.queue.Push(cmd)
		return command.PrioritizedCommand{}, false
	}
	return cmd, true
}

// LockoutStatus reports the current lockout holder, if any.
func (p *Processor) LockoutStatus(nowMs int64) (LockoutStatus, bool) {
	return p.lockout.Status(nowMs)
}

// QueueLen reports the number of commands waiting behind the lockout.
func (p *Processor) QueueLen() int {
	return p.queue.Len()
}

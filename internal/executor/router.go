package executor

import (
	"fmt"
	"io"
	"sync"
)

// phase is the executor's two-valued state (§3): busy means the dispatcher
// is between accepting a command and finishing its side effects; idle at all
// other times, including while blocked reading the next command.
type phase int

const (
	phaseIdle phase = iota
	phaseBusy
)

// outcome describes how a task terminated.
type outcome struct {
	exited   bool
	status   int
	signaled bool
}

// notification is a pending {task id, outcome} pair (§3), queued by a reaper
// until the router can print it.
type notification struct {
	taskID  int
	outcome outcome
}

// router is the notification router (§4.4). It owns the executor phase, the
// pending-notification queue, and the output serialiser — the only code path
// permitted to write operator-visible lines.
//
// Lock acquisition order, when both are needed, is phase then queue (§5).
type router struct {
	phaseMu sync.Mutex
	ph      phase

	queueMu sync.Mutex
	pending []notification

	outMu sync.Mutex
	out   io.Writer
}

// newRouter creates a router printing operator-visible lines to w.
func newRouter(w io.Writer) *router {
	return &router{out: w}
}

// setBusy transitions the executor phase to busy. Called by the dispatcher
// after reading a command, before dispatching its handler.
func (r *router) setBusy() {
	r.phaseMu.Lock()
	r.ph = phaseBusy
	r.phaseMu.Unlock()
}

// setIdleAndDrain transitions the executor phase to idle and drains the
// pending queue as a single critical section under phaseMu. Called by the
// dispatcher after a command's handler returns.
//
// Combining the transition and the drain under one lock acquisition is
// required, not cosmetic: if setIdle and drain were separate calls, a
// reaper's notify (below) could observe the now-idle phase and print
// immediately in the window between them, jumping ahead of the very batch
// about to be drained. Holding phaseMu across both forces any concurrent
// notify to block until this whole operation — transition plus drain — has
// completed, which is what keeps a command's buffered terminations flushed
// contiguously and in enqueue order (§4.4/§5).
func (r *router) setIdleAndDrain() {
	r.phaseMu.Lock()
	defer r.phaseMu.Unlock()
	r.ph = phaseIdle

	r.queueMu.Lock()
	pending := r.pending
	r.pending = nil
	r.queueMu.Unlock()

	for _, n := range pending {
		r.print(n)
	}
}

// notify delivers a task's termination outcome. If the phase is busy at the
// moment of delivery the event is appended to the pending queue; if idle, it
// is printed immediately. The phase check and the resulting action are
// performed while holding the phase lock, so the dispatcher's phase
// transitions never observe (or cause) a half-applied decision.
func (r *router) notify(taskID int, oc outcome) {
	r.phaseMu.Lock()
	defer r.phaseMu.Unlock()

	n := notification{taskID: taskID, outcome: oc}
	if r.ph == phaseBusy {
		r.queueMu.Lock()
		r.pending = append(r.pending, n)
		r.queueMu.Unlock()
		return
	}
	r.print(n)
}

// drain prints every queued notification in insertion order and empties the
// queue. Used only by shutdown's final flush, after every reaper has already
// been joined, so there is no concurrent notify left to race against; the
// per-command flush goes through setIdleAndDrain instead, which must hold
// phaseMu across the transition to stay race-free.
func (r *router) drain() {
	r.queueMu.Lock()
	pending := r.pending
	r.pending = nil
	r.queueMu.Unlock()

	for _, n := range pending {
		r.print(n)
	}
}

// writeLine writes a single operator-visible line, serialised against any
// concurrent print so lines are never interleaved character-by-character.
func (r *router) writeLine(line string) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintln(r.out, line)
}

// print formats and writes a single termination notification.
func (r *router) print(n notification) {
	if n.outcome.signaled {
		r.writeLine(fmt.Sprintf("Task %d ended: signalled.", n.taskID))
		return
	}
	r.writeLine(fmt.Sprintf("Task %d ended: status %d.", n.taskID, n.outcome.status))
}

package executor

import (
	"os"
	"syscall"
)

// runReaper is the per-task reaper (W, §4.3). It joins the task's stream
// readers before reaping the child, classifies the wait status, releases
// the task's cgroup if one was created, and hands the outcome to the
// router.
//
// Readers are joined before cmd.Wait() is called, not after: the child's
// pipe write ends close (delivering EOF to the readers) as soon as the
// child process exits, independent of whether the parent has reaped it yet,
// but os/exec's Wait() closes the read ends of any StdoutPipe/StderrPipe as
// part of its own cleanup. Calling Wait() first risks that close racing
// with an in-flight Read, truncating output the child already wrote but the
// reader had not yet drained from the pipe buffer — exactly what §4.3's
// "guarantees all output produced by the child has been observed before the
// termination event is announced" forbids.
//
// An unrecognised wait classification (neither exited nor signalled) is
// treated as a fatal implementation error per §7.
func (e *Executor) runReaper(t *task) {
	defer t.reaper.Done()

	t.readers.Wait()
	_ = t.cmd.Wait()

	oc := classify(t.cmd.ProcessState)

	if t.cgroup != nil {
		if err := e.cgroups.RemoveCgroup(t.cgroup.ID); err != nil {
			e.logger.Errorf("remove cgroup for task %d: %s", t.id, err)
		}
	}

	t.reaped.Store(true)
	e.router.notify(t.id, oc)
}

// classify translates a finished *os.ProcessState into an outcome, matching
// the exited/signalled distinction of syscall.WaitStatus (§4.3). Any other
// classification (stopped/continued) is a fatal implementation error.
func classify(ps *os.ProcessState) outcome {
	status, ok := ps.Sys().(syscall.WaitStatus)
	if !ok {
		panic("task reaper: wait status of unexpected type")
	}

	switch {
	case status.Exited():
		return outcome{exited: true, status: status.ExitStatus()}
	case status.Signaled():
		return outcome{signaled: true}
	default:
		panic("task reaper: unrecognised child wait classification")
	}
}

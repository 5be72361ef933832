package executor

import "syscall"

// shutdown is the shutdown controller (§4.6): force-terminates every task
// not already reaped, joins every reaper, drains the pending queue one final
// time, and tears down the resource limiter. The phase is set to busy first,
// so termination events delivered during shutdown are queued until the
// final drain.
func (e *Executor) shutdown() error {
	e.router.setBusy()

	for _, t := range e.store.all() {
		if t.reaped.Load() {
			continue
		}
		_ = t.cmd.Process.Signal(syscall.SIGKILL)
	}

	for _, t := range e.store.all() {
		t.reaper.Wait()
	}

	e.router.drain()

	if e.cgroups != nil {
		if err := e.cgroups.Cleanup(); err != nil {
			e.logger.Errorf("shutdown: cgroup cleanup: %s", err)
		}
	}

	return nil
}

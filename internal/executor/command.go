package executor

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rpelka/taskexec/internal/cgroup"
	taskexecerrors "github.com/rpelka/taskexec/internal/errors"
	"github.com/rpelka/taskexec/internal/validator"
)

// dispatch runs the handler for one tokenised command line (§4.5 step 4).
// It returns true if the command was "quit" and the dispatcher should begin
// shutdown.
func (e *Executor) dispatch(tokens []string) bool {
	head := tokens[0]
	args := tokens[1:]

	switch head[0] {
	case 'r':
		e.handleRun(args)
	case 'o':
		e.handleOut(args)
	case 'e':
		e.handleErr(args)
	case 'k':
		e.handleKill(args)
	case 's':
		e.handleSleep(args)
	case 't':
		e.handleTail(args)
	case 'q':
		return true
	}
	return false
}

// handleRun implements the "run" command (§4.5). Resource-limit flags
// (--cpu=<quota>/<period>, --mem=<bytes>) are consumed ahead of the program
// name; everything after is the program and its arguments.
func (e *Executor) handleRun(args []string) {
	cgroupOpts, rest := parseRunFlags(args)

	v := validator.New()
	v.Assert(len(rest) > 0, "run requires a program name")
	if v.Err() != nil {
		return
	}

	cmd := exec.Command(rest[0], rest[1:]...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		e.fatal(fmt.Errorf("run: stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		e.fatal(fmt.Errorf("run: stderr pipe: %w", err))
	}

	if err := cmd.Start(); err != nil {
		e.logger.Warnf("run: start %q: %s", rest[0], err)
		return
	}

	var cg *cgroup.Cgroup
	if len(cgroupOpts) > 0 && e.cgroups != nil {
		cg, err = e.cgroups.LimitPID(cmd.Process.Pid, cgroupOpts...)
		if err != nil {
			e.logger.Errorf("run: limit pid %d: %s", cmd.Process.Pid, err)
		}
	}

	id, ok := e.store.allocate()
	if !ok {
		e.logger.Debugf("run: capacity exhausted, killing pid %d", cmd.Process.Pid)
		_ = cmd.Process.Kill()
		go cmd.Wait() // reap it; no task record exists to own this
		if cg != nil {
			if err := e.cgroups.RemoveCgroup(cg.ID); err != nil {
				e.logger.Errorf("run: remove cgroup after capacity exhaustion: %s", err)
			}
		}
		return
	}

	t := newTask(id, cmd.Process.Pid, cmd, cg)
	t.readers.Add(2)
	t.reaper.Add(1)

	go func() {
		defer t.readers.Done()
		defer stdout.Close()
		runReader(stdout, e.cfg.MaxLineLength, e.logger, "stdout", func(line string) {
			t.publishOut(line, e.cfg.TailCapacity)
		})
	}()
	go func() {
		defer t.readers.Done()
		defer stderr.Close()
		runReader(stderr, e.cfg.MaxLineLength, e.logger, "stderr", func(line string) {
			t.publishErr(line)
		})
	}()
	go e.runReaper(t)

	e.store.publish(t)

	e.router.writeLine(fmt.Sprintf("Task %d started: pid %d.", t.id, t.pid))
}

// parseRunFlags strips leading --cpu=/--mem= flags from args, returning the
// equivalent cgroup options and the remaining tokens (program name and its
// arguments).
func parseRunFlags(args []string) ([]cgroup.CgroupOption, []string) {
	var opts []cgroup.CgroupOption
	i := 0
	for i < len(args) {
		arg := args[i]
		switch {
		case strings.HasPrefix(arg, "--cpu="):
			if cpus, ok := parseCPUQuota(strings.TrimPrefix(arg, "--cpu=")); ok {
				opts = append(opts, cgroup.WithCpus(cpus))
			}
		case strings.HasPrefix(arg, "--mem="):
			if mem, err := strconv.ParseUint(strings.TrimPrefix(arg, "--mem="), 10, 64); err == nil {
				opts = append(opts, cgroup.WithMemory(mem))
			}
		default:
			return opts, args[i:]
		}
		i++
	}
	return opts, args[i:]
}

// parseCPUQuota parses a "<quota>/<period>" pair (microseconds) into the
// equivalent number of CPUs.
func parseCPUQuota(s string) (float32, bool) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0, false
	}
	quota, err := strconv.ParseFloat(parts[0], 32)
	if err != nil {
		return 0, false
	}
	period, err := strconv.ParseFloat(parts[1], 32)
	if err != nil || period == 0 {
		return 0, false
	}
	return float32(quota / period), true
}

// handleOut implements the "out" command.
func (e *Executor) handleOut(args []string) {
	id, ok := parseTaskID(args)
	if !ok {
		return
	}
	t, ok := e.store.record(id)
	if !ok {
		e.logger.Debugf("out: unknown task %d", id)
		return
	}
	e.router.writeLine(fmt.Sprintf("Task %d stdout: '%s'.", id, t.snapshotOut()))
}

// handleErr implements the "err" command.
func (e *Executor) handleErr(args []string) {
	id, ok := parseTaskID(args)
	if !ok {
		return
	}
	t, ok := e.store.record(id)
	if !ok {
		e.logger.Debugf("err: unknown task %d", id)
		return
	}
	e.router.writeLine(fmt.Sprintf("Task %d stderr: '%s'.", id, t.snapshotErr()))
}

// handleKill implements the "kill" command: delivers SIGINT and returns
// without waiting for the task to exit.
func (e *Executor) handleKill(args []string) {
	id, ok := parseTaskID(args)
	if !ok {
		return
	}
	t, ok := e.store.record(id)
	if !ok {
		e.logger.Debugf("kill: unknown task %d", id)
		return
	}
	if err := t.cmd.Process.Signal(os.Interrupt); err != nil {
		e.logger.Debugf("kill: signal task %d: %s", id, err)
	}
}

// handleSleep implements the "sleep" command.
func (e *Executor) handleSleep(args []string) {
	v := validator.New()
	v.Assert(len(args) > 0, "sleep requires a duration")
	if v.Err() != nil {
		return
	}
	ms, err := strconv.Atoi(args[0])
	if err != nil || ms < 0 {
		return
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// handleTail implements the "tail" command (§10.3).
func (e *Executor) handleTail(args []string) {
	id, ok := parseTaskID(args)
	if !ok {
		return
	}
	t, ok := e.store.record(id)
	if !ok {
		e.logger.Debugf("tail: unknown task %d", id)
		return
	}
	for n, line := range t.snapshotTail() {
		e.router.writeLine(fmt.Sprintf("Task %d stdout[%d]: '%s'.", id, n, line))
	}
}

// parseTaskID parses the first argument as a task ID.
func parseTaskID(args []string) (int, bool) {
	v := validator.New()
	v.Assert(len(args) > 0, "command requires a task id")
	if v.Err() != nil {
		return 0, false
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// fatal logs err with a stack trace and aborts the process, per §7's
// treatment of system-call failures.
func (e *Executor) fatal(err error) {
	e.logger.Errorf("fatal: %+v", taskexecerrors.Wrap(err))
	os.Exit(1)
}

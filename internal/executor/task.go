package executor

import (
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/rpelka/taskexec/internal/cgroup"
)

// task is the record the executor keeps for one spawned child process.
//
// Fields set at spawn time (id, pid, cmd, cgroup) are never mutated again and
// may be read without a lock once the record has been published into the
// store. lastOut/lastErr/tail are mutated by the stream readers and read by
// the dispatcher's "out"/"err"/"tail" handlers under lineLock.
type task struct {
	id  int
	pid int

	cmd    *exec.Cmd
	cgroup *cgroup.Cgroup

	lineLock sync.Mutex
	lastOut  string
	lastErr  string
	tail     []string

	readers sync.WaitGroup
	reaper  sync.WaitGroup

	reaped atomic.Bool
}

// newTask creates a task record for the given id/pid, ready for its readers
// and reaper to be started against it.
func newTask(id, pid int, cmd *exec.Cmd, cg *cgroup.Cgroup) *task {
	return &task{
		id:     id,
		pid:    pid,
		cmd:    cmd,
		cgroup: cg,
	}
}

// snapshotOut returns the most recently published complete stdout line.
func (t *task) snapshotOut() string {
	t.lineLock.Lock()
	defer t.lineLock.Unlock()
	return t.lastOut
}

// snapshotErr returns the most recently published complete stderr line.
func (t *task) snapshotErr() string {
	t.lineLock.Lock()
	defer t.lineLock.Unlock()
	return t.lastErr
}

// publishOut records line as the latest complete stdout line and appends it
// to the tail ring buffer, bounded at capacity. Empty lines do not overwrite
// the snapshot.
func (t *task) publishOut(line string, capacity int) {
	if line == "" {
		return
	}
	t.lineLock.Lock()
	defer t.lineLock.Unlock()
	t.lastOut = line
	if capacity <= 0 {
		return
	}
	t.tail = append(t.tail, line)
	if len(t.tail) > capacity {
		t.tail = t.tail[len(t.tail)-capacity:]
	}
}

// publishErr records line as the latest complete stderr line. Empty lines do
// not overwrite the snapshot.
func (t *task) publishErr(line string) {
	if line == "" {
		return
	}
	t.lineLock.Lock()
	defer t.lineLock.Unlock()
	t.lastErr = line
}

// snapshotTail returns a copy of the current tail ring buffer, oldest first.
func (t *task) snapshotTail() []string {
	t.lineLock.Lock()
	defer t.lineLock.Unlock()
	out := make([]string, len(t.tail))
	copy(out, t.tail)
	return out
}

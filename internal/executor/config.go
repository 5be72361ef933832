package executor

import (
	"io"
	"os"

	"github.com/rpelka/taskexec/internal/log"
)

// config holds Executor configuration.
type config struct {
	// Capacity is the maximum number of tasks the executor will allocate IDs
	// for over its lifetime.
	// Default: 4096.
	Capacity int

	// MaxLineLength bounds the payload bytes retained per captured output
	// line, independent of any trailing line feed.
	// Default: 510.
	MaxLineLength int

	// TailCapacity is the number of most-recent stdout lines retained per
	// task for the "tail" command, in addition to the single-line snapshot.
	// Default: 20.
	TailCapacity int

	// CgroupRoot is the cgroup2 mount path used by the resource limiter when
	// a task requests CPU/memory limits. Empty disables the resource
	// limiter entirely.
	// Default: "/sys/fs/cgroup/taskexec".
	CgroupRoot string

	// Logger receives diagnostic output, distinct from the operator-visible
	// protocol on stdout.
	Logger *log.Logger

	// Output is the writer the operator-visible protocol lines are written
	// to.
	// Default: os.Stdout.
	Output io.Writer
}

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		Capacity:      4096,
		MaxLineLength: 510,
		TailCapacity:  20,
		CgroupRoot:    "/sys/fs/cgroup/taskexec",
		Logger:        log.New(os.Stderr, "executor"),
		Output:        os.Stdout,
	}
}

// Package cli parses process flags and environment variables into executor
// options and runs the task executor against stdin/stdout.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rpelka/taskexec/internal/executor"
	"github.com/rpelka/taskexec/internal/log"
)

const (
	defaultCapacity   = 4096
	defaultMaxLine    = 510
	defaultCgroupRoot = "/sys/fs/cgroup/taskexec"
)

// Run parses args (typically os.Args[1:]), constructs an Executor, and
// serves the dispatcher loop against stdin until quit/EOF. It returns the
// process exit code.
func Run(args []string, stdin io.Reader, stdout io.Writer) int {
	fs := flag.NewFlagSet("taskexec", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	capacity := fs.Int("capacity", envInt("JOBEXEC_CAPACITY", defaultCapacity), "maximum number of tasks the executor will allocate IDs for")
	maxLine := fs.Int("max-line", envInt("JOBEXEC_MAX_LINE", defaultMaxLine), "maximum payload bytes retained per captured output line")
	cgroupRoot := fs.String("cgroup-root", envString("JOBEXEC_CGROUP_ROOT", defaultCgroupRoot), "cgroup2 mount path used for resource-limited tasks; empty disables resource limiting")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := log.New(os.Stderr, "taskexec")

	e, err := executor.New(
		executor.WithCapacity(*capacity),
		executor.WithMaxLineLength(*maxLine),
		executor.WithCgroupRoot(*cgroupRoot),
		executor.WithLogger(logger),
		executor.WithOutput(stdout),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "taskexec: %s\n", err)
		return 1
	}

	if err := e.Serve(stdin); err != nil {
		fmt.Fprintf(os.Stderr, "taskexec: %s\n", err)
		return 1
	}

	return 0
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envString(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

package executor

import (
	"io"

	"github.com/rpelka/taskexec/internal/log"
)

// Option configures an Executor. Use New(opts...) to construct an Executor
// via options.
type Option func(*config)

// WithCapacity sets the maximum number of tasks the Executor will allocate
// IDs for over its lifetime.
func WithCapacity(n int) Option {
	return func(c *config) { c.Capacity = n }
}

// WithMaxLineLength bounds the payload bytes retained per captured output
// line.
func WithMaxLineLength(n int) Option {
	return func(c *config) { c.MaxLineLength = n }
}

// WithTailCapacity sets the number of most-recent stdout lines retained per
// task for the "tail" command.
func WithTailCapacity(n int) Option {
	return func(c *config) { c.TailCapacity = n }
}

// WithCgroupRoot sets the cgroup2 mount path used by the resource limiter.
// Passing an empty string disables the resource limiter.
func WithCgroupRoot(path string) Option {
	return func(c *config) { c.CgroupRoot = path }
}

// WithLogger overrides the diagnostic logger used by the Executor.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.Logger = l }
}

// WithOutput overrides the writer the operator-visible protocol lines are
// written to. Primarily useful for tests.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.Output = w }
}

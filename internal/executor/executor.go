// Package executor implements the interactive task executor: a dispatcher
// loop that reads commands from a control stream, spawns child processes as
// tasks, and reports their lifecycle back over an operator-visible output
// stream.
package executor

import (
	"fmt"

	"github.com/rpelka/taskexec/internal/cgroup"
	"github.com/rpelka/taskexec/internal/log"
)

// Executor owns every piece of state the task executor needs: the task
// store, the notification router, and (optionally) the cgroup service used
// to resource-limit tasks. It replaces the original's global task array and
// process-wide locks with a single value constructed via functional options
// and shared with background goroutines by pointer.
type Executor struct {
	cfg     config
	store   *store
	router  *router
	cgroups *cgroup.Service
	logger  *log.Logger
}

// New constructs an Executor. If CgroupRoot is non-empty (the default), a
// cgroup service is mounted immediately so the "run" handler can honour
// --cpu/--mem flags without paying mount latency per task; a failure to set
// up the resource limiter is fatal, matching §7's treatment of system-call
// failures.
func New(opts ...Option) (*Executor, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Executor{
		cfg:    cfg,
		store:  newStore(cfg.Capacity),
		router: newRouter(cfg.Output),
		logger: cfg.Logger,
	}

	if cfg.CgroupRoot != "" {
		svc, err := cgroup.NewService(cgroup.WithMountPath(cfg.CgroupRoot))
		if err != nil {
			return nil, fmt.Errorf("mount cgroup service: %w", err)
		}
		e.cgroups = svc
	}

	return e, nil
}

// Package errors provides the process-wide error wrapping convention: a
// stack trace is attached at the point an error is wrapped (cgroup
// controller writes, the dispatcher's fatal path) rather than at the point
// of logging.
package errors

import "github.com/pkg/errors"

// Wrap returns a new error wrapping err with a stack trace captured at the
// call site. If err is nil, nil is returned.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(err)
}

// Package api
// Author: momentics
//
// Readiness polling over a caller-supplied descriptor set.

package api

import "time"

// Multiplexer reports which descriptors are readable.
type Multiplexer interface {
	// Ready waits at most timeout and returns the subset of fds that can be
	// read without blocking. The set is passed on every call and never cached.
	// An empty result is a normal outcome.
	Ready(fds []int, timeout time.Duration) ([]int, error)
}

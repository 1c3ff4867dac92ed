// Package api
// Author: momentics
//
// Scheduler contract for cooperative, round-robin task execution.

package api

// Scheduler drives registered tasks to completion on the calling goroutine.
type Scheduler interface {
	Registrar

	// Run steps tasks until the queue is empty.
	Run() error

	// Len reports the number of queued entries.
	Len() int
}

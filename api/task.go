// File: api/task.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Resumable task contract driven by the cooperative scheduler.

package api

import "time"

// Status is the outcome of a single task step.
type Status int

const (
	// Suspended means the task has more work and must be stepped again later.
	Suspended Status = iota
	// Completed is terminal: the task is never stepped again.
	Completed
)

func (s Status) String() string {
	switch s {
	case Suspended:
		return "suspended"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Task is a computation advanced one bounded step at a time.
//
// Step must not block for an unbounded duration. Final side effects
// (writing a response, closing a socket) happen on the same step that
// returns Completed. A non-nil error is terminal for the task.
type Task interface {
	Step() (Status, error)
}

// Named is implemented by tasks that want a readable name in logs.
type Named interface {
	Name() string
}

// StepFunc adapts a plain function to the Task interface.
type StepFunc func() (Status, error)

// Step calls f.
func (f StepFunc) Step() (Status, error) {
	return f()
}

// Callback runs once, right after its task reports Completed.
type Callback func()

// Registrar is the capability to hand new tasks to a scheduler.
// It is safe to call from a task step or from a callback.
type Registrar interface {
	Register(task Task, cb Callback)
}

// TaskName returns the Named name of t, or a generic label.
func TaskName(t Task) string {
	if n, ok := t.(Named); ok {
		return n.Name()
	}
	return "task"
}

// Clock returns the current time; injected so deadlines are testable.
type Clock func() time.Time

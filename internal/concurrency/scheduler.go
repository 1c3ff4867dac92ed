// File: internal/concurrency/scheduler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Round-robin cooperative scheduler over an eapache/queue ring.

package concurrency

import (
	"fmt"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-coop/api"
	"github.com/momentics/hioload-coop/control"
)

// entry is one scheduled (task, callback) pair.
type entry struct {
	task  api.Task
	cb    api.Callback
	name  string
	fired bool
}

// SchedulerStats are cumulative counters since construction.
type SchedulerStats struct {
	Registered uint64
	Completed  uint64
	Failed     uint64
	Evicted    uint64
	Ticks      uint64
}

// Scheduler steps registered tasks round-robin until none remain.
type Scheduler struct {
	queue    *queue.Queue // of *entry, front is stepped next
	current  *entry       // entry being stepped, nil between ticks
	capacity int          // max waiting entries, <= 0 means unbounded
	isolate  bool         // drop failing tasks instead of stopping Run
	log      api.Logger
	ctrl     api.Control
	onEvict  func(task api.Task)
	stats    SchedulerStats
	length   atomic.Int64 // mirror of Len for probes read off-goroutine
}

// SchedulerOption customizes a Scheduler.
type SchedulerOption func(*Scheduler)

// WithCapacity bounds the number of waiting entries. When the bound is
// reached, Register evicts the oldest waiting entry (drop-oldest) without
// firing its callback. The entry being stepped is never evicted.
func WithCapacity(n int) SchedulerOption {
	return func(s *Scheduler) {
		s.capacity = n
	}
}

// WithFailureIsolation makes Run log and drop a task whose step fails
// instead of returning the error.
func WithFailureIsolation(on bool) SchedulerOption {
	return func(s *Scheduler) {
		s.isolate = on
	}
}

// WithLogger sets the logging sink.
func WithLogger(l api.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithControl publishes scheduler metrics and probes into c.
func WithControl(c api.Control) SchedulerOption {
	return func(s *Scheduler) {
		s.ctrl = c
	}
}

// WithEvictHook is called with every task evicted by the capacity policy.
func WithEvictHook(fn func(task api.Task)) SchedulerOption {
	return func(s *Scheduler) {
		s.onEvict = fn
	}
}

// NewScheduler returns an empty, unbounded scheduler.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		queue: queue.New(),
		log:   control.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ctrl != nil {
		s.ctrl.RegisterDebugProbe("scheduler.queue_length", func() any { return int(s.length.Load()) })
	}
	return s
}

var _ api.Scheduler = (*Scheduler)(nil)

// Register appends task to the back of the queue. cb may be nil.
// It may be called from inside a task step or a callback.
func (s *Scheduler) Register(task api.Task, cb api.Callback) {
	if task == nil {
		s.log.Warnf("scheduler: ignoring nil task")
		return
	}
	if s.capacity > 0 {
		for s.queue.Length() >= s.capacity {
			s.evictOldest()
		}
	}
	s.queue.Add(&entry{task: task, cb: cb, name: api.TaskName(task)})
	s.stats.Registered++
	s.length.Store(int64(s.Len()))
}

func (s *Scheduler) evictOldest() {
	victim := s.queue.Remove().(*entry)
	s.stats.Evicted++
	s.log.Warnf("scheduler: queue at capacity %d, evicting oldest task %s", s.capacity, victim.name)
	s.metric("scheduler.evicted", s.stats.Evicted)
	s.length.Store(int64(s.Len()))
	if s.onEvict != nil {
		s.onEvict(victim.task)
	}
}

// Len reports the queued entries, including the one being stepped.
func (s *Scheduler) Len() int {
	n := s.queue.Length()
	if s.current != nil {
		n++
	}
	return n
}

// Stats returns a copy of the cumulative counters.
func (s *Scheduler) Stats() SchedulerStats {
	return s.stats
}

// Run steps the front entry until the queue is empty.
//
// A suspended task goes to the back of the queue. A completed task fires its
// callback before it leaves the queue. A step error stops Run and is
// returned, unless failure isolation is enabled.
func (s *Scheduler) Run() error {
	for s.queue.Length() > 0 {
		s.stats.Ticks++
		s.log.Debugf("scheduler: task queue length: %d", s.queue.Length())
		s.metric("scheduler.queue_length", s.queue.Length())

		e := s.queue.Remove().(*entry)
		s.current = e
		s.log.Debugf("scheduler: current task: %s", e.name)

		status, err := s.step(e)
		if err != nil {
			s.current = nil
			s.length.Store(int64(s.Len()))
			if ferr := s.fail(e, err); ferr != nil {
				return ferr
			}
			continue
		}

		switch status {
		case api.Suspended:
			s.current = nil
			s.queue.Add(e)
		case api.Completed:
			s.complete(e)
		default:
			s.current = nil
			if ferr := s.fail(e, fmt.Errorf("unexpected step status %d: %w", status, api.ErrInvalidArgument)); ferr != nil {
				return ferr
			}
		}
		s.length.Store(int64(s.Len()))
	}
	return nil
}

// step advances e once, turning a panic into an error.
func (s *Scheduler) step(e *entry) (status api.Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.task.Step()
}

func (s *Scheduler) complete(e *entry) {
	s.stats.Completed++
	s.log.Debugf("scheduler: task finished: %s", e.name)
	s.metric("scheduler.completed", s.stats.Completed)
	if e.cb != nil && !e.fired {
		e.fired = true
		e.cb()
	}
	s.current = nil
}

func (s *Scheduler) fail(e *entry, cause error) error {
	s.stats.Failed++
	s.metric("scheduler.failed", s.stats.Failed)
	err := api.NewError(api.ErrCodeTaskFailed, "task failed").
		WithContext("task", e.name).
		WithCause(cause)
	if !s.isolate {
		return err
	}
	s.log.Errorf("scheduler: %v", err)
	return nil
}

func (s *Scheduler) metric(key string, v any) {
	if s.ctrl != nil {
		s.ctrl.SetMetric(key, v)
	}
}

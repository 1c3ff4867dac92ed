// File: internal/concurrency/sleep.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"fmt"
	"time"

	"github.com/momentics/hioload-coop/api"
	"github.com/momentics/hioload-coop/control"
)

// SleepTask suspends until its duration has elapsed, then completes.
// The deadline is fixed on the first step, not at construction.
type SleepTask struct {
	d        time.Duration
	now      api.Clock
	log      api.Logger
	deadline time.Time
	started  bool
	steps    int
}

// NewSleepTask returns a task that completes d after its first step.
// A nil clock means time.Now; a nil logger discards output.
func NewSleepTask(d time.Duration, now api.Clock, log api.Logger) *SleepTask {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = control.NopLogger()
	}
	return &SleepTask{d: d, now: now, log: log}
}

// Name implements api.Named.
func (t *SleepTask) Name() string {
	return fmt.Sprintf("sleep(%s)", t.d)
}

// Steps reports how many times the task was stepped.
func (t *SleepTask) Steps() int {
	return t.steps
}

// Step implements api.Task.
func (t *SleepTask) Step() (api.Status, error) {
	t.steps++
	now := t.now()
	if !t.started {
		t.started = true
		t.deadline = now.Add(t.d)
		t.log.Infof("task sleeping for %s", t.d)
	}
	if now.Before(t.deadline) {
		return api.Suspended, nil
	}
	t.log.Infof("task finished sleeping for %s", t.d)
	return api.Completed, nil
}

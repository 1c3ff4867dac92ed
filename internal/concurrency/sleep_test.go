package concurrency

import (
	"testing"
	"time"

	"github.com/momentics/hioload-coop/api"
)

func TestSleepTask_ZeroCompletesOnFirstStep(t *testing.T) {
	task := NewSleepTask(0, nil, nil)
	status, err := task.Step()
	if err != nil || status != api.Completed {
		t.Fatalf("Step = %v, %v", status, err)
	}
}

func TestSleepTask_StepCount(t *testing.T) {
	clock := &stepClock{t: time.Unix(0, 0), inc: 250 * time.Millisecond}
	task := NewSleepTask(time.Second, clock.Now, nil)

	s := NewScheduler()
	s.Register(task, nil)
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if task.Steps() != 5 {
		t.Errorf("steps = %d, want 5", task.Steps())
	}
}

func TestSleepTask_RealClock(t *testing.T) {
	start := time.Now()
	s := NewScheduler()
	s.Register(NewSleepTask(20*time.Millisecond, nil, nil), nil)
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("completed after %s", elapsed)
	}
}

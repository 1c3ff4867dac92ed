//go:build linux

package affinity

import (
	"errors"
	"runtime"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-coop/api"
)

func TestPinCPUZero(t *testing.T) {
	var before unix.CPUSet
	if err := unix.SchedGetaffinity(0, &before); err != nil {
		t.Skip("sched_getaffinity:", err)
	}
	if !before.IsSet(0) {
		t.Skip("cpu 0 not in allowed set")
	}

	done := make(chan error, 1)
	go func() {
		release, err := Pin(0)
		if err != nil {
			done <- err
			return
		}
		defer release()
		var got unix.CPUSet
		if err := unix.SchedGetaffinity(0, &got); err != nil {
			done <- err
			return
		}
		if got.Count() != 1 || !got.IsSet(0) {
			done <- errors.New("thread not bound to cpu 0")
			return
		}
		done <- nil
	}()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestPinRejectsOutOfRange(t *testing.T) {
	for _, cpu := range []int{-1, runtime.NumCPU()} {
		if _, err := Pin(cpu); !errors.Is(err, api.ErrInvalidArgument) {
			t.Errorf("Pin(%d) = %v", cpu, err)
		}
	}
}

// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness multiplexer helpers.

package reactor

import (
	"time"

	"github.com/momentics/hioload-coop/api"
)

// MaxPollTimeout bounds any single readiness wait so that one listener
// step cannot stall the round-robin for long.
const MaxPollTimeout = 100 * time.Millisecond

// ClampTimeout limits d to [0, MaxPollTimeout].
func ClampTimeout(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > MaxPollTimeout {
		return MaxPollTimeout
	}
	return d
}

// Func adapts a function to api.Multiplexer.
type Func func(fds []int, timeout time.Duration) ([]int, error)

// Ready calls f.
func (f Func) Ready(fds []int, timeout time.Duration) ([]int, error) {
	return f(fds, timeout)
}

var _ api.Multiplexer = Func(nil)

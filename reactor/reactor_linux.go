//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux poll(2)-based readiness multiplexer.

package reactor

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-coop/api"
)

// pollMultiplexer rebuilds its pollfd slice from the caller's set on every
// call, so descriptors added or removed between calls need no bookkeeping.
type pollMultiplexer struct {
	pfds []unix.PollFd
}

// NewMultiplexer constructs the platform readiness multiplexer.
func NewMultiplexer() (api.Multiplexer, error) {
	return &pollMultiplexer{}, nil
}

// Ready waits up to timeout for any fd to become readable.
// Hang-up and error conditions are reported as readable so that the
// following read observes EOF or the socket error.
func (m *pollMultiplexer) Ready(fds []int, timeout time.Duration) ([]int, error) {
	if len(fds) == 0 {
		return nil, nil
	}
	m.pfds = m.pfds[:0]
	for _, fd := range fds {
		m.pfds = append(m.pfds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	}

	n, err := unix.Poll(m.pfds, int(timeout/time.Millisecond))
	if err != nil {
		if err == unix.EINTR {
			return nil, nil // interrupted by signal: same as a timeout
		}
		return nil, fmt.Errorf("poll: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	ready := make([]int, 0, n)
	for _, p := range m.pfds {
		if p.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
			ready = append(ready, int(p.Fd))
		}
	}
	return ready, nil
}

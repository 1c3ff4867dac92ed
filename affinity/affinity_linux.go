//go:build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// setAffinityPlatform binds the calling thread to cpuID via sched_setaffinity.
func setAffinityPlatform(cpuID int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity cpu %d: %w", cpuID, err)
	}
	return nil
}

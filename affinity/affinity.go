// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral API for pinning the scheduler thread to one CPU.
// Platform-specific implementations live in files guarded by build tags.

package affinity

import (
	"fmt"
	"runtime"

	"github.com/momentics/hioload-coop/api"
)

// Pin locks the calling goroutine to its OS thread and binds that thread to
// cpuID. The returned release func unlocks the thread; it must be called on
// the same goroutine.
func Pin(cpuID int) (release func(), err error) {
	if cpuID < 0 || cpuID >= runtime.NumCPU() {
		return nil, fmt.Errorf("affinity: cpu %d of %d: %w", cpuID, runtime.NumCPU(), api.ErrInvalidArgument)
	}
	runtime.LockOSThread()
	if err := setAffinityPlatform(cpuID); err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return runtime.UnlockOSThread, nil
}

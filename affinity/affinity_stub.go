//go:build !linux

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package affinity

import (
	"fmt"

	"github.com/momentics/hioload-coop/api"
)

func setAffinityPlatform(cpuID int) error {
	return fmt.Errorf("affinity: cpu %d: %w", cpuID, api.ErrNotSupported)
}

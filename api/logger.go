// File: api/logger.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Logger is the leveled logging sink injected into the scheduler and server.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

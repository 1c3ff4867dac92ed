// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown releases the resources a component still holds open.
// The scheduler itself never calls it; the process boundary does.
type GracefulShutdown interface {
	Shutdown() error
}

// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime configuration, metrics, leveled logging and debug introspection
// for hioload-coop.
//
// Provides concurrent-safe state handling primitives including:
//   - Snapshot config reads with reload listeners
//   - Counters and gauges fed by the scheduler and server tasks
//   - Named debug probes for state dumps on shutdown
//   - A leveled logger over the standard log package
//
// The scheduler runs on one goroutine; these types stay goroutine-safe
// because signal handlers and reload hooks read them from other goroutines.
package control

// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Cooperative, single-goroutine task scheduling for hioload-coop.
//
// The Scheduler keeps a FIFO ring of (task, callback) entries and steps the
// front entry on every tick: a suspended task rotates to the back, a
// completed one fires its callback and leaves the ring. Nothing here is
// preemptive and nothing takes a lock; every entry point except the
// constructors must be called from the goroutine that drives Run.
package concurrency

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness multiplexer consumed by the listener
// task: given the current descriptor set it waits a bounded time and reports
// which descriptors are readable. Linux uses poll(2); other platforms get a stub.
package reactor

// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw TCP sockets for the cooperative server: a listening socket and
// accepted connections, both exposed by descriptor so they can be handed to
// the readiness multiplexer. Linux-only; other platforms get a stub that
// reports api.ErrNotSupported.

package transport

//go:build !linux
// +build !linux

// File: internal/transport/transport_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub sockets for unsupported platforms.

package transport

import (
	"fmt"

	"github.com/momentics/hioload-coop/api"
)

var errUnsupported = fmt.Errorf("transport: %w on this platform", api.ErrNotSupported)

// Listen is not supported on this platform.
func Listen(cfg ListenConfig) (*Listener, error) { return nil, errUnsupported }

// IsTransientAccept is always false on this platform.
func IsTransientAccept(err error) bool { return false }

func (l *Listener) Accept() (*Conn, error) { return nil, errUnsupported }
func (l *Listener) Close() error            { return nil }

func (c *Conn) Read(p []byte) (int, error)  { return 0, errUnsupported }
func (c *Conn) Write(p []byte) (int, error) { return 0, errUnsupported }
func (c *Conn) CloseWrite() error           { return errUnsupported }
func (c *Conn) DrainPending() int           { return 0 }
func (c *Conn) Close() error                { return nil }

// internal/transport/transport_linux.go
//go:build linux
// +build linux

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux sockets over golang.org/x/sys/unix.

package transport

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-coop/api"
)

// Listen creates a non-blocking listening socket with SO_REUSEADDR.
func Listen(cfg ListenConfig) (*Listener, error) {
	addr, err := bindAddr(cfg.Host)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket create: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: cfg.Port, Addr: addr}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind port %d: %w", cfg.Port, err)
	}
	backlog := cfg.Backlog
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listen: %w", err)
	}
	sa, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("getsockname: %w", err)
	}
	port := cfg.Port
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		port = in4.Port
	}
	return &Listener{fd: fd, port: port}, nil
}

// Accept takes one pending connection. The accepted socket is blocking.
// It returns unix.EAGAIN when the pending connection went away between the
// readiness report and the call.
func (l *Listener) Accept() (*Conn, error) {
	if l.fd < 0 {
		return nil, api.ErrClosed
	}
	nfd, sa, err := unix.Accept4(l.fd, unix.SOCK_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &Conn{fd: nfd, peer: sockaddrString(sa)}, nil
}

// IsTransientAccept reports accept errors that only mean the pending
// connection is gone: the listener should just try again later.
func IsTransientAccept(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.ECONNABORTED) || errors.Is(err, unix.EINTR)
}

// Close closes the listening socket. Closing twice is a no-op.
func (l *Listener) Close() error {
	if l.fd < 0 {
		return nil
	}
	fd := l.fd
	l.fd = -1
	return unix.Close(fd)
}

// Read reads at most len(p) bytes. A zero count with nil error means the
// peer closed its write side.
func (c *Conn) Read(p []byte) (int, error) {
	if c.fd < 0 {
		return 0, api.ErrClosed
	}
	for {
		n, err := unix.Read(c.fd, p)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

// Write sends all of p. MSG_NOSIGNAL turns a reset peer into EPIPE.
func (c *Conn) Write(p []byte) (int, error) {
	if c.fd < 0 {
		return 0, api.ErrClosed
	}
	written := 0
	for written < len(p) {
		n, err := unix.SendmsgN(c.fd, p[written:], nil, nil, unix.MSG_NOSIGNAL)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return written, fmt.Errorf("send: %w", err)
		}
		written += n
	}
	return written, nil
}

// CloseWrite half-closes the connection; the peer reads EOF.
func (c *Conn) CloseWrite() error {
	if c.fd < 0 {
		return api.ErrClosed
	}
	if err := unix.Shutdown(c.fd, unix.SHUT_WR); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// DrainPending discards bytes the peer sent but nobody read, without
// blocking, so that a following Close ends with FIN instead of RST.
func (c *Conn) DrainPending() int {
	if c.fd < 0 {
		return 0
	}
	var scratch [512]byte
	total := 0
	for {
		n, _, err := unix.Recvfrom(c.fd, scratch[:], unix.MSG_DONTWAIT)
		if err == unix.EINTR {
			continue
		}
		if err != nil || n <= 0 {
			return total
		}
		total += n
	}
}

// Close releases the descriptor. Closing twice is a no-op.
func (c *Conn) Close() error {
	if c.fd < 0 {
		return nil
	}
	fd := c.fd
	c.fd = -1
	return unix.Close(fd)
}

func sockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(netip.AddrFrom4(a.Addr).String(), strconv.Itoa(a.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(netip.AddrFrom16(a.Addr).String(), strconv.Itoa(a.Port))
	}
	return "unknown"
}

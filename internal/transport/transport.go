// Package transport
// Author: momentics <momentics@gmail.com>
//
// Platform-independent socket types.

package transport

import (
	"fmt"
	"net/netip"

	"github.com/momentics/hioload-coop/api"
)

// ListenConfig describes the listening socket.
type ListenConfig struct {
	Host    string // IPv4 address to bind, "" means all interfaces
	Port    int    // 0 picks an ephemeral port
	Backlog int    // accept queue length
}

// Listener is a bound, listening TCP socket.
type Listener struct {
	fd   int
	port int
}

// Fd returns the descriptor, or -1 once closed.
func (l *Listener) Fd() int { return l.fd }

// Port returns the bound port.
func (l *Listener) Port() int { return l.port }

// Conn is an accepted TCP connection. It is owned by exactly one component
// at a time: the connection table, or the responder it was handed to.
type Conn struct {
	fd   int
	peer string
}

// Fd returns the descriptor, or -1 once closed.
func (c *Conn) Fd() int { return c.fd }

// PeerAddr returns the remote "ip:port".
func (c *Conn) PeerAddr() string { return c.peer }

func bindAddr(host string) ([4]byte, error) {
	if host == "" {
		return [4]byte{}, nil
	}
	addr, err := netip.ParseAddr(host)
	if err != nil || !addr.Is4() {
		return [4]byte{}, fmt.Errorf("bind host %q: %w", host, api.ErrInvalidArgument)
	}
	return addr.As4(), nil
}

// NewConn wraps an already connected descriptor.
func NewConn(fd int, peer string) *Conn {
	return &Conn{fd: fd, peer: peer}
}

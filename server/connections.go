// File: server/connections.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"sync/atomic"

	"github.com/momentics/hioload-coop/internal/transport"
)

// ConnectionTable maps peer address to an accepted connection that has not
// yet been handed to a responder. It is owned by the listener task.
type ConnectionTable struct {
	byPeer map[string]*transport.Conn
	byFd   map[int]string
	size   atomic.Int64
}

// NewConnectionTable returns an empty table.
func NewConnectionTable() *ConnectionTable {
	return &ConnectionTable{
		byPeer: make(map[string]*transport.Conn),
		byFd:   make(map[int]string),
	}
}

// Add stores c under its peer address. A stale entry for the same peer is
// closed and replaced.
func (t *ConnectionTable) Add(c *transport.Conn) {
	peer := c.PeerAddr()
	if old, ok := t.byPeer[peer]; ok {
		delete(t.byFd, old.Fd())
		old.Close()
	}
	t.byPeer[peer] = c
	t.byFd[c.Fd()] = peer
	t.size.Store(int64(len(t.byPeer)))
}

// Take removes and returns the connection with descriptor fd.
func (t *ConnectionTable) Take(fd int) (*transport.Conn, bool) {
	peer, ok := t.byFd[fd]
	if !ok {
		return nil, false
	}
	c := t.byPeer[peer]
	delete(t.byFd, fd)
	delete(t.byPeer, peer)
	t.size.Store(int64(len(t.byPeer)))
	return c, true
}

// Get returns the connection for peer without removing it.
func (t *ConnectionTable) Get(peer string) (*transport.Conn, bool) {
	c, ok := t.byPeer[peer]
	return c, ok
}

// Len returns the number of tracked connections.
func (t *ConnectionTable) Len() int {
	return len(t.byPeer)
}

// AppendFds appends every tracked descriptor to dst.
func (t *ConnectionTable) AppendFds(dst []int) []int {
	for fd := range t.byFd {
		dst = append(dst, fd)
	}
	return dst
}

// CloseAll closes and forgets every tracked connection.
func (t *ConnectionTable) CloseAll() {
	for peer, c := range t.byPeer {
		c.Close()
		delete(t.byPeer, peer)
	}
	clear(t.byFd)
	t.size.Store(0)
}

// File: server/listener.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Listener task: polls the listening socket plus every tracked connection,
// accepts new peers and turns readable connections into responder tasks.

package server

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-coop/api"
	"github.com/momentics/hioload-coop/internal/transport"
	"github.com/momentics/hioload-coop/protocol"
	"github.com/momentics/hioload-coop/reactor"
)

// ListenerTask is the long-lived task that owns the listening socket and
// the connection table. It only completes after Stop.
type ListenerTask struct {
	ln      *transport.Listener
	mux     api.Multiplexer
	reg     api.Registrar
	table   *ConnectionTable
	timeout time.Duration
	now     api.Clock
	log     api.Logger
	ctrl    api.Control
	buf     []byte
	fds     []int
	stop    atomic.Bool
	done    chan struct{}
}

func newListenerTask(s *Server, ln *transport.Listener) *ListenerTask {
	l := &ListenerTask{
		ln:      ln,
		mux:     s.mux,
		reg:     s.sched,
		table:   NewConnectionTable(),
		timeout: reactor.ClampTimeout(s.cfg.PollTimeout),
		now:     s.now,
		log:     s.log,
		ctrl:    s.ctrl,
		buf:     make([]byte, s.cfg.ReadBufferSize),
		done:    make(chan struct{}),
	}
	l.ctrl.RegisterDebugProbe("listener.connections", func() any { return int(l.table.size.Load()) })
	return l
}

// Name implements api.Named.
func (l *ListenerTask) Name() string {
	return "listener"
}

// Port returns the bound port.
func (l *ListenerTask) Port() int {
	return l.ln.Port()
}

// Connections exposes the connection table.
func (l *ListenerTask) Connections() *ConnectionTable {
	return l.table
}

// Stop asks the task to close its sockets and complete on its next step.
// Safe to call from any goroutine.
func (l *ListenerTask) Stop() {
	l.stop.Store(true)
}

// Done is closed once the task has released its sockets.
func (l *ListenerTask) Done() <-chan struct{} {
	return l.done
}

// Step implements api.Task.
func (l *ListenerTask) Step() (api.Status, error) {
	if l.stop.Load() {
		l.release()
		return api.Completed, nil
	}

	lfd := l.ln.Fd()
	l.fds = append(l.fds[:0], lfd)
	l.fds = l.table.AppendFds(l.fds)

	ready, err := l.mux.Ready(l.fds, l.timeout)
	if err != nil {
		return api.Suspended, fmt.Errorf("listener poll: %w", err)
	}
	for _, fd := range ready {
		if fd == lfd {
			l.accept()
			continue
		}
		l.serve(fd)
	}
	return api.Suspended, nil
}

func (l *ListenerTask) accept() {
	conn, err := l.ln.Accept()
	if err != nil {
		if transport.IsTransientAccept(err) {
			l.log.Debugf("listener: accept: %v", err)
			return
		}
		l.log.Warnf("listener: accept: %v", err)
		return
	}
	l.table.Add(conn)
	l.ctrl.AddMetric("listener.accepted", 1)
	l.log.Debugf("listener: accepted %s", conn.PeerAddr())
}

// serve reads the single request a connection is allowed. The connection
// leaves the table whatever the outcome.
func (l *ListenerTask) serve(fd int) {
	conn, ok := l.table.Take(fd)
	if !ok {
		return
	}
	n, err := conn.Read(l.buf)
	if err != nil || n == 0 {
		l.drop(conn, "read", err)
		return
	}
	req, ok := protocol.ParseRequest(l.buf[:n])
	if !ok {
		l.drop(conn, "not a GET request", nil)
		return
	}
	l.log.Infof("listener: received GET request %s from %s", req.Path, conn.PeerAddr())
	l.ctrl.AddMetric("listener.requests", 1)
	l.reg.Register(NewResponderTask(conn, req.Seconds, l.now, l.log, l.ctrl), nil)
}

func (l *ListenerTask) drop(conn *transport.Conn, reason string, err error) {
	if err != nil {
		l.log.Debugf("listener: dropping %s: %s: %v", conn.PeerAddr(), reason, err)
	} else {
		l.log.Debugf("listener: dropping %s: %s", conn.PeerAddr(), reason)
	}
	conn.Close()
	l.ctrl.AddMetric("listener.dropped", 1)
}

func (l *ListenerTask) release() {
	l.table.CloseAll()
	if err := l.ln.Close(); err != nil {
		l.log.Warnf("listener: close listening socket: %v", err)
	}
	l.log.Infof("listener: stopped")
	close(l.done)
}

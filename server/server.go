// File: server/server.go
// Package server wires the scheduler, the readiness multiplexer and the
// listener task into the timed responder server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-coop/adapters"
	"github.com/momentics/hioload-coop/affinity"
	"github.com/momentics/hioload-coop/api"
	"github.com/momentics/hioload-coop/control"
	"github.com/momentics/hioload-coop/internal/concurrency"
	"github.com/momentics/hioload-coop/internal/transport"
	"github.com/momentics/hioload-coop/reactor"
)

var ErrAlreadyRunning = errors.New("server already running")

// Server is the facade encapsulating listener, scheduler and control.
type Server struct {
	cfg      *Config
	log      api.Logger
	ctrl     api.Control
	mux      api.Multiplexer
	now      api.Clock
	sched    *concurrency.Scheduler
	listener *ListenerTask
	running  atomic.Bool
}

var _ api.GracefulShutdown = (*Server)(nil)

// New binds the listening socket and prepares the scheduler. Nothing runs
// until Serve is called.
func New(cfg *Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg: cfg,
		log: control.NopLogger(),
		now: time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.ctrl == nil {
		s.ctrl = adapters.NewControlAdapter()
	}
	if s.mux == nil {
		mux, err := reactor.NewMultiplexer()
		if err != nil {
			return nil, err
		}
		s.mux = mux
	}

	ln, err := transport.Listen(transport.ListenConfig{
		Host:    cfg.Host,
		Port:    cfg.Port,
		Backlog: cfg.Backlog,
	})
	if err != nil {
		return nil, err
	}

	s.sched = concurrency.NewScheduler(
		concurrency.WithCapacity(cfg.QueueCapacity),
		concurrency.WithFailureIsolation(cfg.IsolateFailures),
		concurrency.WithLogger(s.log),
		concurrency.WithControl(s.ctrl),
		concurrency.WithEvictHook(s.evicted),
	)
	s.listener = newListenerTask(s, ln)
	return s, nil
}

// Port returns the bound port.
func (s *Server) Port() int {
	return s.listener.Port()
}

// Scheduler exposes the task scheduler.
func (s *Server) Scheduler() *concurrency.Scheduler {
	return s.sched
}

// Listener exposes the listener task.
func (s *Server) Listener() *ListenerTask {
	return s.listener
}

// Control returns the metrics/config/probe sink.
func (s *Server) Control() api.Control {
	return s.ctrl
}

// Serve registers the listener task and runs the scheduler on the calling
// goroutine. It returns when the queue drains (after Shutdown) or when a
// task fails without isolation.
func (s *Server) Serve() error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	if s.cfg.CPU >= 0 {
		release, err := affinity.Pin(s.cfg.CPU)
		if err != nil {
			s.log.Warnf("server: scheduler not pinned: %v", err)
		} else {
			defer release()
			s.log.Infof("scheduler pinned to cpu %d", s.cfg.CPU)
		}
	}
	s.log.Infof("listening on port %d", s.Port())
	s.sched.Register(s.listener, nil)

	err := s.sched.Run()
	select {
	case <-s.listener.Done():
	default:
		// the listener failed and was dropped, or Run stopped on another task
		s.listener.release()
		if err == nil {
			err = fmt.Errorf("server: listener task stopped: %w", api.ErrClosed)
		}
	}
	return err
}

// Shutdown makes the listener close the listening socket and every
// untouched connection on its next step. Responders already queued keep
// running; callers that must exit promptly wait on Closed instead of Serve.
func (s *Server) Shutdown() error {
	s.listener.Stop()
	return nil
}

// Closed is closed once the listening socket has been released.
func (s *Server) Closed() <-chan struct{} {
	return s.listener.Done()
}

// Close releases the sockets of a server whose Serve was never called.
func (s *Server) Close() error {
	if s.running.Load() {
		return s.Shutdown()
	}
	s.listener.Stop()
	select {
	case <-s.listener.Done():
	default:
		s.listener.release()
	}
	return nil
}

func (s *Server) evicted(task api.Task) {
	if r, ok := task.(*ResponderTask); ok {
		s.log.Warnf("server: dropping %s, queue full", r.Name())
		r.abort()
	}
}

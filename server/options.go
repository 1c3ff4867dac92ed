// File: server/options.go
// Package server defines functional options for the Server facade.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import "github.com/momentics/hioload-coop/api"

// Option customizes server initialization.
type Option func(*Server)

// WithLogger sets the logging sink for the server and its scheduler.
func WithLogger(l api.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithControl routes metrics, probes and config into c.
func WithControl(c api.Control) Option {
	return func(s *Server) {
		s.ctrl = c
	}
}

// WithMultiplexer replaces the platform readiness multiplexer.
func WithMultiplexer(m api.Multiplexer) Option {
	return func(s *Server) {
		s.mux = m
	}
}

// WithClock replaces time.Now for responder deadlines.
func WithClock(now api.Clock) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

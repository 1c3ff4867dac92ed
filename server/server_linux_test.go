//go:build linux

// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package server

import (
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/momentics/hioload-coop/api"
	"github.com/momentics/hioload-coop/reactor"
)

func newTestServer(t *testing.T, mutate func(*Config), opts ...Option) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.PollTimeout = 5 * time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}
	s, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func dial(t *testing.T, s *Server) net.Conn {
	t.Helper()
	c, err := net.Dial("tcp", "127.0.0.1:"+strconv.Itoa(s.Port()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// stepUntil drives the listener by hand on the test goroutine.
func stepUntil(t *testing.T, l *ListenerTask, cond func() bool) {
	t.Helper()
	for i := 0; i < 400; i++ {
		if cond() {
			return
		}
		if _, err := l.Step(); err != nil {
			t.Fatalf("listener step: %v", err)
		}
	}
	t.Fatal("condition not reached")
}

func readAll(t *testing.T, c net.Conn, within time.Duration) string {
	t.Helper()
	c.SetReadDeadline(time.Now().Add(within))
	b, err := io.ReadAll(c)
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	return string(b)
}

func waitServe(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
		return nil
	}
}

func TestListener_NonGETIsDropped(t *testing.T) {
	s := newTestServer(t, nil)
	defer s.Close()
	l := s.Listener()

	c := dial(t, s)
	stepUntil(t, l, func() bool { return l.Connections().Len() == 1 })
	if _, ok := l.Connections().Get(c.LocalAddr().String()); !ok {
		t.Fatalf("connection not keyed by peer address %s", c.LocalAddr())
	}

	if _, err := c.Write([]byte("\x16\x03\x01 hello there")); err != nil {
		t.Fatal(err)
	}
	stepUntil(t, l, func() bool { return l.Connections().Len() == 0 })

	if st := s.Scheduler().Stats(); st.Registered != 0 || s.Scheduler().Len() != 0 {
		t.Errorf("responder spawned for non-GET payload: %+v", st)
	}
	if got := readAll(t, c, time.Second); got != "" {
		t.Errorf("unexpected response %q", got)
	}
	if got := s.Control().Stats()["listener.dropped"]; got != int64(1) {
		t.Errorf("listener.dropped = %v", got)
	}
}

func TestListener_EarlyCloseIsDropped(t *testing.T) {
	s := newTestServer(t, nil)
	defer s.Close()
	l := s.Listener()

	c := dial(t, s)
	stepUntil(t, l, func() bool { return l.Connections().Len() == 1 })
	c.Close()
	stepUntil(t, l, func() bool { return l.Connections().Len() == 0 })

	if s.Scheduler().Stats().Registered != 0 {
		t.Error("responder spawned for empty read")
	}
}

func TestListener_GETSpawnsResponder(t *testing.T) {
	s := newTestServer(t, nil)
	defer s.Close()
	l := s.Listener()

	c := dial(t, s)
	stepUntil(t, l, func() bool { return l.Connections().Len() == 1 })
	if _, err := c.Write([]byte("GET /0 HTTP/1.1\r\nHost: localhost\r\n\r\n")); err != nil {
		t.Fatal(err)
	}
	stepUntil(t, l, func() bool { return l.Connections().Len() == 0 })

	if s.Scheduler().Len() != 1 {
		t.Fatalf("queued tasks = %d, want 1 responder", s.Scheduler().Len())
	}
	// Only the responder is queued: Run drains it and returns.
	if err := s.Scheduler().Run(); err != nil {
		t.Fatal(err)
	}
	if got := readAll(t, c, time.Second); got != "HTTP/1.1 200 OK\r\n\r\nI slept for 0 seconds" {
		t.Errorf("response = %q", got)
	}
	if got := s.Control().Stats()["responder.responses"]; got != int64(1) {
		t.Errorf("responder.responses = %v", got)
	}
}

func TestListener_PollsCurrentDescriptorSet(t *testing.T) {
	base, err := reactor.NewMultiplexer()
	if err != nil {
		t.Fatal(err)
	}
	var sizes []int
	rec := reactor.Func(func(fds []int, timeout time.Duration) ([]int, error) {
		sizes = append(sizes, len(fds))
		if timeout > reactor.MaxPollTimeout {
			t.Errorf("poll timeout %s above bound", timeout)
		}
		return base.Ready(fds, timeout)
	})
	s := newTestServer(t, func(c *Config) { c.PollTimeout = time.Second }, WithMultiplexer(rec))
	defer s.Close()
	l := s.Listener()

	c := dial(t, s)
	stepUntil(t, l, func() bool { return l.Connections().Len() == 1 })
	l.Step()
	if sizes[len(sizes)-1] != 2 {
		t.Errorf("poll set size = %d, want listener + 1 connection", sizes[len(sizes)-1])
	}
	c.Write([]byte("nope"))
	stepUntil(t, l, func() bool { return l.Connections().Len() == 0 })
	l.Step()
	if sizes[len(sizes)-1] != 1 {
		t.Errorf("poll set size = %d, want listener only", sizes[len(sizes)-1])
	}
}

func TestServer_ScenarioA(t *testing.T) {
	s := newTestServer(t, nil)
	errc := make(chan error, 1)
	go func() { errc <- s.Serve() }()

	start := time.Now()
	c := dial(t, s)
	if _, err := c.Write([]byte("GET /2 HTTP/1.1\r\n\r\n")); err != nil {
		t.Fatal(err)
	}
	body := readAll(t, c, 10*time.Second)
	elapsed := time.Since(start)

	if elapsed < 2*time.Second {
		t.Errorf("answered after %s, want at least 2s", elapsed)
	}
	if !strings.HasPrefix(body, "HTTP/1.1 200 OK\r\n\r\n") || !strings.Contains(body, "2") {
		t.Errorf("response = %q", body)
	}

	s.Shutdown()
	if err := waitServe(t, errc); err != nil {
		t.Errorf("Serve: %v", err)
	}
}

func TestServer_ConcurrentRequestsOverlap(t *testing.T) {
	s := newTestServer(t, nil)
	errc := make(chan error, 1)
	go func() { errc <- s.Serve() }()

	start := time.Now()
	var clients []net.Conn
	for i := 0; i < 3; i++ {
		c := dial(t, s)
		if _, err := c.Write([]byte("GET /1 HTTP/1.1\r\n\r\n")); err != nil {
			t.Fatal(err)
		}
		clients = append(clients, c)
	}
	for _, c := range clients {
		if body := readAll(t, c, 5*time.Second); !strings.HasSuffix(body, "I slept for 1 seconds") {
			t.Errorf("response = %q", body)
		}
	}
	if elapsed := time.Since(start); elapsed >= 2500*time.Millisecond {
		t.Errorf("three 1s requests took %s; they were not interleaved", elapsed)
	}

	s.Shutdown()
	if err := waitServe(t, errc); err != nil {
		t.Errorf("Serve: %v", err)
	}
}

func TestServer_ShutdownClosesSockets(t *testing.T) {
	s := newTestServer(t, nil)
	port := s.Port()
	errc := make(chan error, 1)
	go func() { errc <- s.Serve() }()

	idle := dial(t, s)
	deadline := time.Now().Add(2 * time.Second)
	for s.Control().Stats()["listener.accepted"] != int64(1) {
		if time.Now().After(deadline) {
			t.Fatal("connection never accepted")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.Shutdown()
	select {
	case <-s.Closed():
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not release its sockets")
	}
	if err := waitServe(t, errc); err != nil {
		t.Errorf("Serve: %v", err)
	}
	if got := readAll(t, idle, time.Second); got != "" {
		t.Errorf("idle connection got %q", got)
	}
	if c, err := net.DialTimeout("tcp", "127.0.0.1:"+strconv.Itoa(port), 200*time.Millisecond); err == nil {
		c.Close()
		t.Error("listening socket still accepts after shutdown")
	}
	if err := s.Serve(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Serve = %v", err)
	}
}

var errPoll = errors.New("poll broke")

func brokenMux() api.Multiplexer {
	return reactor.Func(func([]int, time.Duration) ([]int, error) { return nil, errPoll })
}

func TestServer_ListenerFailureIsolated(t *testing.T) {
	s := newTestServer(t, nil, WithMultiplexer(brokenMux()))
	err := s.Serve()
	if !errors.Is(err, api.ErrClosed) {
		t.Errorf("Serve = %v, want listener stopped", err)
	}
	select {
	case <-s.Closed():
	default:
		t.Error("sockets not released after listener failure")
	}
}

func TestServer_ListenerFailurePropagates(t *testing.T) {
	s := newTestServer(t, func(c *Config) { c.IsolateFailures = false }, WithMultiplexer(brokenMux()))
	err := s.Serve()
	if !errors.Is(err, errPoll) {
		t.Errorf("Serve = %v, want %v", err, errPoll)
	}
}

// File: server/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"fmt"
	"time"

	"github.com/momentics/hioload-coop/api"
	"github.com/momentics/hioload-coop/control"
	"github.com/momentics/hioload-coop/protocol"
	"github.com/momentics/hioload-coop/reactor"
)

// Config keys understood by LoadConfig and written by Config.Map.
const (
	KeyHost            = "host"
	KeyPort            = "port"
	KeyBacklog         = "backlog"
	KeyReadBufferSize  = "read_buffer_size"
	KeyPollTimeout     = "poll_timeout"
	KeyQueueCapacity   = "queue_capacity"
	KeyIsolateFailures = "isolate_failures"
	KeyLogLevel        = "log_level"
	KeyCPU             = "cpu"
)

// Config holds all server-side configuration parameters.
type Config struct {
	Host            string        // IPv4 bind address, "" = all interfaces
	Port            int           // TCP port, 0 = ephemeral
	Backlog         int           // listen(2) backlog
	ReadBufferSize  int           // bytes read per request
	PollTimeout     time.Duration // readiness wait per listener step, capped at 100ms
	QueueCapacity   int           // max waiting tasks, 0 = unbounded
	IsolateFailures bool          // a failing responder does not stop the scheduler
	LogLevel        string        // debug|info|warn|error
	CPU             int           // pin the scheduler thread to this CPU, -1 = no pinning
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:            "",
		Port:            8000,
		Backlog:         4096,
		ReadBufferSize:  protocol.ReadBufferSize,
		PollTimeout:     reactor.MaxPollTimeout,
		QueueCapacity:   0,
		IsolateFailures: true,
		LogLevel:        "info",
		CPU:             -1,
	}
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d: %w", c.Port, api.ErrInvalidArgument)
	}
	if c.ReadBufferSize <= 0 {
		return fmt.Errorf("read buffer size %d: %w", c.ReadBufferSize, api.ErrInvalidArgument)
	}
	if c.PollTimeout < 0 {
		return fmt.Errorf("poll timeout %s: %w", c.PollTimeout, api.ErrInvalidArgument)
	}
	if c.CPU < -1 {
		return fmt.Errorf("cpu %d: %w", c.CPU, api.ErrInvalidArgument)
	}
	if _, err := control.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Map renders c as config-store entries.
func (c *Config) Map() map[string]any {
	return map[string]any{
		KeyHost:            c.Host,
		KeyPort:            c.Port,
		KeyBacklog:         c.Backlog,
		KeyReadBufferSize:  c.ReadBufferSize,
		KeyPollTimeout:     c.PollTimeout,
		KeyQueueCapacity:   c.QueueCapacity,
		KeyIsolateFailures: c.IsolateFailures,
		KeyLogLevel:        c.LogLevel,
		KeyCPU:             c.CPU,
	}
}

// LoadConfig reads a Config from store, using DefaultConfig for missing keys.
func LoadConfig(store *control.ConfigStore) *Config {
	def := DefaultConfig()
	return &Config{
		Host:            store.String(KeyHost, def.Host),
		Port:            store.Int(KeyPort, def.Port),
		Backlog:         store.Int(KeyBacklog, def.Backlog),
		ReadBufferSize:  store.Int(KeyReadBufferSize, def.ReadBufferSize),
		PollTimeout:     store.Duration(KeyPollTimeout, def.PollTimeout),
		QueueCapacity:   store.Int(KeyQueueCapacity, def.QueueCapacity),
		IsolateFailures: store.Bool(KeyIsolateFailures, def.IsolateFailures),
		LogLevel:        store.String(KeyLogLevel, def.LogLevel),
		CPU:             store.Int(KeyCPU, def.CPU),
	}
}

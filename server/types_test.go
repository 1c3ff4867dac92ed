package server

import (
	"errors"
	"testing"
	"time"

	"github.com/momentics/hioload-coop/api"
	"github.com/momentics/hioload-coop/control"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8000 || cfg.Backlog != 4096 || cfg.ReadBufferSize != 1024 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.PollTimeout != 100*time.Millisecond {
		t.Errorf("poll timeout = %s", cfg.PollTimeout)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"port":   func(c *Config) { c.Port = 70000 },
		"buffer": func(c *Config) { c.ReadBufferSize = 0 },
		"poll":   func(c *Config) { c.PollTimeout = -time.Second },
		"level":  func(c *Config) { c.LogLevel = "chatty" },
		"cpu":    func(c *Config) { c.CPU = -2 },
	} {
		cfg := DefaultConfig()
		mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, api.ErrInvalidArgument) {
			t.Errorf("%s: Validate = %v", name, err)
		}
	}
}

func TestConfigStoreRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 9100
	cfg.QueueCapacity = 200
	cfg.IsolateFailures = false
	cfg.LogLevel = "debug"
	cfg.PollTimeout = 20 * time.Millisecond
	cfg.CPU = 1

	store := control.NewConfigStore()
	store.SetConfig(cfg.Map())
	got := LoadConfig(store)
	if *got != *cfg {
		t.Errorf("LoadConfig = %+v, want %+v", got, cfg)
	}

	empty := LoadConfig(control.NewConfigStore())
	if *empty != *DefaultConfig() {
		t.Errorf("LoadConfig on empty store = %+v", empty)
	}
}

// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store with dynamic update and reload propagation.

package control

import (
	"sync"
	"time"
)

// ConfigStore is a dynamic key/value map with atomic snapshot and listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func()
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config:    make(map[string]any),
		listeners: make([]func(), 0),
	}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	copy := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		copy[k] = v
	}
	return copy
}

// SetConfig merges new values and dispatches reload listeners.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	cs.dispatchReload()
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// Int returns key as an int, or def if missing or of another type.
func (cs *ConfigStore) Int(key string, def int) int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	switch v := cs.config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// String returns key as a string, or def.
func (cs *ConfigStore) String(key string, def string) string {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if v, ok := cs.config[key].(string); ok {
		return v
	}
	return def
}

// Bool returns key as a bool, or def.
func (cs *ConfigStore) Bool(key string, def bool) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if v, ok := cs.config[key].(bool); ok {
		return v
	}
	return def
}

// Duration returns key as a time.Duration, or def.
// String values are parsed with time.ParseDuration.
func (cs *ConfigStore) Duration(key string, def time.Duration) time.Duration {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	switch v := cs.config[key].(type) {
	case time.Duration:
		return v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// dispatchReload invokes all listeners.
func (cs *ConfigStore) dispatchReload() {
	for _, fn := range cs.listeners {
		go fn()
	}
}

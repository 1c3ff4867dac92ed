// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Control adapter implementing api.Control over the control package primitives.

package adapters

import (
	"github.com/momentics/hioload-coop/api"
	"github.com/momentics/hioload-coop/control"
)

// ControlAdapter bundles config, metrics and debug probes behind api.Control.
type ControlAdapter struct {
	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	debug   *control.DebugProbes
}

// NewControlAdapter builds an adapter with empty stores and platform probes.
func NewControlAdapter() *ControlAdapter {
	adapter := &ControlAdapter{
		config:  control.NewConfigStore(),
		metrics: control.NewMetricsRegistry(),
		debug:   control.NewDebugProbes(),
	}
	control.RegisterPlatformProbes(adapter.debug)
	return adapter
}

var _ api.Control = (*ControlAdapter)(nil)

func (c *ControlAdapter) GetConfig() map[string]any {
	return c.config.GetSnapshot()
}

func (c *ControlAdapter) SetConfig(cfg map[string]any) error {
	c.config.SetConfig(cfg)
	return nil
}

// Stats merges metrics with the current probe values under a "debug." prefix.
func (c *ControlAdapter) Stats() map[string]any {
	stats := c.metrics.GetSnapshot()
	debugStats := c.debug.DumpState()
	combined := make(map[string]any, len(stats)+len(debugStats))
	for k, v := range stats {
		combined[k] = v
	}
	for k, v := range debugStats {
		combined["debug."+k] = v
	}
	return combined
}

func (c *ControlAdapter) OnReload(fn func()) {
	c.config.OnReload(fn)
}

func (c *ControlAdapter) SetMetric(key string, value any) {
	c.metrics.Set(key, value)
}

// AddMetric increments a counter metric.
func (c *ControlAdapter) AddMetric(key string, delta int64) int64 {
	return c.metrics.Add(key, delta)
}

func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// Config exposes the underlying store for typed reads.
func (c *ControlAdapter) Config() *control.ConfigStore {
	return c.config
}

// Package control
// Author: momentics <momentics@gmail.com>
//
// Control composes the config snapshot, metrics and debug probes behind api.Control.

package control

import (
	"maps"

	"github.com/momentics/orderline/api"
)

// Ensure compliance with api.Control.
var _ api.Control = (*Control)(nil)

// Control is the runtime introspection surface of one pipeline run.
type Control struct {
	config  map[string]any
	metrics *Metrics
	debug   *DebugProbes
}

// New builds a Control around an immutable config snapshot.
func New(config map[string]any, metrics *Metrics) *Control {
	c := &Control{
		config:  maps.Clone(config),
		metrics: metrics,
		debug:   NewDebugProbes(),
	}
	RegisterPlatformProbes(c.debug)
	return c
}

// GetConfig returns a copy of the effective configuration.
func (c *Control) GetConfig() map[string]any {
	return maps.Clone(c.config)
}

// Stats merges the metrics snapshot with debug probe output.
func (c *Control) Stats() map[string]any {
	combined := c.metrics.Snapshot()
	for k, v := range c.debug.DumpState() {
		combined["debug."+k] = v
	}
	return combined
}

// RegisterDebugProbe adds a named probe reported under "debug.<name>".
func (c *Control) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

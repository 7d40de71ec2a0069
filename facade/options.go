// File: facade/options.go
// Package facade defines functional options for the Pipeline.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package facade

import (
	"go.uber.org/zap"

	"github.com/momentics/orderline/control"
	"github.com/momentics/orderline/internal/courier"
	"github.com/momentics/orderline/internal/worker"
)

// Option customizes pipeline initialization.
type Option func(*Pipeline)

// WithLogger sets the base logger; every role derives a named child from it.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithLauncher overrides how the courier is started.
func WithLauncher(l courier.Launcher) Option {
	return func(p *Pipeline) {
		p.launcher = l
	}
}

// WithGenerator sets the payload generator used by producers.
func WithGenerator(g worker.Generator) Option {
	return func(p *Pipeline) {
		p.generate = g
	}
}

// WithMetrics shares a metrics set, e.g. with an inline courier.
func WithMetrics(m *control.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithMaxItems stops each producer after n items. Zero runs until cancelled.
func WithMaxItems(n int) Option {
	return func(p *Pipeline) {
		p.maxItems = n
	}
}

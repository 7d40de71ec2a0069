// File: facade/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Config holds parameters immutable per run, loaded from ORDERLINE_* variables.

package facade

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/momentics/orderline/api"
	"github.com/momentics/orderline/internal/logging"
	"github.com/momentics/orderline/internal/worker"
)

// EnvPrefix is the environment prefix read by LoadConfig.
const EnvPrefix = "orderline"

// Courier modes.
const (
	CourierProcess = "process"
	CourierInline  = "inline"
)

// Config holds parameters immutable per run.
type Config struct {
	ProducerCount int `envconfig:"PRODUCERS" default:"2"`
	ConsumerCount int `envconfig:"CONSUMERS" default:"3"`
	QueueCapacity int `envconfig:"QUEUE_CAPACITY" default:"5"`

	ProduceMin   time.Duration `envconfig:"PRODUCE_MIN" default:"1s"`
	ProduceMax   time.Duration `envconfig:"PRODUCE_MAX" default:"3s"`
	ProcessMin   time.Duration `envconfig:"PROCESS_MIN" default:"2s"`
	ProcessMax   time.Duration `envconfig:"PROCESS_MAX" default:"5s"`
	DeliverDelay time.Duration `envconfig:"DELIVER_DELAY" default:"1s"`

	WriteFailurePolicy string `envconfig:"WRITE_FAILURE_POLICY" default:"fatal"`
	CourierMode        string `envconfig:"COURIER_MODE" default:"process"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	MetricsAddr     string        `envconfig:"METRICS_ADDR"`
	StatsInterval   time.Duration `envconfig:"STATS_INTERVAL"`

	Logging logging.Config `envconfig:"LOG"`
}

// DefaultConfig returns the compiled-in defaults: two producers, three
// consumers, a queue of five.
func DefaultConfig() *Config {
	return &Config{
		ProducerCount:      2,
		ConsumerCount:      3,
		QueueCapacity:      5,
		ProduceMin:         time.Second,
		ProduceMax:         3 * time.Second,
		ProcessMin:         2 * time.Second,
		ProcessMax:         5 * time.Second,
		DeliverDelay:       time.Second,
		WriteFailurePolicy: string(worker.PolicyFatal),
		CourierMode:        CourierProcess,
		ShutdownTimeout:    30 * time.Second,
		Logging:            logging.DefaultConfig(),
	}
}

// LoadConfig reads the configuration from the environment and validates it.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, api.Wrap(api.ErrCodeInvalidArgument, "load configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run.
func (c *Config) Validate() error {
	switch {
	case c.ProducerCount < 1:
		return invalid("producer count must be positive, got %d", c.ProducerCount)
	case c.ConsumerCount < 1:
		return invalid("consumer count must be positive, got %d", c.ConsumerCount)
	case c.QueueCapacity < 1:
		return invalid("queue capacity must be positive, got %d", c.QueueCapacity)
	case c.ProduceMin < 0 || c.ProduceMax < c.ProduceMin:
		return invalid("bad produce latency range [%s, %s]", c.ProduceMin, c.ProduceMax)
	case c.ProcessMin < 0 || c.ProcessMax < c.ProcessMin:
		return invalid("bad process latency range [%s, %s]", c.ProcessMin, c.ProcessMax)
	case c.DeliverDelay < 0:
		return invalid("deliver delay must not be negative")
	case c.ShutdownTimeout <= 0:
		return invalid("shutdown timeout must be positive")
	case c.CourierMode != CourierProcess && c.CourierMode != CourierInline:
		return invalid("courier mode %q", c.CourierMode)
	}
	if _, err := worker.ParsePolicy(c.WriteFailurePolicy); err != nil {
		return api.Wrap(api.ErrCodeInvalidArgument, "invalid configuration", err)
	}
	return nil
}

// Map flattens the config for the control snapshot.
func (c *Config) Map() map[string]any {
	return map[string]any{
		"producer_count":       c.ProducerCount,
		"consumer_count":       c.ConsumerCount,
		"queue_capacity":       c.QueueCapacity,
		"produce_latency":      fmt.Sprintf("%s-%s", c.ProduceMin, c.ProduceMax),
		"process_latency":      fmt.Sprintf("%s-%s", c.ProcessMin, c.ProcessMax),
		"deliver_delay":        c.DeliverDelay.String(),
		"write_failure_policy": c.WriteFailurePolicy,
		"courier_mode":         c.CourierMode,
		"shutdown_timeout":     c.ShutdownTimeout.String(),
		"metrics_addr":         c.MetricsAddr,
		"log_level":            c.Logging.Level,
	}
}

func invalid(format string, args ...any) error {
	return api.Wrap(api.ErrCodeInvalidArgument, "invalid configuration",
		fmt.Errorf("%w: "+format, append([]any{api.ErrInvalidArgument}, args...)...))
}

// Copyright 2025 momentics@gmail.com
// License: Apache 2.0

package facade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/orderline/api"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("ORDERLINE_PRODUCERS", "4")
	t.Setenv("ORDERLINE_QUEUE_CAPACITY", "16")
	t.Setenv("ORDERLINE_PROCESS_MIN", "10ms")
	t.Setenv("ORDERLINE_PROCESS_MAX", "20ms")
	t.Setenv("ORDERLINE_WRITE_FAILURE_POLICY", "drop")
	t.Setenv("ORDERLINE_COURIER_MODE", "inline")
	t.Setenv("ORDERLINE_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.ProducerCount)
	assert.Equal(t, 3, cfg.ConsumerCount)
	assert.Equal(t, 16, cfg.QueueCapacity)
	assert.Equal(t, 10*time.Millisecond, cfg.ProcessMin)
	assert.Equal(t, 20*time.Millisecond, cfg.ProcessMax)
	assert.Equal(t, "drop", cfg.WriteFailurePolicy)
	assert.Equal(t, CourierInline, cfg.CourierMode)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_RejectsBadValues(t *testing.T) {
	t.Setenv("ORDERLINE_CONSUMERS", "zero")
	_, err := LoadConfig()
	require.Error(t, err)
	assert.Equal(t, api.ErrCodeInvalidArgument, api.CodeOf(err))
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no producers", func(c *Config) { c.ProducerCount = 0 }},
		{"no consumers", func(c *Config) { c.ConsumerCount = -1 }},
		{"zero capacity", func(c *Config) { c.QueueCapacity = 0 }},
		{"inverted produce range", func(c *Config) { c.ProduceMin, c.ProduceMax = 2*time.Second, time.Second }},
		{"inverted process range", func(c *Config) { c.ProcessMax = time.Millisecond }},
		{"negative deliver delay", func(c *Config) { c.DeliverDelay = -time.Second }},
		{"no shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }},
		{"unknown courier mode", func(c *Config) { c.CourierMode = "thread" }},
		{"unknown policy", func(c *Config) { c.WriteFailurePolicy = "retry" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, api.ErrInvalidArgument)
			assert.Equal(t, api.ErrCodeInvalidArgument, api.CodeOf(err))
		})
	}
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfig_Map(t *testing.T) {
	m := DefaultConfig().Map()
	assert.Equal(t, 2, m["producer_count"])
	assert.Equal(t, 3, m["consumer_count"])
	assert.Equal(t, 5, m["queue_capacity"])
	assert.Equal(t, "fatal", m["write_failure_policy"])
	assert.Equal(t, "1s-3s", m["produce_latency"])
}

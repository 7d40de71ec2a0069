// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// control_test.go: metrics snapshot, probes and the metrics endpoint.
package control_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/momentics/orderline/api"
	"github.com/momentics/orderline/control"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := control.NewMetrics(nil)
	m.Produced.WithLabelValues("1").Add(3)
	m.Sent.Inc()
	m.InsertWait.Observe(0.5)
	m.ObserveQueue(func() api.QueueStats { return api.QueueStats{Len: 2, Cap: 5} })

	assert.Equal(t, float64(3), testutil.ToFloat64(m.Produced.WithLabelValues("1")))

	snap := m.Snapshot()
	assert.Equal(t, float64(3), snap["orderline_items_produced_total{producer=1}"])
	assert.Equal(t, float64(1), snap["orderline_items_sent_total"])
	assert.Equal(t, float64(2), snap["orderline_queue_depth"])
	assert.Equal(t, float64(5), snap["orderline_queue_capacity"])
	assert.Equal(t, uint64(1), snap["orderline_queue_insert_wait_seconds_count"])
}

func TestControl_StatsAndConfig(t *testing.T) {
	cfg := map[string]any{"queue_capacity": 5}
	c := control.New(cfg, control.NewMetrics(nil))
	cfg["queue_capacity"] = 99

	assert.Equal(t, 5, c.GetConfig()["queue_capacity"], "config snapshot must be isolated")

	c.RegisterDebugProbe("courier.pid", func() any { return 1234 })
	stats := c.Stats()
	assert.Equal(t, 1234, stats["debug.courier.pid"])
	assert.Contains(t, stats, "debug.process.pid")
}

func TestMetricsServer_ServesRegistry(t *testing.T) {
	m := control.NewMetrics(nil)
	m.Delivered.Add(2)

	srv, err := control.ListenMetrics("127.0.0.1:0", m, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + srv.Addr() + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, body, "orderline_items_delivered_total 2")

	cancel()
	require.NoError(t, <-done)
}

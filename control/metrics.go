// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics for the pipeline, backed by a private prometheus registry.
// Snapshot flattens the registry into a plain map for logs and debug output.

package control

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/momentics/orderline/api"
)

const namespace = "orderline"

// Metrics holds every collector the pipeline updates.
type Metrics struct {
	registry *prometheus.Registry

	Produced  *prometheus.CounterVec // by producer id
	Consumed  *prometheus.CounterVec // by consumer id
	Sent      prometheus.Counter
	Dropped   prometheus.Counter
	Abandoned prometheus.Counter
	Delivered prometheus.Counter

	InsertWait prometheus.Histogram
	RemoveWait prometheus.Histogram
}

var waitBuckets = []float64{.0001, .001, .01, .1, .5, 1, 2.5, 5, 10}

// NewMetrics registers pipeline collectors on reg. A nil reg gets a fresh registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Produced: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_produced_total",
			Help:      "Items inserted into the queue.",
		}, []string{"producer"}),
		Consumed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_consumed_total",
			Help:      "Items removed from the queue.",
		}, []string{"consumer"}),
		Sent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_sent_total",
			Help:      "Items written to the delivery channel.",
		}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_dropped_total",
			Help:      "Items lost to delivery channel write failures.",
		}),
		Abandoned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_abandoned_total",
			Help:      "Items left undelivered when the drain timed out.",
		}),
		Delivered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_delivered_total",
			Help:      "Items handed out by the courier.",
		}),
		InsertWait: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "queue_insert_wait_seconds",
			Help:      "Time producers spent waiting for a free slot.",
			Buckets:   waitBuckets,
		}),
		RemoveWait: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "queue_remove_wait_seconds",
			Help:      "Time consumers spent waiting for an item.",
			Buckets:   waitBuckets,
		}),
	}
}

// Registry returns the underlying prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveQueue exports occupancy gauges read from stats on every scrape.
func (m *Metrics) ObserveQueue(stats func() api.QueueStats) {
	f := promauto.With(m.registry)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Items currently buffered.",
	}, func() float64 { return float64(stats().Len) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_capacity",
		Help:      "Fixed queue capacity.",
	}, func() float64 { return float64(stats().Cap) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_blocked_producers",
		Help:      "Producers blocked on a full queue.",
	}, func() float64 { return float64(stats().WaitingInsert) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_blocked_consumers",
		Help:      "Consumers blocked on an empty queue.",
	}, func() float64 { return float64(stats().WaitingRemove) })
}

// Snapshot returns current values keyed by metric name and labels.
// Histograms contribute their _count and _sum.
func (m *Metrics) Snapshot() map[string]any {
	out := make(map[string]any)
	families, err := m.registry.Gather()
	if err != nil {
		out["gather_error"] = err.Error()
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			key := mf.GetName() + labelSuffix(metric.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				out[key] = metric.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				out[key] = metric.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				h := metric.GetHistogram()
				out[key+"_count"] = h.GetSampleCount()
				out[key+"_sum"] = h.GetSampleSum()
			}
		}
	}
	return out
}

func labelSuffix(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, l.GetName()+"="+l.GetValue())
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

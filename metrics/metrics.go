// Package metrics exports engine activity as prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/jsonabi/engine"
)

const namespace = "jsonabi"

// Collector turns engine events into metrics. Pass it in
// engine.Config.Observers.
type Collector struct {
	calls       *prometheus.CounterVec
	inputBytes  prometheus.Counter
	outputBytes prometheus.Counter
	liveValues  prometheus.Gauge
	liveStrings prometheus.Gauge
}

var _ engine.Observer = (*Collector)(nil)

// NewCollector creates the metrics and registers them to reg. A nil reg
// leaves them unregistered.
func NewCollector(reg prometheus.Registerer) *Collector {
	var c Collector

	c.calls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calls_total",
		Help:      "Boundary calls by operation and result (ok, swept or error kind).",
	}, []string{"op", "result"})

	c.inputBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deserialize_input_bytes_total",
		Help:      "Bytes of JSON text handed to deserialize.",
	})

	c.outputBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "serialize_output_bytes_total",
		Help:      "Bytes of JSON text produced by successful serialize calls.",
	})

	c.liveValues = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_values",
		Help:      "Value handles handed out and not yet dropped.",
	})

	c.liveStrings = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_strings",
		Help:      "Owned-Strings handed out and not yet dropped.",
	})

	if reg != nil {
		reg.MustRegister(c.calls, c.inputBytes, c.outputBytes, c.liveValues, c.liveStrings)
	}
	return &c
}

// OnEvent implements engine.Observer.
func (c *Collector) OnEvent(ev engine.Event) {
	result := "ok"
	switch {
	case !ev.OK():
		result = string(ev.Kind)
	case ev.Swept:
		result = "swept"
	}
	c.calls.WithLabelValues(ev.Op.String(), result).Inc()

	if ev.String {
		c.liveStrings.Inc()
	}

	switch ev.Op {
	case engine.OpDeserialize:
		c.inputBytes.Add(float64(ev.Bytes))
		if ev.OK() {
			c.liveValues.Inc()
		}
	case engine.OpSerialize:
		if ev.OK() {
			c.outputBytes.Add(float64(ev.Bytes))
		}
	case engine.OpDropValue:
		if ev.OK() {
			c.liveValues.Dec()
		}
	case engine.OpDropString:
		if ev.OK() {
			c.liveStrings.Dec()
		}
	}
}

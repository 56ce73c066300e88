// Package stats provides methods and functionality to register, track, log,
// and export metrics that, for the most part, include "counter" and "latency" kinds.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"net/http"
	"strings"
	ratomic "sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type (
	statsValue struct {
		counter    prometheus.Counter
		counterVec *prometheus.CounterVec
		gauge      prometheus.Gauge
		kind       string // enum { KindCounter, KindSize, KindLatency, KindGauge }
		Value      int64  `json:"v,string"`
		numSamples int64  // (average latency over the log interval)
	}
	coreStats struct {
		Tracker map[string]*statsValue
	}
)

var staticLabs = prometheus.Labels{"job": ""}

func initProm(jobName string) *prometheus.Registry {
	staticLabs["job"] = strings.ReplaceAll(jobName, ".", "_")
	return prometheus.NewRegistry()
}

func (s *coreStats) init(size int) {
	s.Tracker = make(map[string]*statsValue, size)
}

func (s *coreStats) get(name string) int64 {
	v := s.Tracker[name]
	return ratomic.LoadInt64(&v.Value)
}

// copyCumulative snapshots every tracked value, averaging KindLatency
// metrics over their accumulated sample count and resetting it.
func (s *coreStats) copyCumulative(out map[string]int64) {
	for name, v := range s.Tracker {
		switch v.kind {
		case KindLatency:
			if num := ratomic.SwapInt64(&v.numSamples, 0); num > 0 {
				out[name] = ratomic.SwapInt64(&v.Value, 0) / num
			} else {
				out[name] = 0
			}
		default:
			out[name] = ratomic.LoadInt64(&v.Value)
		}
	}
}

func (s *coreStats) reset() {
	for _, v := range s.Tracker {
		ratomic.StoreInt64(&v.Value, 0)
		ratomic.StoreInt64(&v.numSamples, 0)
	}
}

////////////
// runner //
////////////

// reg registers a single metric name with Prometheus, deriving the
// Prometheus metric name from the "*.n" / "*.ns" / "*.size" suffix
// convention unless extra carries variable labels, in which case a
// CounterVec is registered instead and the vector's individual children
// are looked up by label value at increment time.
func (r *runner) reg(name, kind string, extra *Extra) {
	metricName := promName(name, kind)
	help := ""
	if extra != nil {
		help = extra.Help
	}

	v := &statsValue{kind: kind}
	switch kind {
	case KindCounter, KindSize:
		opts := prometheus.CounterOpts{Namespace: "hangreport", Name: metricName, Help: help, ConstLabels: staticLabs}
		if extra != nil && len(extra.VarLabs) > 0 {
			v.counterVec = prometheus.NewCounterVec(opts, extra.VarLabs)
			r.promRegistry.MustRegister(v.counterVec)
		} else {
			v.counter = prometheus.NewCounter(opts)
			r.promRegistry.MustRegister(v.counter)
		}
	case KindLatency:
		// averaged over the log interval and reported via /metrics as a gauge
		opts := prometheus.GaugeOpts{Namespace: "hangreport", Name: metricName, Help: help, ConstLabels: staticLabs}
		v.gauge = prometheus.NewGauge(opts)
		r.promRegistry.MustRegister(v.gauge)
	default: // KindGauge
		opts := prometheus.GaugeOpts{Namespace: "hangreport", Name: metricName, Help: help, ConstLabels: staticLabs}
		v.gauge = prometheus.NewGauge(opts)
		r.promRegistry.MustRegister(v.gauge)
	}

	r.core.Tracker[name] = v
}

func promName(name, kind string) string {
	switch kind {
	case KindCounter:
		name = strings.TrimSuffix(name, ".n") + "_count"
	case KindSize:
		name = strings.TrimSuffix(name, ".size") + "_bytes"
	case KindLatency:
		name = strings.TrimSuffix(name, ".ns") + "_ms"
	}
	return strings.ReplaceAll(name, ".", "_")
}

// PromHandler exposes this job's metrics at /metrics and instruments the
// scrape itself.
func (r *runner) PromHandler() http.Handler {
	opts := promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError}
	handler := promhttp.HandlerFor(r.promRegistry, opts)
	return promhttp.InstrumentMetricHandler(r.promRegistry, handler)
}

// Package stats provides methods and functionality to register, track, log,
// and export metrics that, for the most part, include "counter" and "latency" kinds.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"sort"
	ratomic "sync/atomic"
	"time"

	"github.com/mozilla-telemetry/hangreport/cmn/nlog"

	"github.com/prometheus/client_golang/prometheus"
)

// Naming conventions:
// ========================================================
// "*.n"    - KindCounter
// "*.ns"   - KindLatency (milliseconds, averaged over the log interval)
// "*.size" - KindSize (bytes)
//
// all error counters carry the "err." prefix (see `errPrefix`)

// runner owns this job's metric registry: a map of name to tracked value,
// registered with Prometheus and periodically logged.
type runner struct {
	core         *coreStats
	promRegistry *prometheus.Registry
	name         string
	stopCh       chan struct{}
	ticker       *time.Ticker
	sorted       []string
}

// New builds a runner and registers the fixed set of job metrics this
// package knows about. jobName becomes the constant "job" label on every
// exported Prometheus series.
func New(jobName string) *runner {
	r := &runner{
		core:         &coreStats{},
		promRegistry: initProm(jobName),
		name:         jobName,
		stopCh:       make(chan struct{}),
	}
	r.core.init(16)
	r.regAll()
	return r
}

func (r *runner) regAll() {
	r.reg(PingsReadCount, KindCounter, &Extra{Help: "total number of pings read from the source"})
	r.reg(PingsDroppedCount, KindCounter, &Extra{Help: "pings skipped before mapping, by reason", VarLabs: []string{VlabReason}})
	r.reg(StacksFilteredCount, KindCounter, &Extra{Help: "stacks reduced by the ignore-list filter"})
	r.reg(ReducerBelowCutoffCount, KindCounter, &Extra{Help: "reducer groups dropped for falling below the minimum sample count"})
	r.reg(SymbolicateHitCount, KindCounter, &Extra{Help: "native frames resolved to a function and source line"})
	r.reg(SymbolicateMissCount, KindCounter, &Extra{Help: "native frames left unresolved: no matching module or address out of range"})
	r.reg(SymbolicateFallbackCount, KindCounter, &Extra{Help: "native frames resolved to a function but not to a source line"})
	r.reg(FetchLatency, KindLatency, &Extra{Help: "average time (milliseconds) to fetch one symbol archive over the last log interval"})
	r.reg(FetchErrorCount, KindCounter, &Extra{Help: "symbol archive fetch failures"})
	r.reg(FetchSize, KindSize, &Extra{Help: "total bytes of symbol archives fetched"})
	r.reg(BundleWriteLatency, KindLatency, &Extra{Help: "average time (milliseconds) to write one output bundle file over the last log interval"})
}

//
// as a plain counter/latency sink; no cos.StatsUpdater cluster-node surface
//

func (r *runner) Inc(name string) { r.Add(name, 1) }

func (r *runner) Add(name string, val int64) {
	v, ok := r.core.Tracker[name]
	if !ok {
		return
	}
	switch v.kind {
	case KindLatency:
		total := ratomic.AddInt64(&v.Value, val)
		n := ratomic.AddInt64(&v.numSamples, 1)
		v.gauge.Set(float64(total) / float64(n) / float64(time.Millisecond))
	default:
		ratomic.AddInt64(&v.Value, val)
		if v.counter != nil {
			v.counter.Add(float64(val))
		}
		if v.gauge != nil {
			v.gauge.Add(float64(val))
		}
	}
}

// IncWith increments a variable-labeled counter, e.g.
// IncWith(PingsDroppedCount, map[string]string{VlabReason: "no-androidANR"}).
func (r *runner) IncWith(name string, vlabs map[string]string) {
	v, ok := r.core.Tracker[name]
	if !ok || v.counterVec == nil {
		return
	}
	ratomic.AddInt64(&v.Value, 1)
	v.counterVec.With(vlabs).Inc()
}

func (r *runner) Get(name string) int64 { return r.core.get(name) }

func (r *runner) GetMetricNames() map[string]string {
	out := make(map[string]string, len(r.core.Tracker))
	for name, v := range r.core.Tracker {
		out[name] = v.kind
	}
	return out
}

func (r *runner) ResetStats() { r.core.reset() }

// Log writes one pseudo-JSON snapshot of every nonzero counter to the
// job's log, in the same raw-value style the teacher's runner uses.
func (r *runner) Log() {
	snap := make(map[string]int64, len(r.core.Tracker))
	r.core.copyCumulative(snap)

	if len(r.sorted) != len(snap) {
		r.sorted = r.sorted[:0]
		for n := range snap {
			r.sorted = append(r.sorted, n)
		}
		sort.Strings(r.sorted)
	}

	var b []byte
	b = append(b, '{')
	next := false
	for _, n := range r.sorted {
		val := snap[n]
		if val == 0 {
			continue
		}
		if next {
			b = append(b, ',')
		}
		b = append(b, n...)
		b = append(b, ':')
		b = appendInt(b, val)
		next = true
	}
	b = append(b, '}')
	nlog.Infoln(string(b))
}

func appendInt(b []byte, v int64) []byte {
	if v == 0 {
		return append(b, '0')
	}
	neg := v < 0
	if neg {
		v = -v
	}
	start := len(b)
	for v > 0 {
		b = append(b, byte('0'+v%10))
		v /= 10
	}
	if neg {
		b = append(b, '-')
	}
	// reverse the digits just appended
	for i, j := start, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// RunPeriodicLog starts a goroutine that calls Log every interval until
// Stop is called.
func (r *runner) RunPeriodicLog(interval time.Duration) {
	r.ticker = time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-r.ticker.C:
				r.Log()
			case <-r.stopCh:
				r.ticker.Stop()
				return
			}
		}
	}()
}

func (r *runner) Stop() {
	select {
	case <-r.stopCh:
	default:
		close(r.stopCh)
	}
}

package main

import (
	"net/http"

	"github.com/mozilla-telemetry/hangreport/cmn/nlog"
	"github.com/mozilla-telemetry/hangreport/stats"
)

// startMetrics registers this job's counters and, if addr is non-empty,
// serves them at /metrics on a background listener (spec.md §2.6's
// expansion: Prometheus scrape surface for long-running aggregation jobs).
// The tracker is returned whether or not addr is empty; only the HTTP
// listener is skipped when it is.
func startMetrics(jobName, addr string) statsTracker {
	tr := stats.New(jobName)
	if addr == "" {
		return tr
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", tr.PromHandler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			nlog.Warningln("hangrd: metrics server:", err)
		}
	}()
	return tr
}

// Package stats registers, tracks, and exports the job's own run metrics:
// pings read and dropped, stack filtering, reducer cutoffs, symbolication
// outcomes, and remote symbol-fetch latency.
package stats

import "strings"

// enum: `statsValue` kinds
const (
	KindCounter = "counter" // "*.n"
	KindSize    = "size"    // "*.size" (bytes)
	KindLatency = "latency" // "*.ns", computed as an average over the last log interval
	KindGauge   = "gauge"
)

// variable labels
const (
	VlabReason = "reason" // why a ping was dropped
	VlabKind   = "kind"   // ftp | https, for fetch latency
)

// error counters (see `errPrefix`)
const (
	errPrefix = "err."
)

// metric names
const (
	PingsReadCount    = "pings.read.n"
	PingsDroppedCount = "pings.dropped.n" // VarLabs: VlabReason

	StacksFilteredCount = "stacks.filtered.n"

	ReducerBelowCutoffCount = "reducer.below_cutoff.n" // groups dropped for failing the count-10 cutoff

	SymbolicateHitCount      = "symbolicate.hit.n"
	SymbolicateMissCount     = "symbolicate.miss.n"
	SymbolicateFallbackCount = "symbolicate.fallback.n" // resolved to a module but not to a line

	FetchLatency    = "fetch.ns" // VarLabs: VlabKind
	FetchErrorCount = errPrefix + "fetch.n"
	FetchSize       = "fetch.size"

	BundleWriteLatency = "bundle.write.ns"
)

type (
	// Extra carries the bits of a metric's registration that vary per
	// name: its Prometheus help text and any variable labels.
	Extra struct {
		Help    string
		VarLabs []string
	}
)

func IsErrMetric(name string) bool { return strings.HasPrefix(name, errPrefix) }

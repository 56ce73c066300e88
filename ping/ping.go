// Package ping defines the wire shape of a telemetry ping and the pure
// info/dimension normalization described in spec.md §3-4.1.
package ping

// Raw is the untyped key/value bag a ping's "info" block decodes into.
// Values are one of string, float64 (JSON numbers), bool, or nil.
type Raw map[string]any

// Histogram is {bucket_str: count}, as produced by BHR's in-process
// histogram collector.
type Histogram map[string]int64

// Hang is one BHR-sampled hang: a pseudo stack, its hang-duration
// histogram, and an optional native (addressed) stack captured
// asynchronously.
type Hang struct {
	Stack      []string  `json:"stack"`
	Histogram  Histogram `json:"histogram"`
	NativeStack []string `json:"nativeStack,omitempty"`
}

// ThreadStats is one thread's BHR sample: its activity histogram plus
// every hang recorded against it during the session.
type ThreadStats struct {
	Name     string    `json:"name"`
	Activity Histogram `json:"activity"`
	Hangs    []Hang    `json:"hangs"`
}

// SimpleMeasurements carries the handful of top-level scalars the CORE
// cares about; the real ping has many more that are ignored here.
type SimpleMeasurements struct {
	Uptime            int64 `json:"uptime"`
	DebuggerAttached  bool  `json:"debuggerAttached,omitempty"`
}

// Ping is one decoded telemetry record (spec.md §3 "Ping"). Records
// missing ThreadHangStats (for BHR) or the ANR structures (for ANR) are
// dropped silently by the respective mapper.
type Ping struct {
	Info               Raw           `json:"info"`
	SimpleMeasurements SimpleMeasurements `json:"simpleMeasurements"`
	ThreadHangStats    []ThreadStats `json:"threadHangStats,omitempty"`
	AndroidANR         string        `json:"androidANR,omitempty"`
	AndroidLogcat      string        `json:"androidLogcat,omitempty"`
}

// Dims is the ordered tuple an engine partitions a ping by, matching
// DimensionOrder below (spec.md §3 "Dimensions").
type Dims []string

// DimensionOrder is the engine's partitioning schema. A raw ping arrives
// already bucketed along these dimensions by the upstream job driver;
// CORE only ever reads them positionally via Dims.
var DimensionOrder = []string{
	"reason",
	"appName",
	"appUpdateChannel",
	"appVersion",
	"appBuildID",
	"submission_date",
}

func dimIndex(name string) int {
	for i, d := range DimensionOrder {
		if d == name {
			return i
		}
	}
	return -1
}

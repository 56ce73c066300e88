// Package mono provides a monotonic nanosecond clock for latency
// measurement, decoupled from wall-clock adjustments.
package mono

import "time"

var start = time.Now()

// NanoTime returns nanoseconds elapsed since process start.
func NanoTime() int64 { return int64(time.Since(start)) }

// Since is a convenience wrapper over NanoTime for latency deltas.
func Since(t int64) time.Duration { return time.Duration(NanoTime() - t) }

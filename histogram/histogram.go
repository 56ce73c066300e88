// Package histogram implements the log-bucketed histogram codec and the
// approximate quantile estimator used to clamp and summarize session uptime
// (spec.md §4.4, §4.7).
package histogram

import (
	"math"
	"sort"
)

// Histogram holds native integer hang/activity buckets keyed by their
// decimal-string bucket label (spec.md §3 "Histogram").
type Histogram map[string]int64

// Merge additively combines src into dst in place and returns dst, dropping
// any resulting non-positive count (Testable Property 6: leaf totals are
// preserved across merge).
func Merge(dst, src Histogram) Histogram {
	if dst == nil {
		dst = make(Histogram, len(src))
	}
	for k, v := range src {
		dst[k] += v
		if dst[k] <= 0 {
			delete(dst, k)
		}
	}
	return dst
}

// LogHistogram buckets a continuous quantity (uptime, in minutes) into
// round(ln(x+1), 2) buckets. Unlike Histogram it is never emitted directly;
// SumLogHistogram collapses it back to a scalar total per info value.
type LogHistogram map[float64]int64

// Log is the forward bucket function: round(ln(x+1), 2).
func Log(x float64) float64 {
	return round2(math.Log(x + 1))
}

// InvLog is Log's (lossy) inverse: round(e^x - 1).
func InvLog(x float64) int64 {
	return int64(math.Round(math.Exp(x) - 1))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AddLog records one occurrence of x in h.
func AddLog(h LogHistogram, x float64) {
	h[Log(x)]++
}

// MergeLog additively combines src into dst in place and returns dst.
func MergeLog(dst, src LogHistogram) LogHistogram {
	if dst == nil {
		dst = make(LogHistogram, len(src))
	}
	for k, v := range src {
		dst[k] += v
	}
	return dst
}

// EstQuantile computes an approximate lower and upper n-quantile of values
// by building a log-bucketed histogram (resolution 0.01 in log-space) and
// walking it from each end until the accumulated count reaches
// len(values)/n (spec.md §4.7, Testable Property/Scenario S3).
func EstQuantile(values []float64, n int) (lower, upper float64) {
	if len(values) == 0 {
		return 0, 0
	}
	minV := values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
	}
	offset := 1 - minV

	buckets := make(map[float64]int64)
	for _, v := range values {
		k := round2(math.Log(v + offset))
		buckets[k]++
	}
	keys := make([]float64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	need := float64(len(values)) / float64(n)
	est := func(ks []float64) float64 {
		remaining := need
		for _, k := range ks {
			count := float64(buckets[k])
			if remaining <= count {
				return math.Exp(k+0.01*(1.0-remaining/count)) - offset
			}
			remaining -= count
		}
		return math.Exp(ks[len(ks)-1]+0.01) - offset
	}

	lower = est(keys)
	reversed := make([]float64, len(keys))
	for i, k := range keys {
		reversed[len(keys)-1-i] = k
	}
	upper = est(reversed)
	return lower, upper
}

// SumLogHistogram collapses a per-info-value set of log-bucketed uptime
// histograms to per-info-value scalar totals: it pools all buckets to find
// the lower/upper quantile log-bounds (limit = total/quantiles, walked from
// each end), then sums invlog(clamp(log, lower, upper)) * count per info
// value (spec.md §4.4 "applies sumLogHistogram"; ported from
// mapreduce-bhr.py's reduce-local sumLogHistogram closure).
func SumLogHistogram(infoVals map[string]LogHistogram, quantiles int) map[string]int64 {
	type bucket struct {
		log   float64
		count int64
	}
	var pooled []bucket
	var total int64
	for _, h := range infoVals {
		for log, count := range h {
			pooled = append(pooled, bucket{log, count})
			total += count
		}
	}
	sort.Slice(pooled, func(i, j int) bool { return pooled[i].log < pooled[j].log })

	limit := total / int64(quantiles)
	findBound := func(bs []bucket) float64 {
		remaining := limit
		for _, b := range bs {
			remaining -= b.count
			if remaining < 0 {
				return b.log
			}
		}
		if len(bs) == 0 {
			return 0
		}
		return bs[len(bs)-1].log
	}

	lower := findBound(pooled)
	reversed := make([]bucket, len(pooled))
	for i, b := range pooled {
		reversed[len(pooled)-1-i] = b
	}
	upper := findBound(reversed)
	if lower > upper {
		lower, upper = upper, lower
	}

	out := make(map[string]int64, len(infoVals))
	for infoVal, h := range infoVals {
		var sum int64
		for log, count := range h {
			clamped := log
			if clamped < lower {
				clamped = lower
			}
			if clamped > upper {
				clamped = upper
			}
			sum += InvLog(clamped) * count
		}
		out[infoVal] = sum
	}
	return out
}

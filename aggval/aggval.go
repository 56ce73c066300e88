// Package aggval implements the dynamic bag-typed value and nested
// dim/dimVal/infoKey/infoVal aggregation tree that the BHR and ANR
// reducers build and merge (spec.md §7 Design Note: "Dynamic bag-typed
// values ... model as a tagged variant").
package aggval

import (
	"encoding/json"
	"strconv"

	"github.com/mozilla-telemetry/hangreport/histogram"
)

// Kind tags which field of Value is populated.
type Kind int

const (
	KindInt Kind = iota
	KindHist
	KindLog
)

// Value is a scalar integer total (post-sumLogHistogram uptime), a native
// integer-bucket histogram (hang/activity), or a log-bucketed histogram
// (raw uptime, before the reducer collapses it to a scalar).
type Value struct {
	Kind Kind
	Int  int64
	Hist histogram.Histogram
	Log  histogram.LogHistogram
}

func Int(n int64) Value                  { return Value{Kind: KindInt, Int: n} }
func Hist(h histogram.Histogram) Value   { return Value{Kind: KindHist, Hist: h} }
func Log(h histogram.LogHistogram) Value { return Value{Kind: KindLog, Log: h} }

// MarshalJSON renders a leaf as the bundle output expects: a bare count for
// KindInt, or a bucket-keyed histogram object for KindHist/KindLog
// (spec.md §6: "dim_<field>.json.gz: ... InfoVal → Histogram | count").
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindInt:
		return json.Marshal(v.Int)
	case KindHist:
		return json.Marshal(v.Hist)
	case KindLog:
		out := make(map[string]int64, len(v.Log))
		for k, c := range v.Log {
			out[strconv.FormatFloat(k, 'g', -1, 64)] = c
		}
		return json.Marshal(out)
	default:
		return json.Marshal(v.Int)
	}
}

// Merge additively combines src into dst, matching spec.md §4.4's
// merge_dict: scalar ints add, histograms merge leaf-wise.
func (dst Value) Merge(src Value) Value {
	switch dst.Kind {
	case KindInt:
		return Int(dst.Int + src.Int)
	case KindHist:
		return Hist(histogram.Merge(cloneHist(dst.Hist), src.Hist))
	case KindLog:
		return Log(histogram.MergeLog(cloneLog(dst.Log), src.Log))
	default:
		return src
	}
}

func cloneHist(h histogram.Histogram) histogram.Histogram {
	out := make(histogram.Histogram, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

func cloneLog(h histogram.LogHistogram) histogram.LogHistogram {
	out := make(histogram.LogHistogram, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Tree is the nested dim -> dimVal -> infoKey -> infoVal -> Value
// aggregation structure collected per record and merged across records for
// one reducer key (spec.md §4.4's collectData / merge_dict).
type Tree map[string]map[string]map[string]map[string]Value

// Collect builds a one-record Tree contribution: every (dim,dimVal) pair
// gets the same info-keyed leaf set, each leaf holding the same Value
// (mirrors the Python collectData comprehension that fans data out across
// every known dim/dimVal of the ping).
func Collect(dims map[string]string, info map[string]string, v Value) Tree {
	t := make(Tree, len(dims))
	for dimKey, dimVal := range dims {
		infos := make(map[string]map[string]Value, len(info))
		for infoKey, infoVal := range info {
			infos[infoKey] = map[string]Value{infoVal: v}
		}
		t[dimKey] = map[string]map[string]map[string]Value{dimVal: infos}
	}
	return t
}

// Merge additively combines src into dst in place and returns dst.
func Merge(dst, src Tree) Tree {
	if dst == nil {
		dst = make(Tree, len(src))
	}
	for dimKey, srcDimVals := range src {
		dstDimVals, ok := dst[dimKey]
		if !ok {
			dst[dimKey] = srcDimVals
			continue
		}
		for dimVal, srcInfos := range srcDimVals {
			dstInfos, ok := dstDimVals[dimVal]
			if !ok {
				dstDimVals[dimVal] = srcInfos
				continue
			}
			for infoKey, srcVals := range srcInfos {
				dstVals, ok := dstInfos[infoKey]
				if !ok {
					dstInfos[infoKey] = srcVals
					continue
				}
				for infoVal, srcV := range srcVals {
					if dstV, ok := dstVals[infoVal]; ok {
						dstVals[infoVal] = dstV.Merge(srcV)
					} else {
						dstVals[infoVal] = srcV
					}
				}
			}
		}
	}
	return dst
}

// HistogramFromValues converts a raw decoded JSON values map (histogram
// leaf, or a single scalar like uptime) into a Value, matching
// collectData's branch on isinstance(data, dict): histogram leaves keep
// only positive-count all-digit bucket keys; a bare scalar becomes a
// single log-bucketed occurrence.
func HistogramFromValues(raw map[string]any) Value {
	h := make(histogram.Histogram, len(raw))
	for k, v := range raw {
		if !isAllDigits(k) {
			continue
		}
		n := toInt64(v)
		if n > 0 {
			h[k] = n
		}
	}
	return Hist(h)
}

// ScalarLog converts a bare numeric measurement (e.g. uptime, in minutes)
// into a single-bucket log histogram, matching collectData's else branch
// ({log(data): 1}).
func ScalarLog(x float64) Value {
	return Log(histogram.LogHistogram{histogram.Log(x): 1})
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int64:
		return t
	case int:
		return int64(t)
	default:
		return 0
	}
}

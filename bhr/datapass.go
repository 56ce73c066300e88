package bhr

import (
	"context"

	"github.com/mozilla-telemetry/hangreport/aggval"
	"github.com/mozilla-telemetry/hangreport/histogram"
	"github.com/mozilla-telemetry/hangreport/mrengine"
	"github.com/mozilla-telemetry/hangreport/ping"
	"github.com/mozilla-telemetry/hangreport/rep"
	"github.com/mozilla-telemetry/hangreport/stack"
)

// dataRecord is one (count, tree[, candidate]) contribution emitted or
// accumulated by the data pass (spec.md §4.4's "(n, histograms[,
// candidate])" tuple shape).
type dataRecord struct {
	Count     int64
	Tree      aggval.Tree
	Candidate *rep.Candidate
}

func mergeDataRecord(dst, src dataRecord) dataRecord {
	out := dataRecord{
		Count: dst.Count + src.Count,
		Tree:  aggval.Merge(dst.Tree, src.Tree),
	}
	switch {
	case dst.Candidate != nil && src.Candidate != nil:
		merged := rep.MergeStack(*dst.Candidate, *src.Candidate)
		out.Candidate = &merged
	case dst.Candidate != nil:
		out.Candidate = dst.Candidate
	default:
		out.Candidate = src.Candidate
	}
	return out
}

// DataMapper implements the data pass's map step (spec.md §4.4): re-reads
// pings, keeps only hangs whose fingerprint survived the filter pass for
// at least one dim the ping belongs to, and emits activity/uptime/hang
// contributions.
type DataMapper struct {
	Profile       ping.Profile
	SKIP          int64
	BuildIDCutoff string
	Filter        FilterSet
	Blacklist     map[string]bool
}

func (m DataMapper) Map(ctx context.Context, rec mrengine.Record, emit mrengine.Emitter) error {
	if skipSampled(rec.RawKey, m.SKIP) {
		return nil
	}
	p, ok := parsePing(rec.RawValue)
	if !ok {
		return nil
	}
	if p.SimpleMeasurements.Uptime < 0 {
		return nil
	}
	if truthy(p.SimpleMeasurements.DebuggerAttached) {
		return nil
	}
	info := ping.Raw(p.Info)
	ping.Adjust(info)
	if buildID, _ := info["appBuildID"].(string); m.BuildIDCutoff != "" && buildID < m.BuildIDCutoff {
		return nil
	}
	ping.AddUptime(info, int64(p.SimpleMeasurements.Uptime))
	filtered := ping.Filter(m.Profile, info)
	dims := ping.FilterDimensions(m.Profile, rec.RawDims, filtered)

	scale := m.SKIP + 1

	collectUptime := aggval.Collect(dims, filtered, aggval.ScalarLog(p.SimpleMeasurements.Uptime))

	for _, thread := range p.ThreadHangStats {
		activityTree := aggval.Collect(dims, filtered, aggval.HistogramFromValues(thread.Activity.Values))
		emit.Emit(Key{Kind: KeyActivity, Thread: thread.Name}.Encode(),
			dataRecord{Count: scale, Tree: activityTree})

		for _, hang := range thread.Hangs {
			if len(hang.Stack) == 0 {
				continue
			}
			fp := stack.FilterStack(hang.Stack, m.Blacklist)
			if len(fp) == 0 {
				continue
			}
			survived := false
			for dim, dimVal := range dims {
				if m.Filter.Contains(dim, dimVal, thread.Name, fp) {
					survived = true
					break
				}
			}
			if !survived {
				continue
			}
			hangTree := aggval.Collect(dims, filtered, aggval.HistogramFromValues(hang.Histogram.Values))
			candidate := rep.Candidate{
				PseudoStack: fp,
				Version:     versionKeyOf(info),
			}
			emit.Emit(Key{Kind: KeyHang, Thread: thread.Name, Stack: fp}.Encode(),
				dataRecord{Count: scale, Tree: hangTree, Candidate: &candidate})
		}

		emit.Emit(Key{Kind: KeyUptime, Thread: thread.Name}.Encode(),
			dataRecord{Count: scale, Tree: collectUptime})
	}
	if len(p.ThreadHangStats) > 0 {
		emit.Emit(Key{Kind: KeyTotalUptime}.Encode(), dataRecord{Count: scale, Tree: collectUptime})
	}
	return nil
}

func versionKeyOf(info ping.Raw) rep.VersionKey {
	ch, _ := info["appUpdateChannel"].(string)
	ver, _ := info["appVersion"].(string)
	bid, _ := info["appBuildID"].(string)
	return rep.VersionKey{Channel: ch, Version: ver, BuildID: bid}
}

// DataCombiner pre-merges a shard's values for one key before the reducer
// sees them, bounding per-key memory (spec.md §2's optional combiner).
type DataCombiner struct{}

func (DataCombiner) Combine(key string, values []any) (any, bool) {
	if len(values) == 0 {
		return nil, false
	}
	acc := values[0].(dataRecord)
	for _, v := range values[1:] {
		acc = mergeDataRecord(acc, v.(dataRecord))
	}
	return acc, true
}

// DataReducer implements the data pass's reduce step: merge every value for
// a key, drop totals under Cutoff, rewrite hang-key fingerprints to fresh
// UUIDs, and collapse uptime keys via sumLogHistogram (spec.md §4.4).
type DataReducer struct {
	Cutoff    int64
	Quantiles int
	NewUUID   func() string
}

// OutputRecord is what DataReducer emits for a surviving key: the final
// count, the merged tree (histograms for hang/activity keys, scalar totals
// for uptime keys), and — for hang keys — the representative selection and
// the fresh fingerprint id that replaces the stack in output.
type OutputRecord struct {
	Key           Key
	FingerprintID string
	Count         int64
	Tree          aggval.Tree
	Representative *rep.Candidate
}

func (r DataReducer) Reduce(ctx context.Context, key string, values []any, emit mrengine.Emitter) error {
	if len(values) == 0 {
		return nil
	}
	acc := values[0].(dataRecord)
	for _, v := range values[1:] {
		acc = mergeDataRecord(acc, v.(dataRecord))
	}
	if acc.Count < r.Cutoff {
		return nil
	}

	k := DecodeKey(key)
	out := OutputRecord{Key: k, Count: acc.Count, Tree: acc.Tree, Representative: acc.Candidate}

	if k.Kind == KeyUptime || k.Kind == KeyTotalUptime {
		out.Tree = collapseUptimeTree(acc.Tree, r.Quantiles)
	}
	if k.Kind == KeyHang {
		id := "stack"
		if r.NewUUID != nil {
			id = r.NewUUID()
		}
		out.FingerprintID = id
	}

	emit.Emit(key, out)
	return nil
}

// collapseUptimeTree replaces every infoKey's set of log-bucketed uptime
// histograms with sumLogHistogram's scalar totals, keyed the same way
// (spec.md §4.4's sumUptimes).
func collapseUptimeTree(t aggval.Tree, quantiles int) aggval.Tree {
	out := make(aggval.Tree, len(t))
	for dim, dimVals := range t {
		out[dim] = make(map[string]map[string]map[string]aggval.Value, len(dimVals))
		for dimVal, infos := range dimVals {
			out[dim][dimVal] = make(map[string]map[string]aggval.Value, len(infos))
			for infoKey, infoVals := range infos {
				logHistograms := make(map[string]histogram.LogHistogram, len(infoVals))
				for infoVal, v := range infoVals {
					if v.Kind == aggval.KindLog {
						logHistograms[infoVal] = v.Log
					}
				}
				totals := histogram.SumLogHistogram(logHistograms, quantiles)
				collapsed := make(map[string]aggval.Value, len(totals))
				for infoVal, total := range totals {
					collapsed[infoVal] = aggval.Int(total)
				}
				out[dim][dimVal][infoKey] = collapsed
			}
		}
	}
	return out
}

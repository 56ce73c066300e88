package bhr

import (
	"context"
	"sort"

	"github.com/mozilla-telemetry/hangreport/mrengine"
	"github.com/mozilla-telemetry/hangreport/ping"
	"github.com/mozilla-telemetry/hangreport/stack"
)

// filterOccurrence is one hang-stack sighting within a single (dim,dimVal)
// bucket, as emitted by the filter pass mapper.
type filterOccurrence struct {
	Thread string
	Stack  []string
}

// FilterMapper implements the filter pass's map step (spec.md §4.4): for
// each hang with a non-empty (canonicalized) stack whose ping uptime falls
// within the session bounds for a given (dim, dimVal), emit one occurrence.
type FilterMapper struct {
	Profile       ping.Profile
	SKIP          int64
	BuildIDCutoff string
	Bounds        SessionBounds
	Blacklist     map[string]bool
}

func (m FilterMapper) Map(ctx context.Context, rec mrengine.Record, emit mrengine.Emitter) error {
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

	for _, thread := range p.ThreadHangStats {
		for _, hang := range thread.Hangs {
			if len(hang.Stack) == 0 {
				continue
			}
			fp := stack.FilterStack(hang.Stack, m.Blacklist)
			if len(fp) == 0 {
				continue
			}
			for dim, dimVal := range dims {
				if !m.Bounds.InRange(dim, dimVal, p.SimpleMeasurements.Uptime) {
					continue
				}
				key := DimKey{Dim: dim, DimVal: dimVal}
				emit.Emit(key.Encode(), filterOccurrence{Thread: thread.Name, Stack: fp})
			}
		}
	}
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case nil:
		return false
	default:
		return true
	}
}

// filterTally is one (thread,stack) fingerprint's accumulated count within
// a (dim,dimVal) bucket, the unit the filter-pass reducer sorts and trims
// to FILTER_LIMIT.
type filterTally struct {
	Count  int64
	Thread string
	Stack  []string
}

// FilterTally is filterTally exported under an alias so callers outside the
// package (the job driver) can name the map type RunFilterPass/
// BuildFilterSet/WriteFilterFile share without reaching into package
// internals.
type FilterTally = filterTally

// FilterReducer implements the filter pass's reduce step: group
// occurrences by (thread,stack), sum counts, keep the top Limit
// descending (spec.md §4.4, Scenario S6).
type FilterReducer struct {
	Limit int
}

func (r FilterReducer) Reduce(ctx context.Context, key string, values []any, emit mrengine.Emitter) error {
	counts := make(map[string]*filterTally)
	order := make([]string, 0, len(values))
	for _, v := range values {
		occ := v.(filterOccurrence)
		fpKey := occ.Thread + "\x1f" + joinStack(occ.Stack)
		t, ok := counts[fpKey]
		if !ok {
			t = &filterTally{Thread: occ.Thread, Stack: occ.Stack}
			counts[fpKey] = t
			order = append(order, fpKey)
		}
		t.Count++
	}

	tallies := make([]*filterTally, 0, len(counts))
	for _, k := range order {
		tallies = append(tallies, counts[k])
	}
	sort.SliceStable(tallies, func(i, j int) bool { return tallies[i].Count > tallies[j].Count })

	limit := r.Limit
	if limit <= 0 || limit > len(tallies) {
		limit = len(tallies)
	}
	for _, t := range tallies[:limit] {
		emit.Emit(key, *t)
	}
	return nil
}

func joinStack(s []string) string {
	out := ""
	for i, f := range s {
		if i > 0 {
			out += "\x1f"
		}
		out += f
	}
	return out
}

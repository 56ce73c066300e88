package bhr

import (
	"context"

	"github.com/mozilla-telemetry/hangreport/cmn/cos"
	"github.com/mozilla-telemetry/hangreport/histogram"
	"github.com/mozilla-telemetry/hangreport/mrengine"
	"github.com/mozilla-telemetry/hangreport/ping"
)

// SummaryMapper implements the summary pass's map step (spec.md §4.5): for
// every (dim,dimVal) a surviving ping belongs to, emit its raw uptime so the
// reducer can estimate that bucket's session bounds.
type SummaryMapper struct {
	Profile       ping.Profile
	SKIP          int64
	BuildIDCutoff string
}

func (m SummaryMapper) Map(ctx context.Context, rec mrengine.Record, emit mrengine.Emitter) error {
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
	filtered := ping.Filter(m.Profile, info)
	dims := ping.FilterDimensions(m.Profile, rec.RawDims, filtered)
	for dim, dimVal := range dims {
		emit.Emit(DimKey{Dim: dim, DimVal: dimVal}.Encode(), p.SimpleMeasurements.Uptime)
	}
	return nil
}

// SummaryReducer implements the summary pass's reduce step: estimate the
// n-quantile lower/upper bounds of every uptime seen for a (dim,dimVal)
// bucket (spec.md §4.7's estQuantile).
type SummaryReducer struct {
	Quantiles int
}

func (r SummaryReducer) Reduce(ctx context.Context, key string, values []any, emit mrengine.Emitter) error {
	if len(values) == 0 {
		return nil
	}
	uptimes := make([]float64, 0, len(values))
	for _, v := range values {
		uptimes = append(uptimes, v.(float64))
	}
	lower, upper := histogram.EstQuantile(uptimes, r.Quantiles)
	emit.Emit(key, Bounds{Lower: lower, Upper: upper})
	return nil
}

// boundsSink collects the summary pass's reducer output directly into a
// SessionBounds, ready for the filter/data passes or for WriteSummary.
type boundsSink struct {
	bounds SessionBounds
}

func (s *boundsSink) Write(key, value string) error {
	var b Bounds
	if err := cos.JSON.UnmarshalFromString(value, &b); err != nil {
		return nil
	}
	dimKey := DecodeDimKey(key)
	if s.bounds[dimKey.Dim] == nil {
		s.bounds[dimKey.Dim] = make(map[string]Bounds)
	}
	s.bounds[dimKey.Dim][dimKey.DimVal] = b
	return nil
}

func encodeBounds(v any) (string, error) {
	return string(cos.MustMarshal(v.(Bounds))), nil
}

// RunSummaryPass executes the summary pass end to end against src, returning
// the SessionBounds the filter and data passes clamp/gate uptime against.
func RunSummaryPass(ctx context.Context, cfg mrengine.Config, src mrengine.Source, m SummaryMapper, quantiles int) (SessionBounds, error) {
	sink := &boundsSink{bounds: make(SessionBounds)}
	err := mrengine.Run(ctx, cfg, src, m, nil, SummaryReducer{Quantiles: quantiles}, sink, encodeBounds)
	return sink.bounds, err
}

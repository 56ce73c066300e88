package bhr

import (
	"fmt"

	"context"

	"github.com/google/uuid"

	"github.com/mozilla-telemetry/hangreport/cmn/cos"
	"github.com/mozilla-telemetry/hangreport/mrengine"
	"github.com/mozilla-telemetry/hangreport/ping"
)

// JSONLSink writes data-pass output lines: key_json \t value_json
// (spec.md §6 "Data-pass output").
type JSONLSink struct {
	write func(line string) error
}

func NewJSONLSink(write func(line string) error) JSONLSink {
	return JSONLSink{write: write}
}

func (s JSONLSink) Write(key, value string) error {
	return s.write(fmt.Sprintf("%s\t%s\n", key, value))
}

// filterTallySink accumulates the filter pass's reducer output, keyed by
// the raw (dim,dimVal)-encoded key, ready for BuildFilterSet or
// WriteFilterFile.
type filterTallySink struct {
	entries map[string][]filterTally
}

func (s *filterTallySink) Write(key, value string) error {
	var t filterTally
	var raw []any
	if err := cos.JSON.UnmarshalFromString(value, &raw); err != nil || len(raw) != 3 {
		return nil
	}
	if count, ok := raw[0].(float64); ok {
		t.Count = int64(count)
	}
	t.Thread, _ = raw[1].(string)
	if frames, ok := raw[2].([]any); ok {
		for _, f := range frames {
			if s, ok := f.(string); ok {
				t.Stack = append(t.Stack, s)
			}
		}
	}
	s.entries[key] = append(s.entries[key], t)
	return nil
}

func encodeFilterTally(v any) (string, error) {
	t := v.(filterTally)
	b := cos.MustMarshal([]any{t.Count, t.Thread, t.Stack})
	return string(b), nil
}

// RunFilterPass executes the filter pass end to end against src, returning
// the accumulated per-(dim,dimVal) tallies ready for BuildFilterSet /
// WriteFilterFile (spec.md §4.4's filter pass, Scenario S6).
func RunFilterPass(ctx context.Context, cfg mrengine.Config, src mrengine.Source, m FilterMapper, limit int) (map[string][]filterTally, error) {
	sink := &filterTallySink{entries: make(map[string][]filterTally)}
	err := mrengine.Run(ctx, cfg, src, m, nil, FilterReducer{Limit: limit}, sink, encodeFilterTally)
	return sink.entries, err
}

func encodeOutputRecord(out OutputRecord) (string, error) {
	return string(cos.MustMarshal(out)), nil
}

// RunDataPass executes the data pass end to end, writing one JSONL line per
// surviving key via sink.
func RunDataPass(ctx context.Context, cfg mrengine.Config, src mrengine.Source, m DataMapper, cutoff int64, quantiles int, sink mrengine.Sink) error {
	reducer := DataReducer{Cutoff: cutoff, Quantiles: quantiles, NewUUID: func() string { return uuid.NewString() }}
	encode := func(v any) (string, error) {
		return encodeOutputRecord(v.(OutputRecord))
	}
	return mrengine.Run(ctx, cfg, src, m, DataCombiner{}, reducer, sink, encode)
}

// BHRProfile is re-exported for driver convenience.
var BHRProfile = ping.BHRProfile

package main

import (
	"github.com/mozilla-telemetry/hangreport/cmn/cos"
	"github.com/mozilla-telemetry/hangreport/mrengine"
)

// collectFunc adapts a plain function to mrengine.Sink.
type collectFunc func(key, value string) error

func (f collectFunc) Write(key, value string) error { return f(key, value) }

// newCollectSink decodes every JSONL value a pass writes and appends it to
// out, for jobs whose final result is small enough to hold in memory for
// bundle assembly (spec.md §6's bundle writer reads a full pass's output).
func newCollectSink[T any](out *[]T) mrengine.Sink {
	return collectFunc(func(_, value string) error {
		var v T
		if err := cos.JSON.UnmarshalFromString(value, &v); err != nil {
			return err
		}
		*out = append(*out, v)
		return nil
	})
}

func encodeJSON(v any) (string, error) {
	return string(cos.MustMarshal(v)), nil
}

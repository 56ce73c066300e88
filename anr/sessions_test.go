package anr

import (
	"context"
	"math"
	"testing"

	"github.com/mozilla-telemetry/hangreport/mrengine"
	"github.com/mozilla-telemetry/hangreport/ping"
)

func TestSessionsMapperEmitsPerDimension(t *testing.T) {
	m := SessionsMapper{Profile: ping.ANRProfile}
	emit := &collectEmit{}
	rec := mrengine.Record{
		RawKey:   "slug-3",
		RawDims:  []string{"reason", "Firefox", "release", "60.0", "20180101000000", "2018-01-01"},
		RawValue: rawANRPing("release", "60.0", "20180101000000"),
	}
	if err := m.Map(context.Background(), rec, emit); err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(emit.kvs) == 0 {
		t.Fatalf("expected at least one emit")
	}
	for _, kv := range emit.kvs {
		if _, ok := kv.Value.(sessionSample); !ok {
			t.Fatalf("emitted value is not a sessionSample: %T", kv.Value)
		}
	}
}

func TestSessionsReducerClampsToEstimatedBounds(t *testing.T) {
	r := SessionsReducer{Quantiles: 10}
	emit := &collectEmit{}

	values := []any{
		sessionSample{Uptime: 1, Info: map[string]string{"os": "WINNT 10.0"}},
		sessionSample{Uptime: 1, Info: map[string]string{"os": "WINNT 10.0"}},
		sessionSample{Uptime: 1, Info: map[string]string{"os": "WINNT 10.0"}},
		sessionSample{Uptime: 100, Info: map[string]string{"os": "WINNT 10.0"}},
		sessionSample{Uptime: 100, Info: map[string]string{"os": "WINNT 10.0"}},
		sessionSample{Uptime: 100, Info: map[string]string{"os": "WINNT 10.0"}},
		sessionSample{Uptime: 10000, Info: map[string]string{"os": "WINNT 10.0"}},
	}

	if err := r.Reduce(context.Background(), encodeSessionsKey("appName", "Firefox"), values, emit); err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if len(emit.kvs) != 1 {
		t.Fatalf("got %d emits, want 1", len(emit.kvs))
	}
	out := emit.kvs[0].Value.(SessionsOutput)
	if out.Dim != "appName" || out.DimVal != "Firefox" {
		t.Fatalf("dim/dimVal = %s/%s, want appName/Firefox", out.Dim, out.DimVal)
	}
	if out.Upper > 10000*math.Exp(0.01) {
		t.Fatalf("upper bound %v exceeds the observed maximum by more than one log bucket", out.Upper)
	}
	total := out.Info["os"]["WINNT 10.0"]
	maxPossible := int64(7) * int64(out.Upper+1)
	if total <= 0 || total > maxPossible {
		t.Fatalf("clamped total %d out of plausible range (0, %d]", total, maxPossible)
	}
}

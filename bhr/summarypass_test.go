package bhr

import (
	"context"
	"testing"

	"github.com/mozilla-telemetry/hangreport/mrengine"
)

func TestSummaryMapperEmitsUptimePerDim(t *testing.T) {
	raw := []byte(`{
		"simpleMeasurements": {"uptime": 42},
		"info": {"appName": "Firefox", "appVersion": "60.0"},
		"threadHangStats": []
	}`)
	m := SummaryMapper{Profile: BHRProfile}

	var emitted []mrengine.KV
	emit := emitFunc(func(key string, value any) {
		emitted = append(emitted, mrengine.KV{Key: key, Value: value})
	})

	rec := mrengine.Record{RawKey: "k1", RawDims: []string{"Firefox", "60.0", "x86", "4", "8192", "release", "20180101"}, RawValue: raw}
	if err := m.Map(context.Background(), rec, emit); err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(emitted) == 0 {
		t.Fatal("expected at least one emission")
	}
	found := false
	for _, kv := range emitted {
		if kv.Key == (DimKey{Dim: "appName", DimVal: "Firefox"}).Encode() {
			found = true
			if kv.Value.(float64) != 42 {
				t.Fatalf("uptime = %v, want 42", kv.Value)
			}
		}
	}
	if !found {
		t.Fatal("expected an emission keyed by appName=Firefox")
	}
}

func TestSummaryMapperSkipsNegativeUptime(t *testing.T) {
	raw := []byte(`{"simpleMeasurements": {"uptime": -1}, "info": {}, "threadHangStats": []}`)
	m := SummaryMapper{Profile: BHRProfile}
	var emitted []mrengine.KV
	emit := emitFunc(func(key string, value any) {
		emitted = append(emitted, mrengine.KV{Key: key, Value: value})
	})
	if err := m.Map(context.Background(), mrengine.Record{RawValue: raw}, emit); err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(emitted) != 0 {
		t.Fatalf("expected no emissions for negative uptime, got %d", len(emitted))
	}
}

func TestSummaryReducerEstimatesBounds(t *testing.T) {
	values := make([]any, 0, 100)
	for i := 1; i <= 100; i++ {
		values = append(values, float64(i))
	}
	r := SummaryReducer{Quantiles: 10}

	var emitted []Bounds
	emit := emitFunc(func(key string, value any) {
		emitted = append(emitted, value.(Bounds))
	})

	if err := r.Reduce(context.Background(), DimKey{Dim: "appName", DimVal: "Firefox"}.Encode(), values, emit); err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if len(emitted) != 1 {
		t.Fatalf("got %d emissions, want 1", len(emitted))
	}
	if emitted[0].Lower >= emitted[0].Upper {
		t.Fatalf("bounds = %+v, want lower < upper", emitted[0])
	}
}

func TestBoundsSinkAccumulatesByDim(t *testing.T) {
	s := &boundsSink{bounds: make(SessionBounds)}
	key := DimKey{Dim: "appName", DimVal: "Firefox"}.Encode()
	val, err := encodeBounds(Bounds{Lower: 1, Upper: 2})
	if err != nil {
		t.Fatalf("encodeBounds: %v", err)
	}
	if err := s.Write(key, val); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got := s.bounds["appName"]["Firefox"]
	if got.Lower != 1 || got.Upper != 2 {
		t.Fatalf("got %+v, want {1 2}", got)
	}
}

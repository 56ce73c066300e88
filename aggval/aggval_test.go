package aggval

import (
	"testing"

	"github.com/mozilla-telemetry/hangreport/histogram"
)

func TestCollectAndMerge(t *testing.T) {
	dims := map[string]string{"appName": "Firefox"}
	info := map[string]string{"os": "WINNT 10.0"}
	v := Int(5)

	a := Collect(dims, info, v)
	b := Collect(dims, info, Int(7))
	merged := Merge(a, b)

	got := merged["appName"]["Firefox"]["os"]["WINNT 10.0"]
	if got.Kind != KindInt || got.Int != 12 {
		t.Fatalf("got %+v, want Int(12)", got)
	}
}

func TestHistogramFromValuesDropsNonDigitAndZero(t *testing.T) {
	raw := map[string]any{
		"8":      float64(3),
		"16":     float64(0),
		"garbage": float64(5),
	}
	v := HistogramFromValues(raw)
	if len(v.Hist) != 1 || v.Hist["8"] != 3 {
		t.Fatalf("got %+v", v.Hist)
	}
}

func TestValueMarshalJSON(t *testing.T) {
	b, err := Int(5).MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(b) != "5" {
		t.Fatalf("Int marshaled as %s, want bare number", b)
	}

	hv := Hist(histogram.Histogram{"8": 3})
	b, err = hv.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(b) != `{"8":3}` {
		t.Fatalf("Hist marshaled as %s", b)
	}

	lv := Log(histogram.LogHistogram{1.5: 2})
	b, err = lv.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(b) != `{"1.5":2}` {
		t.Fatalf("Log marshaled as %s", b)
	}
}

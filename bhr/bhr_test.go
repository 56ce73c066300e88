package bhr

import (
	"context"
	"testing"

	"github.com/mozilla-telemetry/hangreport/aggval"
	"github.com/mozilla-telemetry/hangreport/stack"
)

// S1 from spec.md §8: two pings, same thread "Gecko" and stack
// ["A","A","B"], uptime 120, each contributing {"8": 3} hang counts.
// Expect aggregated count=2, histogram {"8": 6}, stack fingerprint ["A","B"].
func TestScenarioS1(t *testing.T) {
	fp := stack.FilterStack([]string{"A", "A", "B"}, nil)
	if len(fp) != 2 || fp[0] != "A" || fp[1] != "B" {
		t.Fatalf("fingerprint = %v, want [A B]", fp)
	}

	dims := map[string]string{"appName": "Firefox"}
	info := map[string]string{"os": "WINNT 10.0"}

	ping1 := dataRecord{Count: 1, Tree: aggval.Collect(dims, info, aggval.HistogramFromValues(map[string]any{"8": float64(3)}))}
	ping2 := dataRecord{Count: 1, Tree: aggval.Collect(dims, info, aggval.HistogramFromValues(map[string]any{"8": float64(3)}))}

	merged := mergeDataRecord(ping1, ping2)
	if merged.Count != 2 {
		t.Fatalf("count = %d, want 2", merged.Count)
	}
	got := merged.Tree["appName"]["Firefox"]["os"]["WINNT 10.0"]
	if got.Kind != aggval.KindHist || got.Hist["8"] != 6 {
		t.Fatalf("histogram = %+v, want {8:6}", got.Hist)
	}
}

// S6 from spec.md §8: 11 distinct stacks with counts 100..90 keeps exactly
// the top 10 (FILTER_LIMIT), discards the 11th.
func TestScenarioS6(t *testing.T) {
	values := make([]any, 0)
	for i, count := range []int{100, 99, 98, 97, 96, 95, 94, 93, 92, 91, 90} {
		for c := 0; c < count; c++ {
			values = append(values, filterOccurrence{Thread: "Gecko", Stack: []string{stackName(i)}})
		}
	}

	var emitted []filterTally
	emit := emitFunc(func(key string, value any) {
		emitted = append(emitted, value.(filterTally))
	})

	r := FilterReducer{Limit: 10}
	if err := r.Reduce(context.Background(), DimKey{Dim: "appName", DimVal: "Firefox"}.Encode(), values, emit); err != nil {
		t.Fatalf("Reduce: %v", err)
	}

	if len(emitted) != 10 {
		t.Fatalf("got %d surviving stacks, want 10", len(emitted))
	}
	for _, tally := range emitted {
		if tally.Count == 90 {
			t.Fatalf("the 11th (count=90) stack should have been discarded")
		}
	}
}

func stackName(i int) string {
	return string(rune('A' + i))
}

type emitFunc func(key string, value any)

func (f emitFunc) Emit(key string, value any) { f(key, value) }

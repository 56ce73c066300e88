package histogram

import (
	"math"
	"testing"
)

// S3 from spec.md §8: lower <= 1 within the estimator's log-bucket
// resolution (one bucket is 0.01 wide in log space).
func TestEstQuantileScenarioS3(t *testing.T) {
	values := []float64{1, 1, 1, 100, 100, 100, 10000}
	lower, upper := EstQuantile(values, 10)
	if lower > math.Exp(0.01) {
		t.Fatalf("lower = %v, want <= 1 within one log bucket", lower)
	}
	if upper < 10000 {
		t.Fatalf("upper = %v, want >= 10000", upper)
	}
}

// Log rounds to two decimals, so the round trip is exact only up to half a
// bucket (0.005 in log space) of x+1, plus one for InvLog's integer rounding.
func TestLogInvLogRoundTrip(t *testing.T) {
	for _, x := range []float64{0, 1, 8, 120, 40320} {
		got := InvLog(Log(x))
		tol := int64((x+1)*(math.Exp(0.005)-1)) + 1
		if diff := got - int64(x); diff > tol || diff < -tol {
			t.Fatalf("Log/InvLog(%v) round trip off by more than %d: got %v", x, tol, got)
		}
	}
}

// Testable Property 6: merge preserves leaf totals.
func TestMergePreservesTotals(t *testing.T) {
	left := Histogram{"8": 3, "16": 1}
	right := Histogram{"8": 2, "32": 5}
	wantSum := sumHistogram(left) + sumHistogram(right)
	merged := Merge(cloneHistogram(left), right)
	if got := sumHistogram(merged); got != wantSum {
		t.Fatalf("got sum %d want %d", got, wantSum)
	}
}

func TestMergeDropsNonPositive(t *testing.T) {
	left := Histogram{"8": 2}
	right := Histogram{"8": -2}
	merged := Merge(cloneHistogram(left), right)
	if _, ok := merged["8"]; ok {
		t.Fatalf("expected zeroed bucket to be dropped, got %v", merged)
	}
}

func TestSumLogHistogramClampsToBounds(t *testing.T) {
	infoVals := map[string]LogHistogram{
		"release": {Log(1): 1, Log(100): 3, Log(10000): 1},
	}
	out := SumLogHistogram(infoVals, 10)
	if _, ok := out["release"]; !ok {
		t.Fatalf("missing info value in output: %v", out)
	}
	if out["release"] <= 0 {
		t.Fatalf("expected positive total, got %d", out["release"])
	}
}

func sumHistogram(h Histogram) int64 {
	var n int64
	for _, v := range h {
		n += v
	}
	return n
}

func cloneHistogram(h Histogram) Histogram {
	out := make(Histogram, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

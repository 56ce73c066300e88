package bhr

import "testing"

func TestFilterSetContains(t *testing.T) {
	entries := map[string][]filterTally{
		DimKey{Dim: "appName", DimVal: "Firefox"}.Encode(): {
			{Count: 5, Thread: "Gecko", Stack: []string{"A", "B"}},
		},
	}
	fs := BuildFilterSet(entries)
	if !fs.Contains("appName", "Firefox", "Gecko", []string{"A", "B"}) {
		t.Fatalf("expected stack to survive")
	}
	if fs.Contains("appName", "Firefox", "Gecko", []string{"X", "Y"}) {
		t.Fatalf("unexpected stack found")
	}
	if fs.Contains("appName", "Chrome", "Gecko", []string{"A", "B"}) {
		t.Fatalf("unexpected dim value found")
	}
}

func TestSessionBoundsClampAndInRange(t *testing.T) {
	sb := SessionBounds{"appName": {"Firefox": Bounds{Lower: 10, Upper: 100}}}
	if !sb.InRange("appName", "Firefox", 50) {
		t.Fatalf("expected 50 in range")
	}
	if sb.InRange("appName", "Firefox", 200) {
		t.Fatalf("expected 200 out of range")
	}
	if got := sb.Clamp("appName", "Firefox", 200); got != 100 {
		t.Fatalf("got %v, want 100", got)
	}
	if got := sb.Clamp("other", "x", 200); got != 200 {
		t.Fatalf("unknown dim should pass through unchanged, got %v", got)
	}
}

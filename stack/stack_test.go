package stack

import (
	"reflect"
	"testing"
)

func TestFilterStackDedup(t *testing.T) {
	got := FilterStack([]string{"a", "a", "b", "b", "b", "a"}, nil)
	want := []string{"a", "b", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestFilterStackBlacklist(t *testing.T) {
	got := FilterStack([]string{"a", "js::RunScript", "b"}, map[string]bool{"js::RunScript": true})
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestFilterFrameStripsLine(t *testing.T) {
	if got := FilterFrame("foo.cpp:42"); got != "foo.cpp" {
		t.Fatalf("got %q", got)
	}
	if got := FilterFrame("c:libxul.so:0x12ab"); got != "c:libxul.so:0x12ab" {
		t.Fatalf("should not strip hex address: got %q", got)
	}
}

func TestFormatStackTags(t *testing.T) {
	frames := []string{"libxul.so:0x12ab", "nsFoo::Bar"}
	got := FormatStack(frames, "")
	want := []string{"p:nsFoo::Bar", "c:libxul.so:0x12ab"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestFormatStackWithRevision(t *testing.T) {
	frames := []string{"nsFoo.cpp:bar"}
	got := FormatStack(frames, "https://hg.mozilla.org/mozilla-central/rev/abcdef123456")
	want := []string{"p:nsFoo.cpp:bar (mxr:mozilla-central:abcdef123456)"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestFilterANRStackFloor(t *testing.T) {
	// Fewer than 10 unique non-ignored frames forces backing off the
	// ignore-list until the floor is met or the list is exhausted.
	frames := []string{
		"com.android.internal.os.ZygoteInit.main",
		"com.android.app.ActivityThread.main",
		"dalvik.system.NativeStart.main",
		"android.os.Handler.dispatchMessage",
		"java.lang.reflect.Method.invoke",
		"com.example.App.onCreate",
	}
	got := FilterANRStack(frames)
	if len(got) < min(10, 6) {
		t.Fatalf("expected floor respected, got %v", got)
	}
}

func TestNormalizeInnerClass(t *testing.T) {
	if got := NormalizeInnerClass("com.example.Foo$1"); got != "com.example.Foo$" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeInnerClass("com.example.Foo$Bar12"); got != "com.example.Foo$" {
		t.Fatalf("got %q", got)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

package symbol

import (
	"strings"
	"testing"
)

const fixtureSym = `MODULE Linux x86_64 ABCDEF1234 libxul.so
FILE 1 "/src/foo.cpp"
FUNC 1000 1000 0 foo
12a0 20 42 1
FUNC 3000 100 0 bar
`

// Scenario S5 (spec.md §8): symbolicating 0x12ab against a FUNC spanning
// [0x1000,0x2000) with a line record covering 0x12a0-0x12c0 at line 42 in
// file 1 yields "foo (/src/foo.cpp:42)".
func TestSymbolicateScenarioS5(t *testing.T) {
	f, err := Parse(newReader(fixtureSym))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sym, ok := f.Symbolicate("libxul.so", 0x12ab)
	if !ok {
		t.Fatalf("expected a match")
	}
	if sym.Func != "foo" || sym.File != "/src/foo.cpp" || sym.Line != 42 {
		t.Fatalf("got %+v", sym)
	}
	if got, want := sym.String(), "foo (/src/foo.cpp:42)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestSymbolicateHoleReturnsNotOK(t *testing.T) {
	f, err := Parse(newReader(fixtureSym))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := f.Symbolicate("libxul.so", 0x2500); ok {
		t.Fatalf("expected no match in the gap between funcs")
	}
}

func TestSymbolicateBelowMinStartRejected(t *testing.T) {
	f, err := Parse(newReader(fixtureSym))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := f.Symbolicate("libxul.so", 0x10); ok {
		t.Fatalf("expected reject below the first FUNC's start")
	}
}

func TestSymbolicateInFunctionNoLineRecordFallsBack(t *testing.T) {
	f, err := Parse(newReader(fixtureSym))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sym, ok := f.Symbolicate("libxul.so", 0x3010)
	if !ok {
		t.Fatalf("expected the address to match FUNC bar")
	}
	if sym.Func != "bar" || sym.File != "(unknown)" || sym.Line != 0 {
		t.Fatalf("got %+v, want fallback to (unknown)/0", sym)
	}
}

func TestParseRejectsMissingModule(t *testing.T) {
	if _, err := Parse(newReader("FUNC 1000 10 0 foo\n")); err == nil {
		t.Fatalf("expected an error when the first line is not MODULE")
	}
}

func newReader(s string) *strings.Reader { return strings.NewReader(s) }

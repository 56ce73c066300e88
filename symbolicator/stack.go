package symbolicator

import (
	"strconv"
	"strings"

	"github.com/mozilla-telemetry/hangreport/cmn/nlog"
)

// SymbolicateStack resolves every native ("c:lib:addr") frame in stack
// through sym, leaving pseudo ("p:...") frames and any frame that fails to
// resolve unchanged (spec.md §4.9, grounded on
// original_source/symbolicator.py's symbolicateStack generator).
func SymbolicateStack(stack []string, sym *Symbolicator) []string {
	out := make([]string, len(stack))
	for i, frame := range stack {
		out[i] = symbolicateFrame(frame, sym)
	}
	return out
}

func symbolicateFrame(frame string, sym *Symbolicator) string {
	if !strings.HasPrefix(frame, "c:") {
		return frame
	}
	parts := strings.SplitN(frame[len("c:"):], ":", 2)
	if len(parts) != 2 {
		return frame
	}
	lib, addrStr := parts[0], parts[1]
	addrStr = strings.TrimPrefix(addrStr, "0x")
	if addrStr == "" || !isHexDigit(addrStr[0]) {
		// only frames with a numeric address need symbolicating (spec.md
		// §4.9, "symbolicateStack").
		return frame
	}
	addr, err := strconv.ParseUint(addrStr, 16, 64)
	if err != nil {
		return frame
	}

	s, err := sym.Symbolicate(lib, addr)
	if err != nil {
		nlog.Warningln("symbolicator: resolve", lib, addrStr, err)
		return frame
	}
	if s.Func == "" {
		return frame
	}
	return "c:" + lib + ":" + s.String()
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

//go:build debug

package debug

import "fmt"

func assert(cond bool, msgs ...any) {
	if !cond {
		panic(fmt.Sprintln(append([]any{"assertion failed:"}, msgs...)...))
	}
}

func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}

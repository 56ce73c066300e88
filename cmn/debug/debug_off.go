//go:build !debug

package debug

func assert(bool, ...any)             {}
func assertf(bool, string, ...any) {}

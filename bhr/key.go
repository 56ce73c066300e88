// Package bhr implements the two-pass Background Hang Reporter
// aggregation pipeline (spec.md §4.4): filter pass, data pass, and the
// reducer-side merge/cutoff/UUID-remap logic.
package bhr

import "strings"

const fieldSep = "\x1f"

// KeyKind distinguishes the four reducer key shapes spec.md §4.4 emits.
type KeyKind int

const (
	// KeyActivity is (thread, None): per-thread activity histogram.
	KeyActivity KeyKind = iota
	// KeyUptime is (None, thread): per-thread uptime.
	KeyUptime
	// KeyTotalUptime is (None, None): whole-ping uptime, emitted once.
	KeyTotalUptime
	// KeyHang is (thread, stack): a hang fingerprint plus its histogram.
	KeyHang
)

// Key is one BHR reducer key. Stack is only meaningful when Kind ==
// KeyHang.
type Key struct {
	Kind   KeyKind
	Thread string
	Stack  []string
}

// Encode renders a Key to the opaque string mrengine groups by.
func (k Key) Encode() string {
	return string(rune('0'+int(k.Kind))) + fieldSep + k.Thread + fieldSep + strings.Join(k.Stack, fieldSep)
}

// DecodeKey reverses Encode.
func DecodeKey(s string) Key {
	parts := strings.SplitN(s, fieldSep, 3)
	if len(parts) < 2 {
		return Key{}
	}
	kind := KeyKind(parts[0][0] - '0')
	k := Key{Kind: kind, Thread: parts[1]}
	if len(parts) == 3 && parts[2] != "" {
		k.Stack = strings.Split(parts[2], fieldSep)
	}
	return k
}

// DimKey is a (dim, dimVal) pair, the filter pass's grouping key.
type DimKey struct {
	Dim    string
	DimVal string
}

func (k DimKey) Encode() string {
	return k.Dim + fieldSep + k.DimVal
}

func DecodeDimKey(s string) DimKey {
	parts := strings.SplitN(s, fieldSep, 2)
	if len(parts) != 2 {
		return DimKey{}
	}
	return DimKey{Dim: parts[0], DimVal: parts[1]}
}

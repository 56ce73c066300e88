// Package rep implements the representative-ping selector (spec.md §4.3):
// an associative, commutative merge over candidate (stack, version,
// optional native-capture) tuples that the BHR and ANR reducers use to pick
// one "best" sample to show per aggregated group.
package rep

import (
	"strings"

	"github.com/mozilla-telemetry/hangreport/ping"
)

// channelPriority ranks appUpdateChannel values; a later position in this
// list outranks an earlier one (spec.md §4.3 "idx denotes position in the
// priority string, higher = better").
var channelPriority = []string{"release", "beta", "aurora", "nightly"}

// archPriority and platformPriority are read the other way around per
// Scenario S4 ("armv7 > x86 in ARCH_PRIO" -- armv7 is listed first): an
// earlier position outranks a later one.
var archPriority = []string{"armv7", "x86-64", "x86"}
var platformPriority = []string{"WINNT"}

// VersionKey is the (channel, version, buildID) triple compared by rule 2.
type VersionKey struct {
	Channel string
	Version string
	BuildID string
}

// NativeCapture is one (native_stack, info) pair contributed for a single
// (dim, dimVal) slot in a candidate's native_info map.
type NativeCapture struct {
	NativeStack []string
	Arch        string
	Platform    string
	Version     VersionKey
}

// Candidate is one representative-selection input: a pseudo stack plus
// version triple, and optionally this ping's own native capture along with
// a per-(dim,dimVal) native_info map accumulated so far. StackLen/Detail are
// ANR-only tiebreak fields (zero value is a no-op for BHR merges).
type Candidate struct {
	PseudoStack []string
	Version     VersionKey
	Native      *NativeCapture
	NativeInfo  map[string]map[string]NativeCapture

	StackLen int
	Detail   string
}

// MergeStack is the BHR representative selector (rules 1-3).
func MergeStack(l, r Candidate) Candidate {
	return mergeCore(l, r, false)
}

// MergeANR is the ANR representative selector (rules 1-4).
func MergeANR(l, r Candidate) Candidate {
	return mergeCore(l, r, true)
}

func mergeCore(l, r Candidate, anr bool) Candidate {
	lHas, rHas := l.Native != nil, r.Native != nil

	switch {
	case lHas && !rHas:
		return l
	case rHas && !lHas:
		return r
	case !lHas && !rHas:
		return pickByVersion(l, r, anr)
	default:
		winner := l
		if betterNative(r, l) {
			winner = r
		}
		winner.NativeInfo = mergeNativeInfo(l, r)
		return winner
	}
}

// pickByVersion applies rule 2 (and, for ANR, rule 4) when neither
// candidate carries native info. Ties resolve to l, making the merge
// deterministic under any scan order.
func pickByVersion(l, r Candidate, anr bool) Candidate {
	if c := compareVersion(l.Version, r.Version); c != 0 {
		if c > 0 {
			return l
		}
		return r
	}
	if anr {
		if l.StackLen != r.StackLen {
			if l.StackLen > r.StackLen {
				return l
			}
			return r
		}
		if l.Detail != r.Detail {
			if l.Detail > r.Detail {
				return l
			}
			return r
		}
	}
	return l
}

// compareVersion returns >0 if l outranks r, <0 if r outranks l, 0 on tie:
// channel_idx, then partitioned appVersion, then the last '-'-separated
// component of appBuildID.
func compareVersion(l, r VersionKey) int {
	if c := indexOf(channelPriority, l.Channel) - indexOf(channelPriority, r.Channel); c != 0 {
		return c
	}
	if c := comparePartitioned(ping.PartitionVersion(l.Version), ping.PartitionVersion(r.Version)); c != 0 {
		return c
	}
	return strings.Compare(lastComponent(l.BuildID), lastComponent(r.BuildID))
}

func lastComponent(s string) string {
	idx := strings.LastIndex(s, "-")
	if idx < 0 {
		return s
	}
	return s[idx+1:]
}

// comparePartitioned compares two partitionVersion() outputs element by
// element; a shorter slice that is a prefix of the longer one loses.
// Mismatched-type elements (an int part against a string part, e.g. "1" vs
// "a1") fall back to treating the int as lesser, mirroring the arbitrary
// but total cross-type ordering the original Python 2 comparison relied on.
func comparePartitioned(l, r []any) int {
	for i := 0; i < len(l) && i < len(r); i++ {
		if c := comparePart(l[i], r[i]); c != 0 {
			return c
		}
	}
	return len(l) - len(r)
}

func comparePart(a, b any) int {
	ai, aIsInt := a.(int64)
	bi, bIsInt := b.(int64)
	switch {
	case aIsInt && bIsInt:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	case aIsInt && !bIsInt:
		return -1
	case !aIsInt && bIsInt:
		return 1
	default:
		return strings.Compare(a.(string), b.(string))
	}
}

// betterNative reports whether candidate a outranks candidate b under rule
// 3's pointwise criteria a-e, applied to each side's own native capture.
func betterNative(a, b Candidate) bool {
	if a.Native == nil || b.Native == nil {
		return a.Native != nil
	}
	aPrefix := hasStackPrefix(a.Native.NativeStack, a.PseudoStack)
	bPrefix := hasStackPrefix(b.Native.NativeStack, b.PseudoStack)
	if aPrefix != bPrefix {
		return aPrefix
	}
	if c := indexOfLowerBetter(archPriority, a.Native.Arch) - indexOfLowerBetter(archPriority, b.Native.Arch); c != 0 {
		return c < 0
	}
	aWin := a.Native.Platform == platformPriority[0]
	bWin := b.Native.Platform == platformPriority[0]
	if aWin != bWin {
		return aWin
	}
	if c := comparePartitioned(ping.PartitionVersion(a.Native.Version.Version), ping.PartitionVersion(b.Native.Version.Version)); c != 0 {
		return c > 0
	}
	return a.Native.Version.BuildID > b.Native.Version.BuildID
}

func hasStackPrefix(stack, prefix []string) bool {
	if len(prefix) > len(stack) {
		return false
	}
	for i, f := range prefix {
		if stack[i] != f {
			return false
		}
	}
	return true
}

// mergeNativeInfo combines two candidates' per-(dim,dimVal) native info
// maps, keeping the better capture (by the same rule-3 criteria) at every
// slot present in both.
func mergeNativeInfo(l, r Candidate) map[string]map[string]NativeCapture {
	out := make(map[string]map[string]NativeCapture, len(l.NativeInfo)+len(r.NativeInfo))
	for dim, dimVals := range l.NativeInfo {
		out[dim] = make(map[string]NativeCapture, len(dimVals))
		for dimVal, cap := range dimVals {
			out[dim][dimVal] = cap
		}
	}
	for dim, dimVals := range r.NativeInfo {
		if out[dim] == nil {
			out[dim] = make(map[string]NativeCapture, len(dimVals))
		}
		for dimVal, rCap := range dimVals {
			lCap, ok := out[dim][dimVal]
			if !ok {
				out[dim][dimVal] = rCap
				continue
			}
			lCand := Candidate{PseudoStack: l.PseudoStack, Native: &lCap}
			rCand := Candidate{PseudoStack: r.PseudoStack, Native: &rCap}
			if betterNative(rCand, lCand) {
				out[dim][dimVal] = rCap
			}
		}
	}
	return out
}

func indexOf(list []string, v string) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}

// indexOfLowerBetter is indexOf but treats "not found" as worst-ranked,
// for priority lists where an earlier position wins (archPriority,
// platformPriority).
func indexOfLowerBetter(list []string, v string) int {
	idx := indexOf(list, v)
	if idx < 0 {
		return len(list)
	}
	return idx
}

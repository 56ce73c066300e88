package ping

import (
	"fmt"
	"strconv"
	"strings"
)

// channel substring match order: release, beta, aurora, nightly (spec.md §4.1).
var channelTokens = []string{"release", "beta", "aurora", "nightly"}

// memsizeLadder holds (bound, size) pairs in ascending order: RoundMemSize
// maps a value to the size of the first entry whose bound is >= it. Built
// once; bound equals size, so every value rounds up to the smallest rung
// that is not below it.
type ladderEntry struct {
	bound int64
	size  int64
}

var memsizeLadder = buildLadder()

func buildLadder() []ladderEntry {
	out := make([]ladderEntry, 0, 23*2)
	for n := 7; n < 30; n++ {
		base := int64(1) << uint(n)
		for _, mult := range [2]float64{1, 1.5} {
			bound := int64(float64(base) * mult)
			size := int64(float64(base) * mult)
			out = append(out, ladderEntry{bound, size})
		}
	}
	return out
}

// RoundMemSize rounds n up to the next ladder rung and renders it the way
// the dashboard expects: "<n>M" below 1GiB, "<x.x>G" in (1GiB,2GiB), else
// "<x>G" (integer GiB, spec.md §4.1, Testable Property 2).
func RoundMemSize(n int64) string {
	var size int64 = -1
	for _, e := range memsizeLadder {
		if e.bound >= n {
			size = e.size
			break
		}
	}
	if size < 0 {
		// n larger than the ladder's top rung: use the largest rung.
		size = memsizeLadder[len(memsizeLadder)-1].size
	}
	switch {
	case size < 1024:
		return strconv.FormatInt(size, 10) + "M"
	case size > 1024 && size < 2048:
		return strconv.FormatFloat(roundTo(float64(size)/1024.0, 1), 'f', 1, 64) + "G"
	default:
		return strconv.FormatInt(size/1024, 10) + "G"
	}
}

func roundTo(v float64, places int) float64 {
	p := 1.0
	for range places {
		p *= 10
	}
	if v >= 0 {
		return float64(int64(v*p+0.5)) / p
	}
	return float64(int64(v*p-0.5)) / p
}

// asPositiveInt mirrors the original's "str(v).isdigit() and int(v) > 0"
// guard: numeric types and all-digit strings qualify, negatives and
// anything else do not.
func asPositiveInt(v any) (int64, bool) {
	s := stringify(v)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case fmt.Stringer:
		return t.String()
	default:
		return ""
	}
}

// Adjust canonicalizes a raw info bag in place (spec.md §4.1). It is
// idempotent: Adjust(Adjust(x)) == Adjust(x) (Testable Property 1), since
// every rule either rewrites to a fixed point or is a no-op on an
// already-canonical value.
func Adjust(info Raw) {
	// rendered reports whether v is already a RoundMemSize result, which a
	// repeated Adjust keeps as it is.
	rendered := func(v any) bool {
		s, ok := v.(string)
		if !ok || len(s) < 2 || (s[len(s)-1] != 'M' && s[len(s)-1] != 'G') {
			return false
		}
		_, err := strconv.ParseFloat(s[:len(s)-1], 64)
		return err == nil
	}

	// channel
	if ch, ok := info["appUpdateChannel"].(string); ok {
		lower := strings.ToLower(ch)
		for _, tok := range channelTokens {
			if strings.Contains(lower, tok) {
				info["appUpdateChannel"] = tok
				break
			}
		}
	}

	// memsize
	if v, ok := info["memsize"]; ok {
		if n, ok := asPositiveInt(v); ok {
			info["memsize"] = RoundMemSize(n)
		} else if !rendered(v) {
			info["memsize"] = nil
		}
	} else {
		info["memsize"] = nil
	}

	// adapterRAM (same ladder as memsize)
	if v, ok := info["adapterRAM"]; ok {
		if n, ok := asPositiveInt(v); ok {
			info["adapterRAM"] = RoundMemSize(n)
		} else if !rendered(v) {
			info["adapterRAM"] = nil
		}
	} else {
		info["adapterRAM"] = nil
	}

	if name, _ := info["appName"].(string); name == "B2G" {
		info["OS"] = "B2G"
	}

	// os
	if osv, hasOS := info["OS"]; hasOS {
		osStr := stringify(osv)
		if ver, hasVer := info["version"]; hasVer {
			verStr := stringify(ver)
			parts := strings.Split(strings.SplitN(verStr, "-", 2)[0], ".")
			if len(parts) > 2 {
				parts = parts[:2]
			}
			info["os"] = osStr + " " + strings.Join(parts, ".")
		} else {
			info["os"] = osStr
		}
	} else {
		info["os"] = nil
	}

	// cpucount
	if v, ok := info["cpucount"]; ok {
		if n, ok := asPositiveInt(v); ok {
			info["cpucount"] = n
		} else {
			info["cpucount"] = nil
		}
	} else {
		info["cpucount"] = nil
	}

	// platform
	if osv, hasOS := info["OS"]; hasOS {
		info["platform"] = osv
	} else {
		info["platform"] = nil
	}

	// arch
	if archv, ok := info["arch"].(string); ok && strings.Contains(archv, "arm") {
		isV7 := strings.Contains(archv, "v7")
		if !isV7 {
			if hv7, ok := info["hasARMv7"]; ok {
				isV7 = truthy(hv7)
			} else {
				isV7 = !strings.Contains(archv, "v6")
			}
		}
		if isV7 {
			info["arch"] = "armv7"
		} else {
			info["arch"] = "armv6"
		}
	}

	// appBuildID: prepend "<appVersion>-"
	if ver, okV := info["appVersion"]; okV {
		if bid, okB := info["appBuildID"]; okB {
			prefix := stringify(ver) + "-"
			if bidStr := stringify(bid); !strings.HasPrefix(bidStr, prefix) {
				info["appBuildID"] = prefix + bidStr
			}
		}
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != "" && t != "0" && !strings.EqualFold(t, "false")
	case float64:
		return t != 0
	case nil:
		return false
	default:
		return true
	}
}

// Filter projects an already-adjusted info bag onto profile.AllowedInfos,
// filling "unknown" for anything missing or nil (spec.md §4.1 `filter`).
func Filter(profile Profile, info Raw) map[string]string {
	out := make(map[string]string, len(profile.AllowedInfos))
	for _, k := range profile.AllowedInfos {
		v, ok := info[k]
		if !ok || v == nil {
			out[k] = "unknown"
			continue
		}
		out[k] = stringify(v)
	}
	return out
}

// FilterDimensions builds a Dim (spec.md §3) from the raw engine-supplied
// dimension tuple, restricted to profile.AllowedDimensions, preferring a
// value already present in the normalized Info' (spec.md §4.1
// `filterDimensions`).
func FilterDimensions(profile Profile, rawDims Dims, info map[string]string) map[string]string {
	out := make(map[string]string, len(profile.AllowedDimensions))
	for _, dim := range profile.AllowedDimensions {
		if v, ok := info[dim]; ok {
			out[dim] = v
			continue
		}
		idx := dimIndex(dim)
		if idx >= 0 && idx < len(rawDims) {
			out[dim] = rawDims[idx]
		} else {
			out[dim] = "unknown"
		}
	}
	return out
}

// uptimeBuckets must be checked in this order: ping uptime (minutes) is
// compared against descending thresholds (mapreduce_common.addUptime).
var uptimeBuckets = []struct {
	min   int64
	label string
}{
	{40320, ">4w"},
	{10080, "1w-4w"},
	{1440, "1d-1w"},
	{240, "3h-1d"},
	{30, "30m-3h"},
	{5, "5m-30m"},
	{1, "1m-5m"},
	{0, "<1m"},
}

// AddUptime buckets a ping's raw session uptime (minutes) into the
// standard activity-histogram label and stores it under info["uptime"].
// Negative uptime leaves info untouched (the mapper drops such pings
// earlier regardless).
func AddUptime(info Raw, uptimeMinutes int64) {
	for _, b := range uptimeBuckets {
		if uptimeMinutes >= b.min {
			info["uptime"] = b.label
			return
		}
	}
}

// PartitionVersion splits a dotted version string into parts compared
// numerically where possible, string-wise otherwise (spec.md §4.3).
func PartitionVersion(ver string) []any {
	parts := strings.Split(ver, ".")
	out := make([]any, len(parts))
	for i, p := range parts {
		if n, err := strconv.ParseInt(p, 10, 64); err == nil && isAllDigits(p) {
			out[i] = n
		} else {
			out[i] = p
		}
	}
	return out
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package bhr

import "github.com/OneOfOne/xxhash"

// skipSampled reports whether rawKey should be dropped under SKIP-sampling:
// hash(rawKey) mod (SKIP+1) != 0 (spec.md §4.4). skip <= 0 disables
// sampling and nothing is ever dropped.
func skipSampled(rawKey string, skip int64) bool {
	if skip <= 0 {
		return false
	}
	h := xxhash.ChecksumString64(rawKey)
	return h%uint64(skip+1) != 0
}

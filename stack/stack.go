// Package stack implements the stack canonicalizer (spec.md §4.2): frame
// normalization, consecutive-run dedup, the per-pass blacklist, the
// reverse-traversal formatter, and the ANR ignore-list filter.
package stack

import (
	"regexp"
	"strings"
)

var lineSuffix = regexp.MustCompile(`:\d+$`)
var nativeAddr = regexp.MustCompile(`:0x[0-9a-f]+$`)
var innerClassSuffix = regexp.MustCompile(`\$\w*\d+`)

// FilterFrame strips a trailing ":<lineno>" from a single frame label
// (spec.md §4.2 `filterFrame`).
func FilterFrame(f string) string {
	return lineSuffix.ReplaceAllString(f, "")
}

// FilterStack collapses consecutive runs of identical frames to one, then
// drops any frame present in blacklist (spec.md §4.2 `filterStack`,
// Testable Property 3: dedup([a,a,b,b,b,a]) == [a,b,a]).
func FilterStack(frames []string, blacklist map[string]bool) []string {
	deduped := dedupRuns(frames)
	if len(blacklist) == 0 {
		return deduped
	}
	out := make([]string, 0, len(deduped))
	for _, f := range deduped {
		if !blacklist[f] {
			out = append(out, f)
		}
	}
	return out
}

func dedupRuns(frames []string) []string {
	if len(frames) == 0 {
		return nil
	}
	out := make([]string, 0, len(frames))
	out = append(out, frames[0])
	for _, f := range frames[1:] {
		if f != out[len(out)-1] {
			out = append(out, f)
		}
	}
	return out
}

// FormatStack renders raw (untagged) frame labels into the tagged frame
// strings described in spec.md §3 "Frame tag" / §4.2 `formatStack`,
// traversing frames innermost-to-outermost as given by the caller but
// emitting in reverse (oldest frame first). revision is the raw
// `info.revision` string (empty if absent). repo/rev are the third-from-
// last and last '/'-separated components of revision.
func FormatStack(frames []string, revision string) []string {
	repo, rev, haveRevision := splitRevision(revision)
	out := make([]string, 0, len(frames))
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		switch {
		case nativeAddr.MatchString(f):
			out = append(out, "c:"+f)
		case !strings.Contains(f, ":") || !haveRevision:
			out = append(out, "p:"+f)
		default:
			out = append(out, "p:"+f+" (mxr:"+repo+":"+rev+")")
		}
	}
	return out
}

func splitRevision(revision string) (repo, rev string, ok bool) {
	if revision == "" {
		return "", "", false
	}
	parts := strings.Split(revision, "/")
	if len(parts) < 3 {
		return "", "", false
	}
	return parts[len(parts)-3], parts[len(parts)-1], true
}

// ignoreListJava is ordered least-stable to most-stable; FilterANRStack
// relaxes it from the most-stable end first (spec.md §2, §4.2).
var ignoreListJava = []string{
	"com.android.internal.",
	"com.android.",
	"dalvik.",
	"android.",
	"java.lang.",
}

const anrFloor = 10

// FilterANRStack implements the ANR ignore-list filter: iteratively
// shrinks the active ignore-list from its most-stable end while the
// surviving (deduped, in first-occurrence order) stack has fewer than
// anrFloor frames, then normalizes anonymous inner-class suffixes
// ("$...\d+" -> "$"). Testable Property 4: the result has at least
// min(10, len(unique_non_ignored)) frames, and the list is only ever
// popped in the prescribed order.
func FilterANRStack(javaFrames []string) []string {
	active := len(ignoreListJava)
	out := filterWithIgnoreList(javaFrames, ignoreListJava[:active])
	for active > 0 && len(out) < anrFloor {
		active--
		out = filterWithIgnoreList(javaFrames, ignoreListJava[:active])
	}
	return out
}

func filterWithIgnoreList(frames []string, ignore []string) []string {
	seen := make(map[string]bool, len(frames))
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		if hasAnyPrefix(f, ignore) {
			continue
		}
		nf := NormalizeInnerClass(f)
		if !seen[nf] {
			seen[nf] = true
			out = append(out, nf)
		}
	}
	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// NormalizeInnerClass collapses an anonymous inner-class suffix
// ("$Foo$1", "$2") down to "$", matching `\$\w*\d+` -> `$`.
func NormalizeInnerClass(frame string) string {
	return innerClassSuffix.ReplaceAllString(frame, "$")
}

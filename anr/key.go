package anr

import (
	"strings"

	"github.com/mozilla-telemetry/hangreport/stack"
)

// DeriveKey computes the ANR reducer key (thread_name, key_stack) from a
// parsed report: the main thread's Java frames run through the §4.2
// ignore-list filter, falling back to the native "Gecko (native)" /
// "GeckoMain (native)" / "Gecko" thread if the main-thread stack mentions
// "sendEventToGeckoSync" (spec.md §4.6).
func DeriveKey(r *Report) (thread string, keyStack []string, ok bool) {
	if r.MainThread == nil {
		return "", nil, false
	}
	thread = r.MainThread.Name
	keyStack = stack.FilterANRStack(r.MainThread.JavaFrames())

	if containsSendEventToGeckoSync(keyStack) {
		if nt, ns, found := nativeFallback(r); found {
			thread, keyStack = nt, ns
		}
	}
	return thread, keyStack, true
}

func containsSendEventToGeckoSync(frames []string) bool {
	for _, f := range frames {
		if strings.Contains(f, "sendEventToGeckoSync") {
			return true
		}
	}
	return false
}

func nativeFallback(r *Report) (thread string, keyStack []string, ok bool) {
	candidates := []string{"Gecko (native)", "GeckoMain (native)", "Gecko"}
	for _, name := range candidates {
		t := r.GetThread(name)
		if t == nil {
			continue
		}
		ns := stack.FilterANRStack(nativeLikeFrames(t))
		if len(ns) == 0 {
			continue
		}
		return name, ns, true
	}
	return "", nil, false
}

// nativeLikeFrames mirrors the Python mapper's getNativeStack comprehension
// (`f.isPseudo or not f.isNative`): everything except a purely-native frame
// survives, i.e. Java frames plus any pseudo-stack entries. In this
// package's simplified Frame model (no separate pseudo tag) that reduces to
// the thread's non-native frames.
func nativeLikeFrames(t *Thread) []string {
	return t.JavaFrames()
}

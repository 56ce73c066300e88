package bundle

import "github.com/mozilla-telemetry/hangreport/anr"

// dimValMap is one dimension field's per-slug contribution: dimVal ->
// infoKey -> infoVal -> count, exactly anr.Reduced.Info's shape for a
// single dimension field.
type dimValMap = map[string]map[string]map[string]int64

// BuildANR assembles one ANR run's output bundle from the reducer's
// accumulated groups, ported from fetchanr.py's processDims: per-group
// thread entries (symbolicating any thread whose name mentions "native"),
// and one dim_<field>.json.gz per dimension (spec.md §6: "slug ->
// DimValue -> InfoKey -> InfoVal -> count").
func BuildANR(dir string, groups []anr.Reduced, sym Symbolicate) (*Index, error) {
	idx := newIndex()

	mainThreads := make(map[string][]ThreadEntry, len(groups))
	backgroundThreads := make(map[string][]ThreadEntry, len(groups))
	slugs := make(map[string][]string, len(groups))
	// dim field -> slug -> dimVal -> infoKey -> infoVal -> count
	dimsInfo := make(map[string]map[string]dimValMap)

	for _, g := range groups {
		if len(g.Slugs) == 0 {
			continue
		}
		slug := g.Slugs[0]
		slugs[slug] = g.Slugs

		for i, t := range g.Threads {
			entry := ThreadEntry{Name: t.Name, Stack: frameStrings(t.Stack)}
			if isNativeThreadName(entry.Name) && sym != nil {
				entry.Stack = sym(g.SymbolicatorInfo, entry.Stack)
			}
			if i == 0 {
				mainThreads[slug] = append(mainThreads[slug], entry)
			} else {
				backgroundThreads[slug] = append(backgroundThreads[slug], entry)
			}
		}

		for dimField, dimVals := range g.Info {
			dst := dimsInfo[dimField]
			if dst == nil {
				dst = make(map[string]dimValMap, len(groups))
				dimsInfo[dimField] = dst
			}
			dst[slug] = dimVals
		}
	}

	if _, err := writeGZJSON(dir, "", "slugs", slugs); err != nil {
		return nil, err
	}
	if _, err := writeGZJSON(dir, "", "main_thread", mainThreads); err != nil {
		return nil, err
	}
	if _, err := writeGZJSON(dir, "", "background_threads", backgroundThreads); err != nil {
		return nil, err
	}

	for field, perSlug := range dimsInfo {
		fn, err := writeGZJSON(dir, "dim_", field, perSlug)
		if err != nil {
			return nil, err
		}
		idx.Dimensions[field] = fn
	}

	return idx, nil
}

// AssembleANR runs BuildANR and BuildANRSessions and writes the combined
// index.json, the full output-bundle assembly fetchanr.py's __main__ drives.
func AssembleANR(dir string, groups []anr.Reduced, sessionOutputs []anr.SessionsOutput, sym Symbolicate) error {
	idx, err := BuildANR(dir, groups, sym)
	if err != nil {
		return err
	}
	sessions, err := BuildANRSessions(dir, sessionOutputs)
	if err != nil {
		return err
	}
	idx.Sessions = sessions
	return WriteIndex(dir, idx)
}

func frameStrings(stack []anr.Frame) []string {
	out := make([]string, len(stack))
	for i, f := range stack {
		out[i] = f.String()
	}
	return out
}

func isNativeThreadName(name string) bool {
	for i := 0; i+6 <= len(name); i++ {
		if equalFoldASCII(name[i:i+6], "native") {
			return true
		}
	}
	return false
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

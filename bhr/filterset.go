package bhr

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	cuckoo "github.com/seiflotfy/cuckoofilter"

	"github.com/mozilla-telemetry/hangreport/cmn/cos"
)

// filterSlot holds one (dim,dimVal)'s surviving fingerprints: an exact set
// for correctness and a cuckoo filter in front of it so the data pass's
// hot path (one membership check per hang per dim the ping belongs to)
// usually short-circuits on a guaranteed-absent fingerprint without a map
// probe (spec.md §4.4 "FILTER[dim][dimVal] = [fingerprints]").
type filterSlot struct {
	exact  map[string]bool
	cuckoo *cuckoo.Filter
}

// FilterSet is the loaded filter.txt, keyed by (dim,dimVal).
type FilterSet map[DimKey]*filterSlot

// Contains reports whether (thread,stack) survived the filter pass for
// (dim,dimVal).
func (fs FilterSet) Contains(dim, dimVal, thread string, fp []string) bool {
	slot, ok := fs[DimKey{Dim: dim, DimVal: dimVal}]
	if !ok {
		return false
	}
	key := []byte(thread + "\x1f" + joinStack(fp))
	if slot.cuckoo != nil && !slot.cuckoo.Lookup(key) {
		return false
	}
	return slot.exact[string(key)]
}

func newFilterSlot() *filterSlot {
	return &filterSlot{
		exact:  make(map[string]bool),
		cuckoo: cuckoo.NewFilter(1024),
	}
}

func (s *filterSlot) add(thread string, fp []string) {
	key := []byte(thread + "\x1f" + joinStack(fp))
	s.exact[string(key)] = true
	s.cuckoo.Insert(key)
}

// BuildFilterSet builds an in-memory FilterSet from the filter-pass
// reducer's per-(dim,dimVal) tallies, as returned by RunFilterPass. It
// writes nothing; WriteFilterFile writes the same tallies to filter.txt.
func BuildFilterSet(entries map[string][]filterTally) FilterSet {
	fs := make(FilterSet, len(entries))
	for k, tallies := range entries {
		dimKey := DecodeDimKey(k)
		slot := newFilterSlot()
		for _, t := range tallies {
			slot.add(t.Thread, t.Stack)
		}
		fs[dimKey] = slot
	}
	return fs
}

// WriteFilterFile writes filter.txt: one TSV line per surviving
// fingerprint, `[dim,dimVal]_json \t [count,[thread,[frame...]]]_json`.
func WriteFilterFile(w io.Writer, entries map[string][]filterTally) error {
	bw := bufio.NewWriter(w)
	for k, tallies := range entries {
		dimKey := DecodeDimKey(k)
		keyJSON := cos.MustMarshal([]string{dimKey.Dim, dimKey.DimVal})
		for _, t := range tallies {
			valJSON := cos.MustMarshal([]any{t.Count, []any{t.Thread, t.Stack}})
			if _, err := fmt.Fprintf(bw, "%s\t%s\n", keyJSON, valJSON); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// ReadFilterFile parses filter.txt back into a FilterSet.
func ReadFilterFile(r io.Reader) (FilterSet, error) {
	fs := make(FilterSet)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		var key []string
		if err := cos.JSON.UnmarshalFromString(parts[0], &key); err != nil || len(key) != 2 {
			continue
		}
		var val []any
		if err := cos.JSON.UnmarshalFromString(parts[1], &val); err != nil || len(val) != 2 {
			continue
		}
		pair, ok := val[1].([]any)
		if !ok || len(pair) != 2 {
			continue
		}
		thread, _ := pair[0].(string)
		rawFrames, _ := pair[1].([]any)
		frames := make([]string, 0, len(rawFrames))
		for _, f := range rawFrames {
			if s, ok := f.(string); ok {
				frames = append(frames, s)
			}
		}
		dimKey := DimKey{Dim: key[0], DimVal: key[1]}
		slot, ok := fs[dimKey]
		if !ok {
			slot = newFilterSlot()
			fs[dimKey] = slot
		}
		slot.add(thread, frames)
	}
	return fs, scanner.Err()
}

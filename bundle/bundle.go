// Package bundle assembles the mapreduce pipelines' reducer output into
// the dashboard-ready output bundle described in spec.md §6: index.json
// plus the gzip-compressed per-thread, per-dimension, and per-session
// JSON files, ported from fetchanr.py/fetchbhr.py's saveFile/processDims/
// processSessions/processBHR.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/mozilla-telemetry/hangreport/cmn/cos"
)

// Index is index.json's shape: relative filenames for every per-dimension
// and per-session field this run produced.
type Index struct {
	Dimensions map[string]string `json:"dimensions"`
	Sessions   map[string]string `json:"sessions"`
}

func newIndex() *Index {
	return &Index{Dimensions: map[string]string{}, Sessions: map[string]string{}}
}

// ThreadEntry is one entry of main_thread.json.gz / background_threads.json.gz
// (spec.md §6).
type ThreadEntry struct {
	Name  string   `json:"name"`
	Stack []string `json:"stack"`
}

// writeGZJSON gzips v's compact JSON encoding to <dir>/<prefix><name>.json.gz
// and returns the filename, ported from fetchanr.py's saveFile.
func writeGZJSON(dir, prefix, name string, v any) (string, error) {
	b := cos.MustMarshal(v)
	fn := prefix + name + ".json.gz"
	f, err := os.Create(filepath.Join(dir, fn))
	if err != nil {
		return "", fmt.Errorf("bundle: create %s: %w", fn, err)
	}
	defer f.Close()

	gw, err := gzip.NewWriterLevel(f, gzip.BestSpeed)
	if err != nil {
		return "", fmt.Errorf("bundle: gzip %s: %w", fn, err)
	}
	if _, err := gw.Write(b); err != nil {
		gw.Close()
		return "", fmt.Errorf("bundle: write %s: %w", fn, err)
	}
	if err := gw.Close(); err != nil {
		return "", fmt.Errorf("bundle: close %s: %w", fn, err)
	}
	return fn, nil
}

// WriteIndex writes index.json to dir.
func WriteIndex(dir string, idx *Index) error {
	return os.WriteFile(filepath.Join(dir, "index.json"), cos.MustMarshal(idx), 0o644)
}

// Symbolicate resolves the native frames of one representative ping's
// thread stack, given that ping's raw info bag (for build resolution).
// A nil Symbolicate leaves native frames untouched, matching the
// "symbolication failure degrades to unsymbolicated output" propagation
// policy (spec.md §7) applied at the bundle boundary rather than per-frame.
type Symbolicate func(buildInfo map[string]any, stack []string) []string

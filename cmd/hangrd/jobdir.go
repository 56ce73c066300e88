// Package main implements hangrd, the driver binary that runs the BHR and
// ANR aggregation pipelines end to end against a date range and writes a
// dashboard-ready bundle, the in-process replacement for fetchbhr.py /
// fetchanr.py's subprocess-orchestration __main__ blocks.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const dateFormat = "20060102"

// parseDateRange validates the two positional YYYYMMDD arguments the way
// fetchbhr.py's __main__ does: both must parse and to must not precede from.
func parseDateRange(fromArg, toArg string) (from, to time.Time, err error) {
	from, err = time.Parse(dateFormat, fromArg)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("hangrd: invalid from date %q: %w", fromArg, err)
	}
	to, err = time.Parse(dateFormat, toArg)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("hangrd: invalid to date %q: %w", toArg, err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("hangrd: to date is less than from date")
	}
	return from, to, nil
}

// jobDirs is one run's work/output directory pair, named the way
// fetchbhr.py/fetchanr.py name theirs: tmp-<kind>-<from>-<to> for scratch
// space, <kind>-<from>-<to> for the published bundle.
type jobDirs struct {
	From, To  string
	WorkDir   string
	OutDir    string
	LocalOnly bool
}

// newJobDirs creates (or reuses) the work/output directories for one job
// under root, and detects local-only mode from a pre-populated cache/
// subdirectory of the work dir, exactly as fetchbhr.py's os.path.exists
// check does.
func newJobDirs(root, kind, from, to string) (*jobDirs, error) {
	workDir := filepath.Join(root, fmt.Sprintf("tmp-%s-%s-%s", kind, from, to))
	outDir := filepath.Join(root, fmt.Sprintf("%s-%s-%s", kind, from, to))

	_, err := os.Stat(filepath.Join(workDir, "cache"))
	localOnly := err == nil

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("hangrd: work dir: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("hangrd: out dir: %w", err)
	}
	return &jobDirs{From: from, To: to, WorkDir: workDir, OutDir: outDir, LocalOnly: localOnly}, nil
}

func (d *jobDirs) printHeader() {
	fmt.Printf("Range: %s to %s\n", d.From, d.To)
	fmt.Printf("Work dir: %s\n", d.WorkDir)
	fmt.Printf("Out dir: %s\n", d.OutDir)
	if d.LocalOnly {
		fmt.Println("Local only")
	}
}

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDateRangeValid(t *testing.T) {
	from, to, err := parseDateRange("20180101", "20180107")
	if err != nil {
		t.Fatalf("parseDateRange: %v", err)
	}
	if from.Format(dateFormat) != "20180101" || to.Format(dateFormat) != "20180107" {
		t.Fatalf("got from=%s to=%s", from.Format(dateFormat), to.Format(dateFormat))
	}
}

func TestParseDateRangeInvalidFormat(t *testing.T) {
	if _, _, err := parseDateRange("2018-01-01", "20180107"); err == nil {
		t.Fatal("expected an error for a malformed from date")
	}
}

func TestParseDateRangeToBeforeFrom(t *testing.T) {
	if _, _, err := parseDateRange("20180107", "20180101"); err == nil {
		t.Fatal("expected an error when to precedes from")
	}
}

func TestNewJobDirsCreatesWorkAndOutDirs(t *testing.T) {
	root := t.TempDir()
	dirs, err := newJobDirs(root, "bhr", "20180101", "20180107")
	if err != nil {
		t.Fatalf("newJobDirs: %v", err)
	}
	if dirs.LocalOnly {
		t.Fatal("expected LocalOnly=false with no pre-existing cache dir")
	}
	for _, dir := range []string{dirs.WorkDir, dirs.OutDir} {
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			t.Fatalf("expected %s to exist as a directory", dir)
		}
	}
	wantWork := filepath.Join(root, "tmp-bhr-20180101-20180107")
	wantOut := filepath.Join(root, "bhr-20180101-20180107")
	if dirs.WorkDir != wantWork {
		t.Fatalf("WorkDir = %s, want %s", dirs.WorkDir, wantWork)
	}
	if dirs.OutDir != wantOut {
		t.Fatalf("OutDir = %s, want %s", dirs.OutDir, wantOut)
	}
}

func TestNewJobDirsDetectsLocalOnly(t *testing.T) {
	root := t.TempDir()
	workDir := filepath.Join(root, "tmp-bhr-20180101-20180107")
	if err := os.MkdirAll(filepath.Join(workDir, "cache"), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	dirs, err := newJobDirs(root, "bhr", "20180101", "20180107")
	if err != nil {
		t.Fatalf("newJobDirs: %v", err)
	}
	if !dirs.LocalOnly {
		t.Fatal("expected LocalOnly=true when workdir/cache pre-exists")
	}
}

package symbolicator

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func buildZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "archive.zip")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// Testable Property 10 (spec.md §8): extracting a zip containing "../evil"
// raises.
func TestExtractZipRejectsPathTraversal(t *testing.T) {
	archive := buildZip(t, map[string]string{"../evil": "payload"})
	dest := t.TempDir()
	if err := extractZip(archive, dest); err == nil {
		t.Fatalf("expected an error extracting a path-traversal entry")
	}
}

func TestExtractZipHappyPath(t *testing.T) {
	archive := buildZip(t, map[string]string{"libxul.so": "binary-ish content"})
	dest := t.TempDir()
	if err := extractZip(archive, dest); err != nil {
		t.Fatalf("extractZip: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dest, "libxul.so"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "binary-ish content" {
		t.Fatalf("got %q", got)
	}
}

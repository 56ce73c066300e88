package symbolicator

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// extractZip extracts archive into dest, rejecting any entry whose resolved
// path escapes dest (spec.md §4.9, Testable Property 10).
func extractZip(archive, dest string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return errors.Wrap(err, "symbolicator: open archive")
	}
	defer r.Close()

	destAbs, err := filepath.Abs(dest)
	if err != nil {
		return errors.Wrap(err, "symbolicator: resolve scratch dir")
	}

	for _, f := range r.File {
		target := filepath.Join(destAbs, f.Name)
		targetAbs, err := filepath.Abs(target)
		if err != nil {
			return errors.Wrap(err, "symbolicator: resolve entry path")
		}
		if targetAbs != destAbs && !hasPathPrefix(targetAbs, destAbs) {
			return errors.Errorf("symbolicator: invalid archive entry %q escapes scratch dir", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(targetAbs, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(targetAbs), 0o755); err != nil {
			return err
		}
		if err := extractOne(f, targetAbs); err != nil {
			return err
		}
	}
	return nil
}

func hasPathPrefix(path, prefix string) bool {
	rel, err := filepath.Rel(prefix, path)
	if err != nil {
		return false
	}
	return rel != ".." && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 2 && rel[0] == '.' && rel[1] == '.' &&
		(len(rel) == 2 || os.IsPathSeparator(rel[2]))
}

func extractOne(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

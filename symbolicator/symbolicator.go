package symbolicator

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/mozilla-telemetry/hangreport/symbol"
)

// Symbolicator resolves module-relative addresses for one build's scratch
// directory, caching parsed symbol.File indexes per local module path
// (spec.md §4.9 "cache the parsed BreakpadSymbolFile per-module").
type Symbolicator struct {
	build   *Build
	scratch string
	fetcher Fetcher

	mu     sync.Mutex
	mods   []string
	cached map[string]*symbol.File
}

// New builds a Symbolicator for b, rooted at filepath.Join(scratchRoot,
// Scratch(b)). fetcher is nil-safe: a nil fetcher assumes the scratch
// directory is already populated (e.g. a test fixture).
func New(b *Build, scratchRoot string, fetcher Fetcher) *Symbolicator {
	return &Symbolicator{
		build:   b,
		scratch: filepath.Join(scratchRoot, Scratch(b)),
		fetcher: fetcher,
		cached:  make(map[string]*symbol.File),
	}
}

// FetchBinaries ensures the build's symbol/module archive is present and
// extracted (spec.md §4.9 "Fetch").
func (s *Symbolicator) FetchBinaries(ctx context.Context) error {
	if s.fetcher == nil {
		return nil
	}
	return s.fetcher.Fetch(ctx, s.build, s.scratch)
}

func (s *Symbolicator) modules() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mods != nil {
		return s.mods, nil
	}
	mods, err := listModules(s.scratch)
	if err != nil {
		return nil, err
	}
	s.mods = mods
	return mods, nil
}

// Symbolicate resolves addr against device module's matching local symbol
// file (spec.md §4.9 "Match" + §4.8 "Query").
func (s *Symbolicator) Symbolicate(device string, addr uint64) (symbol.Symbol, error) {
	mod, err := s.matchModule(device)
	if err != nil {
		return symbol.Symbol{}, err
	}
	f, err := s.symFile(mod)
	if err != nil {
		return symbol.Symbol{}, err
	}
	sym, ok := f.Symbolicate(filepath.Base(device), addr)
	if !ok {
		return symbol.Symbol{Lib: filepath.Base(device), Func: "", File: "(unknown)"}, nil
	}
	return sym, nil
}

func (s *Symbolicator) symFile(localModule string) (*symbol.File, error) {
	s.mu.Lock()
	if f, ok := s.cached[localModule]; ok {
		s.mu.Unlock()
		return f, nil
	}
	s.mu.Unlock()

	symPath := localModule + ".sym"
	if picked, ok := pickSymFile(localModule, s.build.SymArch); ok {
		symPath = picked
	}
	fh, err := os.Open(symPath)
	if err != nil {
		return nil, errors.Wrapf(err, "symbolicator: open sym file for %s", localModule)
	}
	defer fh.Close()

	f, err := symbol.Parse(fh)
	if err != nil {
		return nil, errors.Wrapf(err, "symbolicator: parse sym file for %s", localModule)
	}

	s.mu.Lock()
	s.cached[localModule] = f
	s.mu.Unlock()
	return f, nil
}

// pickSymFile looks for "<module>-<arch>.sym" alongside the module, the
// shape this expansion's Desktop symbol archives use to carry one sym file
// per supported architecture (spec.md §4.9 "pick the sym file whose
// architecture == symarch").
func pickSymFile(localModule, arch string) (string, bool) {
	candidate := localModule + "-" + arch + ".sym"
	if _, err := os.Stat(candidate); err == nil {
		return candidate, true
	}
	return "", false
}

// matchModule finds the local extracted module matching device (spec.md
// §4.9 "Match"): Desktop compares basenames (case-insensitive on Windows,
// extension stripped); Mobile does the legacy depth-increasing tail match.
func (s *Symbolicator) matchModule(device string) (string, error) {
	mods, err := s.modules()
	if err != nil {
		return "", err
	}
	if s.build.Product == ProductMobile {
		return matchMobileModule(device, mods)
	}
	return matchDesktopModule(device, mods)
}

func matchDesktopModule(device string, mods []string) (string, error) {
	target := strings.TrimSuffix(filepath.Base(device), filepath.Ext(device))
	caseInsensitive := runtime.GOOS == "windows"
	if caseInsensitive {
		target = strings.ToLower(target)
	}

	var matches []string
	for _, m := range mods {
		name := strings.TrimSuffix(filepath.Base(m), filepath.Ext(m))
		if caseInsensitive {
			name = strings.ToLower(name)
		}
		if name == target {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	default:
		return "", errors.New("symbolicator: cannot find module")
	}
}

func matchMobileModule(device string, mods []string) (string, error) {
	deviceParts := strings.Split(filepath.ToSlash(device), "/")
	depth := 0
	var matches []string
	for {
		depth++
		matches = matches[:0]
		for _, m := range mods {
			localParts := strings.Split(filepath.ToSlash(m), "/")
			if tailEqual(deviceParts, localParts, depth) {
				matches = append(matches, m)
			}
		}
		if len(matches) <= 1 || depth >= len(deviceParts) {
			break
		}
	}
	if len(matches) != 1 {
		return "", errors.New("symbolicator: cannot find module")
	}
	return matches[0], nil
}

func tailEqual(a, b []string, depth int) bool {
	if depth > len(a) || depth > len(b) {
		return false
	}
	for i := 1; i <= depth; i++ {
		if a[len(a)-i] != b[len(b)-i] {
			return false
		}
	}
	return true
}

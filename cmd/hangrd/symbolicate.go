package main

import (
	"context"

	"github.com/mozilla-telemetry/hangreport/bundle"
	"github.com/mozilla-telemetry/hangreport/cmn/nlog"
	"github.com/mozilla-telemetry/hangreport/config"
	"github.com/mozilla-telemetry/hangreport/symbolicator"
)

// newSymbolicate builds a bundle.Symbolicate closure backed by real
// per-build symbolicators, caching one Symbolicator per scratch directory
// for the lifetime of a single bundle-assembly run so repeated native
// threads from the same build don't re-fetch the symbol archive.
func newSymbolicate(cfg config.Config, scratchRoot string) bundle.Symbolicate {
	cache := make(map[string]*symbolicator.Symbolicator)

	return func(buildInfo map[string]any, stack []string) []string {
		build, ok := symbolicator.FromBuild(toBuildInfo(buildInfo))
		if !ok {
			return stack
		}

		key := symbolicator.Scratch(build)
		sym, ok := cache[key]
		if !ok {
			sym = symbolicator.New(build, scratchRoot, fetcherFor(cfg, build))
			if err := sym.FetchBinaries(context.Background()); err != nil {
				nlog.Warningln("hangrd: fetch symbols for", key, err)
				return stack
			}
			cache[key] = sym
		}
		return symbolicator.SymbolicateStack(stack, sym)
	}
}

func fetcherFor(cfg config.Config, b *symbolicator.Build) symbolicator.Fetcher {
	if b.Product == symbolicator.ProductMobile {
		return symbolicator.MobileFetcher{Server: cfg.MobileFTPHost}
	}
	return symbolicator.DesktopFetcher{BaseURL: cfg.DesktopSymURL}
}

func toBuildInfo(raw map[string]any) symbolicator.BuildInfo {
	str := func(k string) string {
		v, _ := raw[k].(string)
		return v
	}
	return symbolicator.BuildInfo{
		AppName:          str("appName"),
		AppVersion:       str("appVersion"),
		AppBuildID:       str("appBuildID"),
		AppUpdateChannel: str("appUpdateChannel"),
		Platform:         str("os"),
		Arch:             str("arch"),
	}
}

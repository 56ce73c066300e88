// Package symbolicator implements the product-adapter symbolicator
// (spec.md §4.9): resolving a ping's build info to a fetch location,
// downloading and extracting the matching symbol archive once per
// (appBuildID, repo, platform, arch) scratch directory, and answering
// Symbolicate(module, address) via the symbol package's Breakpad index.
package symbolicator

import (
	"strconv"
	"strings"
	"time"
)

// Product is the product family a ping's build belongs to.
type Product int

const (
	ProductUnknown Product = iota
	ProductMobile
	ProductDesktop
)

// ProductFor maps appName to a Product (spec.md §4.9: "Fennec -> Mobile,
// Firefox -> Desktop, else None").
func ProductFor(appName string) Product {
	switch appName {
	case "Fennec":
		return ProductMobile
	case "Firefox":
		return ProductDesktop
	default:
		return ProductUnknown
	}
}

// BuildInfo is the subset of a ping's normalized info the symbolicator
// needs to locate a symbol archive.
type BuildInfo struct {
	AppName          string
	AppVersion       string
	AppBuildID       string
	AppUpdateChannel string
	Platform         string
	Arch             string
}

// Build is a resolved symbolicator target: the product, the repo derived
// from channel, the parsed build date components, and the architecture
// strings used to pick an archive/sym-file.
type Build struct {
	Product Product
	Info    BuildInfo
	Repo    string

	BuildY, BuildM, BuildD, BuildH, BuildMin, BuildS string

	// OSArch is the Desktop platform/arch bucket (spec.md §4.9); empty for
	// Mobile builds.
	OSArch string
	// SymArch is the architecture token the Breakpad sym file must carry.
	SymArch string
}

// FromBuild resolves info into a Build, or ok=false when the product or
// channel cannot be determined (spec.md §4.9 "else None" / "abort").
func FromBuild(info BuildInfo) (*Build, bool) {
	product := ProductFor(info.AppName)
	if product == ProductUnknown {
		return nil, false
	}

	b := &Build{Product: product, Info: info}

	build := info.AppBuildID
	if idx := strings.IndexByte(build, '-'); idx >= 0 {
		build = build[idx+1:]
	}
	t, err := time.Parse("20060102150405", build)
	if err != nil {
		return nil, false
	}
	b.BuildY = strconv.Itoa(t.Year())
	b.BuildM = pad2(int(t.Month()))
	b.BuildD = pad2(t.Day())
	b.BuildH = pad2(t.Hour())
	b.BuildMin = pad2(t.Minute())
	b.BuildS = pad2(t.Second())

	switch {
	case info.AppUpdateChannel == "nightly":
		b.Repo = "mozilla-central"
	case info.AppUpdateChannel == "aurora":
		b.Repo = "mozilla-aurora"
	case strings.HasPrefix(info.AppUpdateChannel, "nightly-"):
		b.Repo = strings.TrimPrefix(info.AppUpdateChannel, "nightly-")
	default:
		return nil, false
	}

	if product == ProductDesktop {
		b.OSArch = desktopOSArch(info.Platform, info.Arch)
	}
	b.SymArch = symArch(info.Arch)

	return b, true
}

func pad2(n int) string {
	s := strconv.Itoa(n)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

// desktopOSArch maps (platform, arch) to the Desktop archive bucket
// (spec.md §4.9).
func desktopOSArch(platform, arch string) string {
	switch platform {
	case "Linux":
		if arch == "x86-64" {
			return "linux-x86_64"
		}
		return "linux-i686"
	case "Darwin":
		return "mac"
	case "WINNT":
		if arch == "x86-64" {
			return "win64-x86_64"
		}
		return "win32"
	default:
		return "unknown"
	}
}

// symArch maps a ping's arch string to the sym-file architecture token
// (spec.md §4.9: "x86_64 if arch is x86-64; arm if starts with arm; else
// arch").
func symArch(arch string) string {
	switch {
	case arch == "x86-64":
		return "x86_64"
	case strings.HasPrefix(arch, "arm"):
		return "arm"
	default:
		return arch
	}
}

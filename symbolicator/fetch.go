package symbolicator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jlaffaye/ftp"
	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
)

// Fetcher isolates the network/subprocess side effects of getting a symbol
// archive onto disk (spec.md §9 Design Note: "isolate behind a
// SymbolFetcher capability so tests can inject a local fixture directory").
type Fetcher interface {
	// Fetch ensures the build's symbol archive is present and extracted
	// under scratch, downloading it first if necessary.
	Fetch(ctx context.Context, b *Build, scratch string) error
}

// Scratch returns the per-build scratch subdirectory name (spec.md §4.9
// "_SCRATCH" / §5 "scratch directory per (appBuildID, repo, platform,
// arch)").
func Scratch(b *Build) string {
	return fmt.Sprintf("%s-%s-%s-%s", b.Info.AppBuildID, b.Repo, b.Info.Platform, b.Info.Arch)
}

// mobileABI mirrors original_source/symbolicator.py's Mobile._ABI table.
var mobileABI = map[string]string{
	"armv7": "arm",
	"armv6": "arm-armv6",
	"x86":   "i386",
}

// MobileFetcher fetches the legacy Fennec APK archive over anonymous FTP
// (spec.md §4.9, grounded on original_source/symbolicator.py's Mobile
// class).
type MobileFetcher struct {
	Server string
}

func (m MobileFetcher) server() string {
	if m.Server != "" {
		return m.Server
	}
	return "ftp.mozilla.org"
}

func (m MobileFetcher) path(b *Build) (remotePath, file string, err error) {
	abi, ok := mobileABI[b.Info.Arch]
	if !ok {
		return "", "", errors.Errorf("symbolicator: unsupported Mobile arch %q", b.Info.Arch)
	}
	base := fmt.Sprintf("/pub/mozilla.org/mobile/nightly/%s/%s/%s-%s-%s-%s-%s-%s-%s-android",
		b.BuildY, b.BuildM, b.BuildY, b.BuildM, b.BuildD, b.BuildH, b.BuildMin, b.BuildS, b.Repo)
	if b.Info.Arch != "armv7" {
		base += "-" + b.Info.Arch
	}
	base += "/en-US"
	file = fmt.Sprintf("fennec-%s.en-US.android-%s.apk", b.Info.AppVersion, abi)
	return base, file, nil
}

func (m MobileFetcher) Fetch(ctx context.Context, b *Build, scratch string) error {
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return err
	}
	remoteDir, file, err := m.path(b)
	if err != nil {
		return err
	}
	dst := filepath.Join(scratch, file)
	if _, err := os.Stat(dst); err == nil {
		return extractIfNeeded(dst, scratch)
	}

	c, err := ftp.Dial(m.server()+":21", ftp.DialWithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "symbolicator: FTP dial")
	}
	defer c.Quit()
	if err := c.Login("anonymous", "anonymous"); err != nil {
		return errors.Wrap(err, "symbolicator: FTP login")
	}

	resp, err := c.Retr(remoteDir + "/" + file)
	if err != nil {
		return errors.Wrap(err, "symbolicator: FTP retrieve")
	}
	defer resp.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp); err != nil {
		return err
	}

	return extractIfNeeded(dst, scratch)
}

// DesktopFetcher fetches a Desktop build's Breakpad symbol archive over
// HTTPS (spec.md §4.9's expansion to a real Desktop path; the legacy
// symbolicator.py had no Desktop adapter).
type DesktopFetcher struct {
	BaseURL string
}

func (d DesktopFetcher) baseURL() string {
	if d.BaseURL != "" {
		return d.BaseURL
	}
	return "https://symbols.mozilla.org"
}

func (d DesktopFetcher) url(b *Build) string {
	return fmt.Sprintf("%s/%s/%s/%s-%s-symbols.zip",
		d.baseURL(), b.Info.AppName, b.Info.AppBuildID, b.OSArch, b.SymArch)
}

func (d DesktopFetcher) Fetch(ctx context.Context, b *Build, scratch string) error {
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(scratch, fmt.Sprintf("%s-symbols.zip", b.Info.AppBuildID))
	if _, err := os.Stat(dst); err == nil {
		return extractIfNeeded(dst, scratch)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(d.url(b))
	req.Header.SetMethod("GET")

	client := &fasthttp.Client{}
	if err := client.Do(req, resp); err != nil {
		return errors.Wrap(err, "symbolicator: HTTPS fetch")
	}
	if resp.StatusCode() != 200 {
		return errors.Errorf("symbolicator: HTTPS fetch %s: status %d", d.url(b), resp.StatusCode())
	}
	if err := os.WriteFile(dst, resp.Body(), 0o644); err != nil {
		return err
	}

	return extractIfNeeded(dst, scratch)
}

func extractIfNeeded(archive, scratch string) error {
	marker := archive + ".extracted"
	if _, err := os.Stat(marker); err == nil {
		return nil
	}
	if err := extractZip(archive, scratch); err != nil {
		return err
	}
	return os.WriteFile(marker, nil, 0o644)
}

// modExt is the extension identifying a native module worth indexing.
const modExt = ".so"

// listModules walks scratch for native modules (spec.md §4.9 "getModules",
// grounded on karrick/godirwalk's fast directory-scan idiom).
func listModules(scratch string) ([]string, error) {
	var mods []string
	err := godirwalk.Walk(scratch, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			if strings.HasSuffix(path, modExt) {
				mods = append(mods, path)
			}
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "symbolicator: scan scratch dir")
	}
	return mods, nil
}

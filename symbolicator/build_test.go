package symbolicator

import "testing"

func TestFromBuildNightly(t *testing.T) {
	b, ok := FromBuild(BuildInfo{
		AppName: "Firefox", AppVersion: "60.0", AppBuildID: "60.0-20180601120000",
		AppUpdateChannel: "nightly", Platform: "Linux", Arch: "x86-64",
	})
	if !ok {
		t.Fatalf("expected ok")
	}
	if b.Repo != "mozilla-central" {
		t.Fatalf("repo = %q, want mozilla-central", b.Repo)
	}
	if b.BuildY != "2018" || b.BuildM != "06" || b.BuildD != "01" {
		t.Fatalf("build date = %s-%s-%s", b.BuildY, b.BuildM, b.BuildD)
	}
	if b.OSArch != "linux-x86_64" {
		t.Fatalf("OSArch = %q", b.OSArch)
	}
	if b.SymArch != "x86_64" {
		t.Fatalf("SymArch = %q", b.SymArch)
	}
}

func TestFromBuildNightlyPrefixChannel(t *testing.T) {
	b, ok := FromBuild(BuildInfo{
		AppName: "Fennec", AppVersion: "39.0", AppBuildID: "20150530120000",
		AppUpdateChannel: "nightly-custom-repo", Arch: "armv7",
	})
	if !ok {
		t.Fatalf("expected ok")
	}
	if b.Repo != "custom-repo" {
		t.Fatalf("repo = %q, want custom-repo", b.Repo)
	}
	if b.SymArch != "arm" {
		t.Fatalf("SymArch = %q, want arm", b.SymArch)
	}
}

func TestFromBuildUnknownProductRejected(t *testing.T) {
	if _, ok := FromBuild(BuildInfo{AppName: "Thunderbird"}); ok {
		t.Fatalf("expected reject for an unrecognized appName")
	}
}

func TestFromBuildUnknownChannelRejected(t *testing.T) {
	if _, ok := FromBuild(BuildInfo{AppName: "Firefox", AppBuildID: "20180601120000", AppUpdateChannel: "release"}); ok {
		t.Fatalf("expected reject for a channel with no repo mapping")
	}
}

func TestFromBuildMalformedBuildIDRejected(t *testing.T) {
	if _, ok := FromBuild(BuildInfo{AppName: "Firefox", AppBuildID: "not-a-date", AppUpdateChannel: "nightly"}); ok {
		t.Fatalf("expected reject for a malformed appBuildID")
	}
}

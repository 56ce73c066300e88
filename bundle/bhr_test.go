package bundle

import (
	"encoding/json"
	"testing"

	"github.com/mozilla-telemetry/hangreport/aggval"
	"github.com/mozilla-telemetry/hangreport/bhr"
	"github.com/mozilla-telemetry/hangreport/rep"
)

func hangTree(field, dimVal, infoKey, infoVal string, v aggval.Value) aggval.Tree {
	return aggval.Tree{
		field: {dimVal: {infoKey: {infoVal: v}}},
	}
}

func TestBuildBHRHangRecordBecomesMainThreadAndDim(t *testing.T) {
	records := []bhr.OutputRecord{
		{
			Key:           bhr.Key{Kind: bhr.KeyHang, Thread: "Gecko"},
			FingerprintID: "fp-1",
			Representative: &rep.Candidate{
				PseudoStack: []string{"p:frame_a", "p:frame_b"},
			},
			Tree: hangTree("appName", "Fenix", "os", "android", aggval.Int(3)),
		},
	}
	dir := t.TempDir()
	idx, err := BuildBHR(dir, records)
	if err != nil {
		t.Fatalf("BuildBHR: %v", err)
	}
	if idx.Dimensions["appName"] == "" {
		t.Fatalf("expected appName dim file, got %+v", idx.Dimensions)
	}
	if idx.Sessions["appName"] == "" {
		t.Fatalf("expected appName session file, got %+v", idx.Sessions)
	}

	var mainThreads map[string][]ThreadEntry
	readGZJSON(t, dir+"/main_thread.json.gz", &mainThreads)
	entry := mainThreads["fp-1"]
	if len(entry) != 1 {
		t.Fatalf("expected 1 main thread entry, got %+v", entry)
	}
	want := []string{"p:frame_a", "p:frame_b", "p:Gecko"}
	if len(entry[0].Stack) != len(want) {
		t.Fatalf("stack = %+v, want %+v", entry[0].Stack, want)
	}
	for i, f := range want {
		if entry[0].Stack[i] != f {
			t.Fatalf("stack[%d] = %q, want %q", i, entry[0].Stack[i], f)
		}
	}
}

func TestBuildBHRHangRecordWithoutRepresentativeSkipped(t *testing.T) {
	records := []bhr.OutputRecord{
		{
			Key:            bhr.Key{Kind: bhr.KeyHang, Thread: "Gecko"},
			FingerprintID:  "fp-2",
			Representative: nil,
			Tree:           hangTree("appName", "Fenix", "os", "android", aggval.Int(1)),
		},
	}
	dir := t.TempDir()
	if _, err := BuildBHR(dir, records); err != nil {
		t.Fatalf("BuildBHR: %v", err)
	}
	var mainThreads map[string][]ThreadEntry
	readGZJSON(t, dir+"/main_thread.json.gz", &mainThreads)
	if _, ok := mainThreads["fp-2"]; ok {
		t.Fatalf("expected no entry for record without a representative, got %+v", mainThreads)
	}
}

func TestBuildBHRUptimeAndActivityTagSessions(t *testing.T) {
	records := []bhr.OutputRecord{
		{
			Key:  bhr.Key{Kind: bhr.KeyUptime, Thread: "Gecko"},
			Tree: hangTree("appName", "Fenix", "os", "android", aggval.Int(10)),
		},
		{
			Key:  bhr.Key{Kind: bhr.KeyTotalUptime},
			Tree: hangTree("appName", "Fenix", "os", "android", aggval.Int(20)),
		},
		{
			Key:  bhr.Key{Kind: bhr.KeyActivity, Thread: "Gecko"},
			Tree: hangTree("appName", "Fenix", "os", "android", aggval.Int(30)),
		},
	}
	dir := t.TempDir()
	idx, err := BuildBHR(dir, records)
	if err != nil {
		t.Fatalf("BuildBHR: %v", err)
	}

	var sessions map[string]map[string]json.RawMessage
	readGZJSON(t, dir+"/"+idx.Sessions["appName"], &sessions)
	byTag := sessions["Fenix"]
	for _, tag := range []string{"uptime:Gecko", "uptime", "activity:Gecko"} {
		if _, ok := byTag[tag]; !ok {
			t.Fatalf("missing session tag %q, got %+v", tag, byTag)
		}
	}
}

func TestAssembleBHRWritesIndex(t *testing.T) {
	records := []bhr.OutputRecord{
		{
			Key:            bhr.Key{Kind: bhr.KeyHang, Thread: "Gecko"},
			FingerprintID:  "fp-3",
			Representative: &rep.Candidate{PseudoStack: []string{"p:x"}},
			Tree:           hangTree("appName", "Fenix", "os", "android", aggval.Int(1)),
		},
	}
	dir := t.TempDir()
	if err := AssembleBHR(dir, records); err != nil {
		t.Fatalf("AssembleBHR: %v", err)
	}
	var idx Index
	readJSON(t, dir+"/index.json", &idx)
	if idx.Dimensions["appName"] == "" || idx.Sessions["appName"] == "" {
		t.Fatalf("index.json incomplete: %+v", idx)
	}
}

package main

import (
	"context"
	"io"
	"testing"

	"github.com/mozilla-telemetry/hangreport/mrengine"
)

type fakeSource struct {
	recs []mrengine.Record
	pos  int
}

func (f *fakeSource) Next(ctx context.Context) (mrengine.Record, error) {
	if f.pos >= len(f.recs) {
		return mrengine.Record{}, io.EOF
	}
	r := f.recs[f.pos]
	f.pos++
	return r, nil
}

type fakeStats struct {
	inc     []string
	dropped []string
}

func (f *fakeStats) Inc(name string) { f.inc = append(f.inc, name) }
func (f *fakeStats) IncWith(name string, vlabs map[string]string) {
	f.dropped = append(f.dropped, name)
}

func recordWithDate(date string) mrengine.Record {
	dims := make([]string, len(dummyDims))
	copy(dims, dummyDims)
	dims[submissionDateIdx] = date
	return mrengine.Record{RawKey: date, RawDims: dims}
}

var dummyDims = []string{"Firefox", "60.0", "x86", "4", "release", "00000000"}

func TestDateRangeSourceKeepsInRangeRecords(t *testing.T) {
	src := &fakeSource{recs: []mrengine.Record{
		recordWithDate("20180105"),
	}}
	st := &fakeStats{}
	filtered := filterByDate(src, "20180101", "20180107", st)

	rec, err := filtered.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.RawKey != "20180105" {
		t.Fatalf("got %s, want 20180105", rec.RawKey)
	}
	if len(st.inc) != 1 {
		t.Fatalf("expected one read-count increment, got %d", len(st.inc))
	}
}

func TestDateRangeSourceDropsOutOfRangeRecords(t *testing.T) {
	src := &fakeSource{recs: []mrengine.Record{
		recordWithDate("20171231"),
		recordWithDate("20180108"),
		recordWithDate("20180103"),
	}}
	st := &fakeStats{}
	filtered := filterByDate(src, "20180101", "20180107", st)

	rec, err := filtered.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.RawKey != "20180103" {
		t.Fatalf("got %s, want the one in-range record 20180103", rec.RawKey)
	}
	if len(st.dropped) != 2 {
		t.Fatalf("expected two dropped-count increments, got %d", len(st.dropped))
	}
}

func TestDateRangeSourcePropagatesEOF(t *testing.T) {
	src := &fakeSource{}
	filtered := filterByDate(src, "20180101", "20180107", nil)
	if _, err := filtered.Next(context.Background()); err != io.EOF {
		t.Fatalf("got %v, want io.EOF", err)
	}
}

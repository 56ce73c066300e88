package main

import (
	"context"

	"github.com/mozilla-telemetry/hangreport/config"
	"github.com/mozilla-telemetry/hangreport/mrengine"
	"github.com/mozilla-telemetry/hangreport/ping"
	"github.com/mozilla-telemetry/hangreport/pingstore"
	"github.com/mozilla-telemetry/hangreport/stats"
)

// statsTracker is the subset of the stats runner a Source wrapper needs;
// declared locally so callers can pass nil when metrics are disabled.
type statsTracker interface {
	Inc(name string)
	IncWith(name string, vlabs map[string]string)
}

var submissionDateIdx = indexOf(ping.DimensionOrder, "submission_date")

func indexOf(dims []string, name string) int {
	for i, d := range dims {
		if d == name {
			return i
		}
	}
	return -1
}

// dateRangeSource wraps an mrengine.Source, dropping any record whose
// submission_date dimension falls outside [from, to] (both YYYYMMDD, so a
// plain string comparison is also a chronological one). The job driver
// lists a provider prefix broader than one date window; this is what turns
// that into the date-scoped stream the pipelines expect.
type dateRangeSource struct {
	src      mrengine.Source
	from, to string
	stats    statsTracker
}

func filterByDate(src mrengine.Source, from, to string, st statsTracker) mrengine.Source {
	return &dateRangeSource{src: src, from: from, to: to, stats: st}
}

func (s *dateRangeSource) Next(ctx context.Context) (mrengine.Record, error) {
	for {
		rec, err := s.src.Next(ctx)
		if err != nil {
			return mrengine.Record{}, err
		}
		if s.stats != nil {
			s.stats.Inc(stats.PingsReadCount)
		}
		if submissionDateIdx < 0 || submissionDateIdx >= len(rec.RawDims) {
			return rec, nil
		}
		date := rec.RawDims[submissionDateIdx]
		if date < s.from || date > s.to {
			if s.stats != nil {
				s.stats.IncWith(stats.PingsDroppedCount, map[string]string{stats.VlabReason: "submission-date-out-of-range"})
			}
			continue
		}
		return rec, nil
	}
}

// newBackend constructs the pingstore.Backend cfg.Provider selects.
func newBackend(ctx context.Context, cfg config.Config) (pingstore.Backend, error) {
	switch cfg.Provider {
	case "gcs":
		return pingstore.NewGCSBackend(ctx, cfg.Bucket)
	case "azure":
		return pingstore.NewAzureBackend(cfg.Bucket)
	default:
		return pingstore.NewS3Backend(ctx, cfg.Bucket)
	}
}

// newDateFilteredSource builds the full source chain a pass reads from:
// the cloud backend for cfg.Provider, listing prefix, date-scoped to
// [from, to].
func newDateFilteredSource(ctx context.Context, cfg config.Config, prefix, from, to string, st statsTracker) (mrengine.Source, error) {
	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	src, err := pingstore.NewSource(ctx, backend, prefix)
	if err != nil {
		return nil, err
	}
	return filterByDate(src, from, to, st), nil
}

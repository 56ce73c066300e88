// Package pingstore implements the ping storage layer spec.md treats as an
// external collaborator (§1: "an object store yielding (partition_key,
// dimensions, raw_ping_bytes) tuples"). A Backend lists and fetches objects
// from one cloud provider; Source turns any Backend into the mrengine.Source
// the CORE pipelines already consume, so bhr/anr never know which cloud
// holds the pings.
package pingstore

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/mozilla-telemetry/hangreport/mrengine"
)

// Backend lists and fetches objects under a prefix. S3Backend, GCSBackend,
// and AzureBackend are the concrete adapters.
type Backend interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// Source adapts a Backend into an mrengine.Source, one ping per object key.
// It lists eagerly at construction time: a run processes a fixed date-range
// prefix that doesn't grow while the job is in flight, so there's no benefit
// to paging the key list lazily.
type Source struct {
	backend Backend
	prefix  string
	keys    []string
	pos     int
}

// NewSource lists every object under prefix and returns a Source ready to
// be handed to mrengine.Run.
func NewSource(ctx context.Context, b Backend, prefix string) (*Source, error) {
	keys, err := b.List(ctx, prefix)
	if err != nil {
		return nil, errors.Wrap(err, "pingstore: list")
	}
	return &Source{backend: b, prefix: prefix, keys: keys}, nil
}

// Next implements mrengine.Source.
func (s *Source) Next(ctx context.Context) (mrengine.Record, error) {
	if s.pos >= len(s.keys) {
		return mrengine.Record{}, io.EOF
	}
	key := s.keys[s.pos]
	s.pos++

	body, err := s.backend.Get(ctx, key)
	if err != nil {
		return mrengine.Record{}, errors.Wrapf(err, "pingstore: get %s", key)
	}
	return mrengine.Record{
		RawKey:   key,
		RawDims:  KeyDims(s.prefix, key),
		RawValue: body,
	}, nil
}

// Len reports how many objects this Source will yield, for progress
// reporting in cmd/hangrd.
func (s *Source) Len() int { return len(s.keys) }

// KeyDims splits an object key's path segments below prefix into the
// dimension tuple a mapper's ping.FilterDimensions expects (spec.md §3
// "Dimensions"), dropping the filename itself: the dimensions are everything
// between the prefix and the filename, in path order. Consumers read them
// positionally against ping.DimensionOrder, so a full tuple comes from keys
// laid out as
// <prefix>/<reason>/<appName>/<appUpdateChannel>/<appVersion>/<appBuildID>/<submission_date>/<file>.
func KeyDims(prefix, key string) []string {
	rel := strings.TrimPrefix(key, prefix)
	rel = strings.Trim(rel, "/")
	if rel == "" {
		return nil
	}
	parts := strings.Split(rel, "/")
	if len(parts) <= 1 {
		return nil
	}
	return parts[:len(parts)-1]
}

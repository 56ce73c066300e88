package mrengine

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
)

type sliceSource struct {
	recs []Record
	idx  int
}

func (s *sliceSource) Next(ctx context.Context) (Record, error) {
	if s.idx >= len(s.recs) {
		return Record{}, io.EOF
	}
	r := s.recs[s.idx]
	s.idx++
	return r, nil
}

type countMapper struct{}

func (countMapper) Map(ctx context.Context, rec Record, emit Emitter) error {
	emit.Emit(string(rec.RawValue), 1)
	return nil
}

type sumReducer struct{}

func (sumReducer) Reduce(ctx context.Context, key string, values []any, emit Emitter) error {
	var n int
	for _, v := range values {
		n += v.(int)
	}
	emit.Emit(key, n)
	return nil
}

type memSink struct {
	mu   sync.Mutex
	rows map[string]string
}

func (s *memSink) Write(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows == nil {
		s.rows = map[string]string{}
	}
	s.rows[key] = value
	return nil
}

func TestRunWordCount(t *testing.T) {
	words := []string{"a", "b", "a", "c", "b", "a"}
	recs := make([]Record, len(words))
	for i, w := range words {
		recs[i] = Record{RawKey: fmt.Sprintf("%d", i), RawValue: []byte(w)}
	}
	src := &sliceSource{recs: recs}
	sink := &memSink{}

	err := Run(context.Background(), Config{NumMappers: 3, NumReducers: 2}, src, countMapper{}, nil, sumReducer{}, sink, func(v any) (string, error) {
		return fmt.Sprintf("%v", v), nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := map[string]string{"a": "3", "b": "2", "c": "1"}
	if len(sink.rows) != len(want) {
		keys := make([]string, 0, len(sink.rows))
		for k := range sink.rows {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		t.Fatalf("got keys %v, want %v", keys, want)
	}
	for k, v := range want {
		if sink.rows[k] != v {
			t.Fatalf("key %q: got %q want %q", k, sink.rows[k], v)
		}
	}
}

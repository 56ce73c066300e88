// Package mrengine defines the abstract map/reduce contract the BHR and
// ANR pipelines are authored against (spec.md §2 "MapReduce engine
// adapter") and a concrete in-memory local engine that satisfies it.
// CORE packages (bhr, anr) only ever import the interfaces in this file;
// swapping Engine for a different concrete implementation (a cluster
// scheduler, say) requires no change to them.
package mrengine

import (
	"context"
	"io"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mozilla-telemetry/hangreport/cmn/nlog"
)

// KV is one emitted (key, value) pair. Value is an opaque payload the
// concrete job (bhr/anr) knows how to interpret; the engine never inspects
// it beyond passing it through combine/reduce.
type KV struct {
	Key   string
	Value any
}

// Emitter is how a Mapper or Reducer hands output back to the engine.
type Emitter interface {
	Emit(key string, value any)
}

// Record is one raw input record: an engine-assigned key (opaque id), the
// partitioning dimension tuple, and the raw payload bytes (spec.md §3
// "Dimensions").
type Record struct {
	RawKey   string
	RawDims  []string
	RawValue []byte
}

// Source yields Records until exhausted (io.EOF).
type Source interface {
	Next(ctx context.Context) (Record, error)
}

// Mapper is the per-record transform of a job (spec.md §4.4's "Map").
type Mapper interface {
	Map(ctx context.Context, rec Record, emit Emitter) error
}

// Combiner optionally pre-merges the values collected for one key before
// the Reducer sees them (spec.md §2's "optional combiner"). Run calls it in
// the reduce phase, on the values gathered from every mapper; it does not
// combine within a single mapper's output or before the shuffle. Returning
// ok=false tells the engine to pass values through uncombined.
type Combiner interface {
	Combine(key string, values []any) (combined any, ok bool)
}

// Reducer receives every value ever emitted for a key, in engine-defined
// (i.e. unspecified) order, and produces final output lines (spec.md §4.4's
// "Combine/Reduce", whose merges are required to be associative and
// commutative so that order never matters).
type Reducer interface {
	Reduce(ctx context.Context, key string, values []any, emit Emitter) error
}

// Sink receives final (key, value) string pairs, one JSONL line per call
// (spec.md §4.4 "Output a JSONL line key_json \t value_json").
type Sink interface {
	Write(key, value string) error
}

// Config mirrors the CLI surface the driver exposes for the engine
// (spec.md §5 "--num-mappers 32 --num-reducers 8"); this local engine
// consumes NumMappers/NumReducers directly as in-process worker counts
// rather than shelling out to a separate scheduler process (see
// DESIGN.md's Open Question decision on engine invocation).
type Config struct {
	NumMappers  int
	NumReducers int
	// CombineEvery is the value count above which Run passes a key's values
	// through the Combiner before reducing them. Every emitted value is held
	// in memory until the reduce phase; the Combiner does not run while
	// values accumulate. Zero disables combining.
	CombineEvery int
}

func (c Config) normalized() Config {
	if c.NumMappers <= 0 {
		c.NumMappers = 1
	}
	if c.NumReducers <= 0 {
		c.NumReducers = 1
	}
	return c
}

type shardEmitter struct {
	mu     *sync.Mutex
	values map[string][]any
}

func (e *shardEmitter) Emit(key string, value any) {
	e.mu.Lock()
	e.values[key] = append(e.values[key], value)
	e.mu.Unlock()
}

type sinkEmitter struct {
	key  string
	sink Sink
	enc  func(any) (string, error)
}

func (e *sinkEmitter) Emit(key string, value any) {
	s, err := e.enc(value)
	if err != nil {
		nlog.Warningf("mrengine: encode failed for key %q: %v", key, err)
		return
	}
	if err := e.sink.Write(key, s); err != nil {
		nlog.Warningf("mrengine: sink write failed for key %q: %v", key, err)
	}
}

// Run drives one full map -> shuffle -> reduce pass: NumMappers workers
// pull Records from src and invoke mapper.Map concurrently into sharded,
// mutex-protected accumulators; once the source is exhausted, NumReducers
// workers partition the accumulated keys and invoke reducer.Reduce,
// optionally pre-combining each key's values first. encode renders a
// reducer-emitted value to its final JSONL string form.
func Run(ctx context.Context, cfg Config, src Source, mapper Mapper, combiner Combiner, reducer Reducer, sink Sink, encode func(any) (string, error)) error {
	cfg = cfg.normalized()

	shards := make([]*shardEmitter, cfg.NumReducers)
	for i := range shards {
		shards[i] = &shardEmitter{mu: &sync.Mutex{}, values: make(map[string][]any)}
	}

	g, gctx := errgroup.WithContext(ctx)
	recordsCh := make(chan Record, cfg.NumMappers*4)

	g.Go(func() error {
		defer close(recordsCh)
		for {
			rec, err := src.Next(gctx)
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			select {
			case recordsCh <- rec:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	for w := 0; w < cfg.NumMappers; w++ {
		g.Go(func() error {
			for rec := range recordsCh {
				// Each mapper worker fans its emitted keys out to the
				// reducer shard owning that key, so a key's values always
				// land in one shard regardless of which worker saw them.
				emit := &routingEmitter{shards: shards}
				if err := mapper.Map(gctx, rec, emit); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	rg, rgctx := errgroup.WithContext(ctx)
	for i := range shards {
		shard := shards[i]
		rg.Go(func() error {
			keys := make([]string, 0, len(shard.values))
			for k := range shard.values {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, key := range keys {
				values := shard.values[key]
				if combiner != nil && cfg.CombineEvery > 0 && len(values) > cfg.CombineEvery {
					if combined, ok := combiner.Combine(key, values); ok {
						values = []any{combined}
					}
				}
				out := &sinkEmitter{key: key, sink: sink, enc: encode}
				if err := reducer.Reduce(rgctx, key, values, out); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return rg.Wait()
}

// routingEmitter hashes a key to a shard deterministically so the same key
// always accumulates in the same shard no matter which mapper emits it.
type routingEmitter struct {
	shards []*shardEmitter
}

func (e *routingEmitter) Emit(key string, value any) {
	e.shards[shardFor(key, len(e.shards))].Emit(key, value)
}

func shardFor(key string, n int) int {
	if n <= 1 {
		return 0
	}
	var h uint32 = 2166136261
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= 16777619
	}
	return int(h % uint32(n))
}

package bhr_test

import (
	"context"
	"fmt"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mozilla-telemetry/hangreport/bhr"
	"github.com/mozilla-telemetry/hangreport/cmn/cos"
	"github.com/mozilla-telemetry/hangreport/mrengine"
)

// sliceSource replays a fixed list of Records, the fixture driver every
// pass in this spec reads from instead of a live pingstore backend.
type sliceSource struct {
	recs []mrengine.Record
	pos  int
}

func (s *sliceSource) Next(ctx context.Context) (mrengine.Record, error) {
	if s.pos >= len(s.recs) {
		return mrengine.Record{}, io.EOF
	}
	r := s.recs[s.pos]
	s.pos++
	return r, nil
}

// collectingSink appends every (key, value) line a pass writes, for
// end-to-end assertions without needing bundle assembly.
type collectingSink struct {
	lines []string
}

func (s *collectingSink) Write(key, value string) error {
	s.lines = append(s.lines, value)
	return nil
}

func quoteList(ss []string) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(parts, ",")
}

// bhrPing builds a minimal threadHangStats ping body: one thread named
// Gecko, with a single hang when stack is non-nil.
func bhrPing(appName string, uptime float64, stack []string) []byte {
	hangsJSON := "[]"
	if stack != nil {
		hangsJSON = fmt.Sprintf(`[{"stack": [%s], "histogram": {"values": {"8": 3}}}]`, quoteList(stack))
	}
	return []byte(fmt.Sprintf(`{
		"simpleMeasurements": {"uptime": %v},
		"info": {"appName": %q, "appVersion": "60.0", "appUpdateChannel": "release", "appBuildID": "20180101010101"},
		"threadHangStats": [{"name": "Gecko", "activity": {"values": {}}, "hangs": %s}]
	}`, uptime, appName, hangsJSON))
}

func bhrDims() []string {
	return []string{"saved-session", "Firefox", "release", "60.0", "20180101010101", "20180105"}
}

var _ = Describe("BHR pipeline", func() {
	It("carries a hang stack through summary, filter, and data passes into a surviving output record", func() {
		ctx := context.Background()
		mrcfg := mrengine.Config{NumMappers: 2, NumReducers: 2}

		// Three sessions shape the quantile bounds (50, 120, 200 minutes);
		// only the middle one carries the hang this spec tracks.
		recs := []mrengine.Record{
			{RawKey: "p1", RawDims: bhrDims(), RawValue: bhrPing("Firefox", 50, nil)},
			{RawKey: "p2", RawDims: bhrDims(), RawValue: bhrPing("Firefox", 120, []string{"A", "A", "B"})},
			{RawKey: "p3", RawDims: bhrDims(), RawValue: bhrPing("Firefox", 200, nil)},
		}

		summaryMapper := bhr.SummaryMapper{Profile: bhr.BHRProfile}
		bounds, err := bhr.RunSummaryPass(ctx, mrcfg, &sliceSource{recs: recs}, summaryMapper, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(bounds.InRange("appName", "Firefox", 120)).To(BeTrue())

		filterMapper := bhr.FilterMapper{Profile: bhr.BHRProfile, Bounds: bounds}
		entries, err := bhr.RunFilterPass(ctx, mrcfg, &sliceSource{recs: recs}, filterMapper, 10)
		Expect(err).NotTo(HaveOccurred())

		filterSet := bhr.BuildFilterSet(entries)
		Expect(filterSet.Contains("appName", "Firefox", "Gecko", []string{"A", "B"})).To(BeTrue())

		dataMapper := bhr.DataMapper{Profile: bhr.BHRProfile, Filter: filterSet}
		sink := &collectingSink{}
		err = bhr.RunDataPass(ctx, mrcfg, &sliceSource{recs: recs}, dataMapper, 1, 10, sink)
		Expect(err).NotTo(HaveOccurred())
		Expect(sink.lines).NotTo(BeEmpty())

		type decoded struct {
			Key struct {
				Kind   int
				Thread string
				Stack  []string
			}
			Count int64
		}
		foundHang := false
		for _, line := range sink.lines {
			var out decoded
			Expect(cos.JSON.UnmarshalFromString(line, &out)).To(Succeed())
			if out.Key.Kind == int(bhr.KeyHang) && out.Key.Thread == "Gecko" {
				foundHang = true
				Expect(out.Count).To(BeNumerically(">=", 1))
				Expect(out.Key.Stack).To(Equal([]string{"A", "B"}))
			}
		}
		Expect(foundHang).To(BeTrue(), "expected a surviving hang OutputRecord among: %v", sink.lines)
	})
})

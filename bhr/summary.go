package bhr

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mozilla-telemetry/hangreport/cmn/cos"
)

// SessionBounds is SUMMARY[dim][dimVal] = (lower, upper), loaded from
// summary.txt (spec.md §4.5): only the first and last entries of the
// written stats array are clamp bounds, everything between is ignored.
type SessionBounds map[string]map[string]Bounds

type Bounds struct {
	Lower float64
	Upper float64
}

// InRange reports whether uptime falls within the clamp bounds for
// (dim, dimVal); an unknown (dim, dimVal) pair has no bound and passes.
func (sb SessionBounds) InRange(dim, dimVal string, uptime float64) bool {
	dimVals, ok := sb[dim]
	if !ok {
		return true
	}
	b, ok := dimVals[dimVal]
	if !ok {
		return true
	}
	return uptime >= b.Lower && uptime <= b.Upper
}

// Clamp restricts uptime to [lower, upper] for (dim, dimVal); a pair with
// no recorded bounds passes uptime through unchanged.
func (sb SessionBounds) Clamp(dim, dimVal string, uptime float64) float64 {
	dimVals, ok := sb[dim]
	if !ok {
		return uptime
	}
	b, ok := dimVals[dimVal]
	if !ok {
		return uptime
	}
	if uptime < b.Lower {
		return b.Lower
	}
	if uptime > b.Upper {
		return b.Upper
	}
	return uptime
}

// WriteSummary writes summary.txt: one TSV line per (dim,dimVal), key_json
// \t stats_json, stats_json = [lower, upper].
func WriteSummary(w io.Writer, sb SessionBounds) error {
	bw := bufio.NewWriter(w)
	for dim, dimVals := range sb {
		for dimVal, b := range dimVals {
			keyJSON := cos.MustMarshal([]string{dim, dimVal})
			statsJSON := cos.MustMarshal([]float64{b.Lower, b.Upper})
			if _, err := fmt.Fprintf(bw, "%s\t%s\n", keyJSON, statsJSON); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// ReadSummary parses summary.txt back into a SessionBounds map.
func ReadSummary(r io.Reader) (SessionBounds, error) {
	sb := make(SessionBounds)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		var key []string
		if err := cos.JSON.UnmarshalFromString(parts[0], &key); err != nil || len(key) != 2 {
			continue
		}
		var stats []float64
		if err := cos.JSON.UnmarshalFromString(parts[1], &stats); err != nil || len(stats) == 0 {
			continue
		}
		dim, dimVal := key[0], key[1]
		if sb[dim] == nil {
			sb[dim] = make(map[string]Bounds)
		}
		sb[dim][dimVal] = Bounds{Lower: stats[0], Upper: stats[len(stats)-1]}
	}
	return sb, scanner.Err()
}

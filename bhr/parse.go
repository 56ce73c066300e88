package bhr

import (
	"strings"

	"github.com/mozilla-telemetry/hangreport/cmn/cos"
)

// rawPing is the subset of a ping's JSON body the BHR pipeline reads.
type rawPing struct {
	SimpleMeasurements struct {
		Uptime           float64 `json:"uptime"`
		DebuggerAttached any     `json:"debuggerAttached"`
	} `json:"simpleMeasurements"`
	Info            map[string]any `json:"info"`
	ThreadHangStats []struct {
		Name     string `json:"name"`
		Activity struct {
			Values map[string]any `json:"values"`
		} `json:"activity"`
		Hangs []struct {
			Stack     []string `json:"stack"`
			Histogram struct {
				Values map[string]any `json:"values"`
			} `json:"histogram"`
		} `json:"hangs"`
	} `json:"threadHangStats"`
}

// hasThreadHangStats is the cheap byte-level prefilter spec.md §4.4
// specifies before paying for a JSON parse.
func hasThreadHangStats(raw []byte) bool {
	return strings.Contains(string(raw), `"threadHangStats":`)
}

func parsePing(raw []byte) (*rawPing, bool) {
	if !hasThreadHangStats(raw) {
		return nil, false
	}
	var p rawPing
	if err := cos.JSON.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

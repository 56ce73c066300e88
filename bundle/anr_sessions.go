package bundle

import "github.com/mozilla-telemetry/hangreport/anr"

// BuildANRSessions assembles the ANR sessions job's output into
// ses_<field>.json.gz files: one per dimension, keyed by dimVal, carrying
// the clamped total uptime per infoKey/infoVal under the "uptime" tag
// (spec.md §6, ported from fetchanr.py's processSessions).
func BuildANRSessions(dir string, outputs []anr.SessionsOutput) (map[string]string, error) {
	type sessionEntry struct {
		Uptime map[string]map[string]int64 `json:"uptime"`
	}

	byField := make(map[string]map[string]sessionEntry, len(outputs))
	for _, o := range outputs {
		dst := byField[o.Dim]
		if dst == nil {
			dst = make(map[string]sessionEntry, len(outputs))
			byField[o.Dim] = dst
		}
		dst[o.DimVal] = sessionEntry{Uptime: o.Info}
	}

	sessions := make(map[string]string, len(byField))
	for field, perDimVal := range byField {
		fn, err := writeGZJSON(dir, "ses_", field, perDimVal)
		if err != nil {
			return nil, err
		}
		sessions[field] = fn
	}
	return sessions, nil
}

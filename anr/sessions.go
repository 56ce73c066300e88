package anr

import (
	"context"

	"github.com/mozilla-telemetry/hangreport/histogram"
	"github.com/mozilla-telemetry/hangreport/mrengine"
	"github.com/mozilla-telemetry/hangreport/ping"
)

// sessionsKeySep separates a dimension name from its value in the sessions
// job's reducer key, mirroring mapreduce-anr-sessions.py's (dim_name,
// dim_val) tuple key.
const sessionsKeySep = "\x1f"

func encodeSessionsKey(dim, val string) string {
	return dim + sessionsKeySep + val
}

func decodeSessionsKey(s string) (dim, val string) {
	for i := 0; i < len(s); i++ {
		if s[i] == sessionsKeySep[0] {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

// sessionSample is one ping's contribution: its raw uptime (minutes) plus
// the normalized info bag it will later be fanned out across.
type sessionSample struct {
	Uptime float64
	Info   map[string]string
}

// SessionsMapper implements the sessions job's map step (spec.md §4.6(c)):
// every ping with an androidANR report contributes one (dim, dimVal) ->
// (uptime, info) sample per dimension it belongs to.
type SessionsMapper struct {
	Profile ping.Profile
}

func (m SessionsMapper) Map(ctx context.Context, rec mrengine.Record, emit mrengine.Emitter) error {
	var raw struct {
		Info               map[string]any `json:"info"`
		AndroidANR         string         `json:"androidANR"`
		SimpleMeasurements struct {
			Uptime int64 `json:"uptime"`
		} `json:"simpleMeasurements"`
	}
	if err := decodeJSON(rec.RawValue, &raw); err != nil || raw.AndroidANR == "" {
		return nil
	}
	if raw.SimpleMeasurements.Uptime < 0 {
		return nil
	}

	info := ping.Raw(raw.Info)
	ping.Adjust(info)
	filtered := ping.Filter(m.Profile, info)
	dims := ping.FilterDimensions(m.Profile, rec.RawDims, filtered)

	sample := sessionSample{Uptime: float64(raw.SimpleMeasurements.Uptime), Info: filtered}
	for dim, dimVal := range dims {
		emit.Emit(encodeSessionsKey(dim, dimVal), sample)
	}
	return nil
}

// SessionsReducer implements the sessions job's reduce step: estimate the
// 10-quantile [lower, upper] bound over every sample's uptime for this
// (dim, dimVal), clamp each sample to that range, then fan the clamped
// uptime out across info keys (spec.md §4.6(c), grounded on
// mapreduce-anr-sessions.py's reduce()).
type SessionsReducer struct {
	Quantiles int
}

// SessionsOutput is one (dim, dimVal)'s reducer output: the clamp bounds
// used and the total clamped uptime per infoKey/infoVal.
type SessionsOutput struct {
	Dim    string
	DimVal string
	Lower  float64
	Upper  float64
	Info   map[string]map[string]int64
}

func (r SessionsReducer) Reduce(ctx context.Context, key string, values []any, emit mrengine.Emitter) error {
	if len(values) == 0 {
		return nil
	}
	dim, dimVal := decodeSessionsKey(key)

	quantiles := r.Quantiles
	if quantiles <= 0 {
		quantiles = 10
	}

	uptimes := make([]float64, 0, len(values))
	samples := make([]sessionSample, 0, len(values))
	for _, v := range values {
		s := v.(sessionSample)
		uptimes = append(uptimes, s.Uptime)
		samples = append(samples, s)
	}
	lower, upper := histogram.EstQuantile(uptimes, quantiles)

	info := make(map[string]map[string]int64)
	for _, s := range samples {
		clamped := clamp(s.Uptime, lower, upper)
		for infoKey, infoVal := range s.Info {
			m := info[infoKey]
			if m == nil {
				m = make(map[string]int64)
				info[infoKey] = m
			}
			m[infoVal] += int64(clamped)
		}
	}

	emit.Emit(key, SessionsOutput{Dim: dim, DimVal: dimVal, Lower: lower, Upper: upper, Info: info})
	return nil
}

func clamp(v, lower, upper float64) float64 {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}

package anr

import (
	"context"
	"strings"

	"github.com/mozilla-telemetry/hangreport/cmn/cos"
	"github.com/mozilla-telemetry/hangreport/mrengine"
	"github.com/mozilla-telemetry/hangreport/ping"
	"github.com/mozilla-telemetry/hangreport/rep"
)

func decodeJSON(raw []byte, v any) error {
	return cos.JSON.Unmarshal(raw, v)
}

const keySep = "\x1f"

func encodeKey(thread string, stack []string) string {
	return thread + keySep + strings.Join(stack, keySep)
}

func decodeKey(s string) (thread string, stack []string) {
	parts := strings.Split(s, keySep)
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}

// mapperRecord is one ANR report's mapper contribution: its slug, the
// restricted dims/info, and the parsed report for reducer-side reuse
// (spec.md §4.6, ported from mapreduce-anr.py's map()).
type mapperRecord struct {
	Slug    string
	Dims    map[string]string
	Info    map[string]string
	RawInfo map[string]any
	Report  *Report
}

// Mapper implements the ANR pipeline's map step.
type Mapper struct {
	Profile ping.Profile
}

func (m Mapper) Map(ctx context.Context, rec mrengine.Record, emit mrengine.Emitter) error {
	var raw struct {
		Info       map[string]any `json:"info"`
		AndroidANR string         `json:"androidANR"`
	}
	if err := decodeJSON(rec.RawValue, &raw); err != nil || raw.AndroidANR == "" {
		return nil
	}
	report := ParseReport(raw.Info, raw.AndroidANR)
	thread, keyStack, ok := DeriveKey(report)
	if !ok {
		return nil
	}

	info := ping.Raw(raw.Info)
	ping.Adjust(info)
	filtered := ping.Filter(m.Profile, info)
	dims := ping.FilterDimensions(m.Profile, rec.RawDims, filtered)

	emit.Emit(encodeKey(thread, keyStack), mapperRecord{
		Slug: rec.RawKey, Dims: dims, Info: filtered, RawInfo: raw.Info, Report: report,
	})
	return nil
}

// MinSamples is the minimum group size mapreduce-anr.py's reducer requires
// before it bothers picking a representative (`len(values) < 5: return`).
const MinSamples = 5

// infoCounts is dim -> dimVal -> infoKey -> infoVal -> occurrence count,
// the ANR reducer's aggregation shape (simpler than BHR's histogram tree:
// every leaf here is a plain tally, never a duration histogram).
type infoCounts map[string]map[string]map[string]map[string]int64

// Reduced is one ANR group's reducer output.
type Reduced struct {
	KeyThread        string
	Info             infoCounts
	Threads          []Thread
	Slugs            []string
	Display          string
	SymbolicatorInfo map[string]any // the representative ping's raw info, for bundle-time native-thread symbolication
}

// Reducer implements the ANR pipeline's reduce step.
type Reducer struct {
	MinSamples int
}

func (r Reducer) Reduce(ctx context.Context, key string, values []any, emit mrengine.Emitter) error {
	minSamples := r.MinSamples
	if minSamples <= 0 {
		minSamples = MinSamples
	}
	if len(values) < minSamples {
		return nil
	}

	thread, _ := decodeKey(key)
	info := make(infoCounts)
	slugs := make([]string, 0, len(values))

	var best *rep.Candidate
	var bestReport *Report
	var bestRawInfo map[string]any

	for _, v := range values {
		rv := v.(mapperRecord)
		slugs = append(slugs, rv.Slug)
		for dimKey, dimVal := range rv.Dims {
			dimVals := info[dimKey]
			if dimVals == nil {
				dimVals = make(map[string]map[string]int64)
				info[dimKey] = dimVals
			}
			infos := dimVals[dimVal]
			if infos == nil {
				infos = make(map[string]int64)
				dimVals[dimVal] = infos
			}
			for infoKey, infoVal := range rv.Info {
				infos[infoKey+"\x00"+infoVal]++
			}
		}

		stackLen := representativeStackLen(rv.Report, thread)
		cand := rep.Candidate{
			PseudoStack: mainStackText(rv.Report),
			Version:     versionOf(rv.Info),
			StackLen:    stackLen,
			Detail:      rv.Report.Detail,
		}
		if best == nil {
			best = &cand
			bestReport = rv.Report
			bestRawInfo = rv.RawInfo
		} else {
			merged := rep.MergeANR(*best, cand)
			best = &merged
			if merged.Detail == cand.Detail {
				bestReport = rv.Report
				bestRawInfo = rv.RawInfo
			}
		}
	}

	out := Reduced{
		KeyThread:        thread,
		Info:             splitInfoCounts(info),
		Slugs:            slugs,
		Display:          thread,
		SymbolicatorInfo: bestRawInfo,
	}
	if bestReport != nil && bestReport.MainThread != nil {
		out.Threads = append([]Thread{*bestReport.MainThread}, bestReport.BackgroundThreads()...)
	}
	emit.Emit(slugs[0], out)
	return nil
}

func mainStackText(r *Report) []string {
	if r == nil || r.MainThread == nil {
		return nil
	}
	return r.MainThread.JavaFrames()
}

func representativeStackLen(r *Report, keyThread string) int {
	if r == nil {
		return 0
	}
	if r.MainThread != nil && r.MainThread.Name == keyThread {
		return len(r.MainThread.Stack)
	}
	if t := r.GetThread(keyThread); t != nil {
		return len(t.Stack)
	}
	return 0
}

func versionOf(info map[string]string) rep.VersionKey {
	return rep.VersionKey{
		Channel: info["appUpdateChannel"],
		Version: info["appVersion"],
		BuildID: info["appBuildID"],
	}
}

// splitInfoCounts unpacks the "infoKey\x00infoVal" compound keys used
// during accumulation back into the nested infoCounts shape.
func splitInfoCounts(in infoCounts) infoCounts {
	out := make(infoCounts, len(in))
	for dimKey, dimVals := range in {
		out[dimKey] = make(map[string]map[string]int64, len(dimVals))
		for dimVal, infos := range dimVals {
			flat := make(map[string]map[string]int64)
			for compound, count := range infos {
				parts := strings.SplitN(compound, "\x00", 2)
				if len(parts) != 2 {
					continue
				}
				infoKey, infoVal := parts[0], parts[1]
				m := flat[infoKey]
				if m == nil {
					m = make(map[string]int64)
					flat[infoKey] = m
				}
				m[infoVal] += count
			}
			out[dimKey][dimVal] = flat
		}
	}
	return out
}

package bundle

import (
	"github.com/mozilla-telemetry/hangreport/aggval"
	"github.com/mozilla-telemetry/hangreport/bhr"
)

// bhrDimValMap is one dimension field's per-slug contribution: dimVal ->
// infoKey -> infoVal -> Value, the dim level of an aggval.Tree peeled off.
type bhrDimValMap = map[string]map[string]map[string]aggval.Value

// BuildBHR assembles one BHR run's output bundle from the data pass's
// surviving output records, ported from fetchbhr.py's processBHR: hang
// keys become main_thread entries and dim_<field> contributions, uptime
// and activity keys become ses_<field> contributions (spec.md §6).
func BuildBHR(dir string, records []bhr.OutputRecord) (*Index, error) {
	idx := newIndex()

	mainThreads := make(map[string][]ThreadEntry, len(records))
	// field -> slug -> dimVal -> infoKey -> infoVal -> Value
	dimsInfo := make(map[string]map[string]bhrDimValMap)
	// field -> dimVal -> tag -> infoKey -> infoVal -> Value
	sessions := make(map[string]map[string]map[string]map[string]map[string]aggval.Value)

	addSession := func(field, dimVal, tag string, infos map[string]map[string]aggval.Value) {
		byDimVal := sessions[field]
		if byDimVal == nil {
			byDimVal = make(map[string]map[string]map[string]map[string]aggval.Value)
			sessions[field] = byDimVal
		}
		byTag := byDimVal[dimVal]
		if byTag == nil {
			byTag = make(map[string]map[string]map[string]aggval.Value)
			byDimVal[dimVal] = byTag
		}
		byTag[tag] = infos
	}

	for _, rec := range records {
		switch rec.Key.Kind {
		case bhr.KeyHang:
			if rec.Representative == nil {
				continue
			}
			slug := rec.FingerprintID
			stack := append(append([]string{}, rec.Representative.PseudoStack...), "p:"+rec.Key.Thread)
			mainThreads[slug] = []ThreadEntry{{Name: "main", Stack: stack}}

			for field, dimVals := range rec.Tree {
				dst := dimsInfo[field]
				if dst == nil {
					dst = make(map[string]bhrDimValMap, len(records))
					dimsInfo[field] = dst
				}
				dst[slug] = dimVals

				for dimVal, infos := range dimVals {
					addSession(field, dimVal, "hangtime", infos)
				}
			}

		case bhr.KeyUptime:
			for field, dimVals := range rec.Tree {
				for dimVal, infos := range dimVals {
					addSession(field, dimVal, "uptime:"+rec.Key.Thread, infos)
				}
			}

		case bhr.KeyTotalUptime:
			for field, dimVals := range rec.Tree {
				for dimVal, infos := range dimVals {
					addSession(field, dimVal, "uptime", infos)
				}
			}

		case bhr.KeyActivity:
			for field, dimVals := range rec.Tree {
				for dimVal, infos := range dimVals {
					addSession(field, dimVal, "activity:"+rec.Key.Thread, infos)
				}
			}
		}
	}

	if _, err := writeGZJSON(dir, "", "main_thread", mainThreads); err != nil {
		return nil, err
	}
	for field, perSlug := range dimsInfo {
		fn, err := writeGZJSON(dir, "dim_", field, perSlug)
		if err != nil {
			return nil, err
		}
		idx.Dimensions[field] = fn
	}
	for field, perDimVal := range sessions {
		fn, err := writeGZJSON(dir, "ses_", field, perDimVal)
		if err != nil {
			return nil, err
		}
		idx.Sessions[field] = fn
	}

	return idx, nil
}

// AssembleBHR runs BuildBHR and writes the resulting index.json, the full
// output-bundle assembly fetchbhr.py's __main__ drives. summary.txt itself
// is written separately via bhr.WriteSummary and is retained alongside
// these files for debugging (spec.md §6).
func AssembleBHR(dir string, records []bhr.OutputRecord) error {
	idx, err := BuildBHR(dir, records)
	if err != nil {
		return err
	}
	return WriteIndex(dir, idx)
}

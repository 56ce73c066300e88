package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli"

	"github.com/mozilla-telemetry/hangreport/bhr"
	"github.com/mozilla-telemetry/hangreport/bundle"
	"github.com/mozilla-telemetry/hangreport/config"
	"github.com/mozilla-telemetry/hangreport/mrengine"
)

// bhrPrefix is where saved-session pings live under the configured bucket;
// the filter/data/summary passes all read this same prefix, date-scoped
// per run (spec.md §4.4, ported from fetchbhr.py's dims[0]).
const bhrPrefix = "telemetry/saved-session/"

var bhrCmd = cli.Command{
	Name:      "bhr",
	Usage:     "aggregate Background Hang Reporter pings for a date range into a dashboard bundle",
	ArgsUsage: "<from YYYYMMDD> <to YYYYMMDD>",
	Flags:     jobFlags,
	Action:    bhrAction,
}

func bhrAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("usage: hangrd bhr <from> <to>", 1)
	}
	from, to, err := parseDateRange(c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	fromStr, toStr := from.Format(dateFormat), to.Format(dateFormat)

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return failJob(err)
	}
	dirs, err := newJobDirs(c.String("root"), "bhr", fromStr, toStr)
	if err != nil {
		return failJob(err)
	}
	dirs.printHeader()

	tr := startMetrics("bhr", c.String("metrics-addr"))
	ctx := context.Background()
	mrcfg := mrengine.Config{NumMappers: cfg.NumMappers, NumReducers: cfg.NumReducers}

	fmt.Println("Calling bhr summary pass")
	bounds, err := runBHRSummaryPass(ctx, cfg, mrcfg, fromStr, toStr, tr)
	if err != nil {
		return failJob(err)
	}
	if err := writeSummaryFile(dirs.OutDir, bounds); err != nil {
		return failJob(err)
	}

	fmt.Println("Calling bhr filter pass")
	entries, err := runBHRFilterPass(ctx, cfg, mrcfg, fromStr, toStr, bounds, tr)
	if err != nil {
		return failJob(err)
	}
	if err := writeFilterFile(dirs.OutDir, entries); err != nil {
		return failJob(err)
	}
	filterSet := bhr.BuildFilterSet(entries)

	fmt.Println("Calling bhr data pass")
	records, err := runBHRDataPass(ctx, cfg, mrcfg, fromStr, toStr, filterSet, tr)
	if err != nil {
		return failJob(err)
	}

	if err := bundle.AssembleBHR(dirs.OutDir, records); err != nil {
		return failJob(err)
	}

	fmt.Println("Completed")
	return nil
}

func failJob(err error) error {
	fmt.Println("Error 1")
	return cli.NewExitError(err.Error(), 1)
}

func runBHRSummaryPass(ctx context.Context, cfg config.Config, mrcfg mrengine.Config, from, to string, tr statsTracker) (bhr.SessionBounds, error) {
	src, err := newDateFilteredSource(ctx, cfg, bhrPrefix, from, to, tr)
	if err != nil {
		return nil, err
	}
	m := bhr.SummaryMapper{Profile: bhr.BHRProfile, SKIP: cfg.SKIP, BuildIDCutoff: cfg.BuildIDCutoff}
	return bhr.RunSummaryPass(ctx, mrcfg, src, m, 10)
}

func runBHRFilterPass(ctx context.Context, cfg config.Config, mrcfg mrengine.Config, from, to string, bounds bhr.SessionBounds, tr statsTracker) (map[string][]bhr.FilterTally, error) {
	src, err := newDateFilteredSource(ctx, cfg, bhrPrefix, from, to, tr)
	if err != nil {
		return nil, err
	}
	m := bhr.FilterMapper{Profile: bhr.BHRProfile, SKIP: cfg.SKIP, BuildIDCutoff: cfg.BuildIDCutoff, Bounds: bounds}
	return bhr.RunFilterPass(ctx, mrcfg, src, m, cfg.FilterLimit)
}

func runBHRDataPass(ctx context.Context, cfg config.Config, mrcfg mrengine.Config, from, to string, filterSet bhr.FilterSet, tr statsTracker) ([]bhr.OutputRecord, error) {
	src, err := newDateFilteredSource(ctx, cfg, bhrPrefix, from, to, tr)
	if err != nil {
		return nil, err
	}
	m := bhr.DataMapper{Profile: bhr.BHRProfile, SKIP: cfg.SKIP, BuildIDCutoff: cfg.BuildIDCutoff, Filter: filterSet}
	var records []bhr.OutputRecord
	sink := newCollectSink(&records)
	if err := bhr.RunDataPass(ctx, mrcfg, src, m, cfg.ReducerCutoff, 10, sink); err != nil {
		return nil, err
	}
	return records, nil
}

func writeSummaryFile(outDir string, bounds bhr.SessionBounds) error {
	f, err := os.Create(filepath.Join(outDir, "summary.txt"))
	if err != nil {
		return err
	}
	defer f.Close()
	return bhr.WriteSummary(f, bounds)
}

func writeFilterFile(outDir string, entries map[string][]bhr.FilterTally) error {
	f, err := os.Create(filepath.Join(outDir, "filter.txt"))
	if err != nil {
		return err
	}
	defer f.Close()
	return bhr.WriteFilterFile(f, entries)
}

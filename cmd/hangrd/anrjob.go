package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli"

	"github.com/mozilla-telemetry/hangreport/anr"
	"github.com/mozilla-telemetry/hangreport/bundle"
	"github.com/mozilla-telemetry/hangreport/config"
	"github.com/mozilla-telemetry/hangreport/mrengine"
	"github.com/mozilla-telemetry/hangreport/ping"
)

// anrPrefix and anrSessionsPrefix are fetchanr.py's two dims[0] values: the
// aggregation pass reads android-anr-report pings, the sessions pass reads
// ordinary saved-session pings for the same date range.
const (
	anrPrefix         = "telemetry/android-anr-report/"
	anrSessionsPrefix = "telemetry/saved-session/"
)

var anrCmd = cli.Command{
	Name:      "anr",
	Usage:     "aggregate Android ANR pings for a date range into a dashboard bundle",
	ArgsUsage: "<from YYYYMMDD> <to YYYYMMDD>",
	Flags:     jobFlags,
	Action:    anrAction,
}

func anrAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("usage: hangrd anr <from> <to>", 1)
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
	dirs, err := newJobDirs(c.String("root"), "anr", fromStr, toStr)
	if err != nil {
		return failJob(err)
	}
	sessionsDirs, err := newJobDirs(c.String("root"), "sessions", fromStr, toStr)
	if err != nil {
		return failJob(err)
	}
	dirs.printHeader()

	tr := startMetrics("anr", c.String("metrics-addr"))
	ctx := context.Background()
	mrcfg := mrengine.Config{NumMappers: cfg.NumMappers, NumReducers: cfg.NumReducers}

	fmt.Println("Calling anr aggregation pass")
	groups, err := runANRPass(ctx, cfg, mrcfg, fromStr, toStr, tr)
	if err != nil {
		return failJob(err)
	}

	fmt.Println("Calling anr sessions pass")
	sessionOutputs, err := runANRSessionsPass(ctx, cfg, mrcfg, fromStr, toStr, tr)
	if err != nil {
		return failJob(err)
	}

	sym := newSymbolicate(cfg, sessionsDirs.WorkDir)
	if err := bundle.AssembleANR(dirs.OutDir, groups, sessionOutputs, sym); err != nil {
		return failJob(err)
	}

	fmt.Println("Completed")
	return nil
}

func runANRPass(ctx context.Context, cfg config.Config, mrcfg mrengine.Config, from, to string, tr statsTracker) ([]anr.Reduced, error) {
	src, err := newDateFilteredSource(ctx, cfg, anrPrefix, from, to, tr)
	if err != nil {
		return nil, err
	}
	m := anr.Mapper{Profile: ping.ANRProfile}
	r := anr.Reducer{MinSamples: anr.MinSamples}
	var groups []anr.Reduced
	sink := newCollectSink(&groups)
	if err := mrengine.Run(ctx, mrcfg, src, m, nil, r, sink, encodeJSON); err != nil {
		return nil, err
	}
	return groups, nil
}

func runANRSessionsPass(ctx context.Context, cfg config.Config, mrcfg mrengine.Config, from, to string, tr statsTracker) ([]anr.SessionsOutput, error) {
	// fetchanr.py forces dims[0] to 'saved-session' for this pass; ordinary
	// session pings carry no androidANR report, so the sessions mapper
	// filters those out itself and only the prefix needs to change here.
	src, err := newDateFilteredSource(ctx, cfg, anrSessionsPrefix, from, to, tr)
	if err != nil {
		return nil, err
	}
	m := anr.SessionsMapper{Profile: ping.ANRProfile}
	r := anr.SessionsReducer{Quantiles: 10}
	var outputs []anr.SessionsOutput
	sink := newCollectSink(&outputs)
	if err := mrengine.Run(ctx, mrcfg, src, m, nil, r, sink, encodeJSON); err != nil {
		return nil, err
	}
	return outputs, nil
}

package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/mozilla-telemetry/hangreport/cmn/nlog"
)

func main() {
	app := cli.NewApp()
	app.Name = "hangrd"
	app.Usage = "aggregate thread-hang and ANR telemetry into dashboard bundles"
	app.Commands = []cli.Command{bhrCmd, anrCmd, inspectCmd}

	if err := app.Run(os.Args); err != nil {
		nlog.Errorln("hangrd:", err)
		nlog.Flush(0)
		if coder, ok := err.(cli.ExitCoder); ok {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

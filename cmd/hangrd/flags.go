package main

import "github.com/urfave/cli"

// jobFlags is shared by the bhr and anr subcommands.
var jobFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "config",
		Usage: "path to a YAML config file (HANGRD_-prefixed env vars also apply)",
	},
	cli.StringFlag{
		Name:  "root",
		Usage: "mount point under which work/out directories are created",
		Value: "/mnt",
	},
	cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "if set, serve Prometheus metrics at http://<addr>/metrics for the duration of the run",
	},
}

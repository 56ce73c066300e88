package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli"

	"github.com/mozilla-telemetry/hangreport/cmn/cos"
)

var inspectCmd = cli.Command{
	Name:      "inspect",
	Usage:     "print the raw androidANR/androidLogcat payload of specific lines from a saved ping file",
	ArgsUsage: "<file> <line,line,...>",
	Action:    inspectAction,
}

func inspectAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("usage: hangrd inspect <file> <lines>", 1)
	}
	path := c.Args().Get(0)
	wanted, err := parseLineList(c.Args().Get(1))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	f, err := os.Open(path)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := -1
	for scanner.Scan() {
		line++
		if !wanted[line] {
			continue
		}
		if err := inspectLine(path, line, scanner.Text()); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	}
	return scanner.Err()
}

func parseLineList(arg string) (map[int]bool, error) {
	out := make(map[int]bool)
	for _, part := range strings.Split(arg, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("hangrd: invalid line number %q: %w", part, err)
		}
		out[n] = true
	}
	return out, nil
}

// inspectLine pretty-prints one saved ping's androidANR/androidLogcat
// payload the way printanr.py does: pop both fields out of the raw record
// so the indented dump of the rest stays readable, then show the traces
// and logcat separately between plain section markers.
func inspectLine(path string, line int, raw string) error {
	var doc map[string]any
	if err := cos.JSON.UnmarshalFromString(raw, &doc); err != nil {
		// mapreduce job output lines are tab-separated key/value pairs
		// rather than bare JSON; fall back to the value half.
		if _, payload, found := strings.Cut(raw, "\t"); found {
			err = cos.JSON.UnmarshalFromString(payload, &doc)
		}
		if err != nil {
			return fmt.Errorf("hangrd: line %d: %w", line, err)
		}
	}
	traces := doc["androidANR"]
	logcat := doc["androidLogcat"]
	delete(doc, "androidANR")
	delete(doc, "androidLogcat")

	pretty, err := cos.JSON.MarshalIndent(doc, "", "    ")
	if err != nil {
		return err
	}

	fmt.Printf("===== ANR file %s line %d =====\n", filepath.Base(path), line)
	fmt.Println(string(pretty))
	fmt.Println("===== raw traces =====")
	printAny(traces)
	fmt.Println("===== end raw traces =====")
	fmt.Println("===== raw logcat =====")
	printAny(logcat)
	fmt.Println("===== end raw logcat =====")
	fmt.Println("===== END ANR =====")
	fmt.Println()
	return nil
}

func printAny(v any) {
	if v == nil {
		return
	}
	if s, ok := v.(string); ok {
		fmt.Println(s)
		return
	}
	fmt.Println(v)
}


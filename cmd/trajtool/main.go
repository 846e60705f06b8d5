// Command trajtool times, inspects, stores and plays back robot trajectories.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/trajectory/internal/version"
)

// errUsage marks failures that should be followed by the usage text.
var errUsage = errors.New("usage")

func main() {
	log.SetFlags(0)
	log.SetPrefix("trajtool: ")
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
		}
		if !errors.Is(err, flag.ErrHelp) {
			log.Printf("%v", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	command, rest := args[0], args[1:]

	switch command {
	case "time":
		return handleTime(rest, stdout, stderr)
	case "sample":
		return handleSample(rest, stdout, stderr)
	case "validate":
		return handleValidate(rest, stdout, stderr)
	case "convert":
		return handleConvert(rest, stdout, stderr)
	case "store":
		return handleStore(rest, stdout, stderr)
	case "play":
		return handlePlay(rest, stdout, stderr)
	case "version", "-version", "--version":
		fmt.Fprintf(stdout, "trajtool %s\n", version.String())
		return nil
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `trajtool - robot trajectory timing and playback

Usage: trajtool <command> [options]

Commands:
  time       Time a raw path against robot limits and write a trajectory file
  sample     Tabulate samples of a trajectory file at a fixed period
  validate   Check a trajectory file against robot limits
  convert    Rewrite a trajectory file with different format options
  store      Manage the trajectory library (put, get, list, rm)
  play       Stream setpoints to a serial controller or stdout
  version    Show trajtool version

Common Flags:
  -config <file>   Engine config (defaults: config/engine.defaults.json values)
  -limits <file>   Robot limits JSON
  -method <name>   linear, cubic or quintic (overrides config)
  -verbose         Emit debug diagnostics

Format options (-format) are a comma list of:
  oneline, noheader, timestamps, transform, velocities, all

Examples:
  trajtool time -dof 6 -in path.txt -limits robot.json -method cubic -out pick.traj
  trajtool sample -in pick.traj -period 50ms
  trajtool store put -db lib.db -name pick -in pick.traj
  trajtool play -in pick.traj -device /dev/ttyUSB0`)
}

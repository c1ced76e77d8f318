// sleepctl checks sleep plans offline and sends them to a device over the
// serial bridge.
package main

import (
	"fmt"
	"os"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
	exitRejected     = 2
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitCommandError)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var exitCode int
	switch cmd {
	case "check":
		exitCode = runCheck(args, os.Stdout, os.Stderr)
	case "validate":
		exitCode = runRemote(args, ctrlValidate, os.Stdout, os.Stderr)
	case "enter":
		exitCode = runRemote(args, ctrlEnter, os.Stdout, os.Stderr)
	case "help", "-h", "--help":
		printUsage()
		exitCode = exitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		exitCode = exitCommandError
	}

	os.Exit(exitCode)
}

func printUsage() {
	fmt.Println(`sleepctl - sleep plan checker and remote control

Usage:
  sleepctl <command> [options] <plan.yaml>

Commands:
  check      Validate every request in a plan against its board profile
  validate   Ask the device to validate one request
  enter      Ask the device to enter one request and print the wakeup

Examples:
  sleepctl check plans/nightly.yaml
  sleepctl enter -device /dev/ttyACM0 -request nap plans/nightly.yaml`)
}

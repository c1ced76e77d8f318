package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"

	"powercode-go/errcode"
	"powercode-go/services/bridge"
	"powercode-go/types"
)

const (
	ctrlValidate = "validate"
	ctrlEnter    = "enter"
)

var ctrlTopic = []string{"hal", "power", "sleep", "control"}

func runCheck(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "Error: no plan files specified")
		return exitCommandError
	}

	code := exitSuccess
	for _, path := range fs.Args() {
		p, err := loadPlan(path)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		for _, r := range p.Requests {
			if err := p.check(r); err != nil {
				fmt.Fprintf(stdout, "%s: %s: %s\n", path, r.Name, errcode.Of(err))
				code = exitRejected
				continue
			}
			fmt.Fprintf(stdout, "%s: %s: ok\n", path, r.Name)
		}
	}
	return code
}

type remoteOptions struct {
	device  string
	baud    int
	request string
	timeout time.Duration
	plan    string
}

func parseRemoteArgs(name string, args []string, stderr io.Writer) (*remoteOptions, error) {
	opts := &remoteOptions{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.device, "device", "", "Serial device path (e.g. /dev/ttyACM0)")
	fs.IntVar(&opts.baud, "baud", 115200, "Serial baud rate")
	fs.StringVar(&opts.request, "request", "", "Request name within the plan")
	fs.DurationVar(&opts.timeout, "timeout", 0, "Give up waiting for a reply after this long (0 waits for the wakeup)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.device == "" {
		return nil, fmt.Errorf("-device is required")
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("expected exactly one plan file")
	}
	opts.plan = fs.Arg(0)
	return opts, nil
}

// runRemote sends one plan request to the device's power service. The plan
// is checked locally first so an obviously bad request never wakes the
// link.
func runRemote(args []string, method string, stdout, stderr io.Writer) int {
	opts, err := parseRemoteArgs(method, args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	p, err := loadPlan(opts.plan)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	r, err := p.find(opts.request)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	if err := p.check(r); err != nil {
		fmt.Fprintf(stdout, "%s: %s (not sent)\n", r.Name, errcode.Of(err))
		return exitRejected
	}

	port, err := serial.Open(opts.device, &serial.Mode{BaudRate: opts.baud})
	if err != nil {
		fmt.Fprintf(stderr, "Error: open %s: %v\n", opts.device, err)
		return exitCommandError
	}
	c := bridge.NewClient(port)
	defer c.Close()

	ctx := context.Background()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	var rep types.SleepReply
	topic := append(append([]string(nil), ctrlTopic...), method)
	if err := c.Call(ctx, topic, r.SleepRequest, opts.timeout, &rep); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	return printReply(stdout, r.Name, rep)
}

func printReply(w io.Writer, name string, rep types.SleepReply) int {
	if !rep.OK {
		fmt.Fprintf(w, "%s: %s\n", name, rep.Error)
		return exitRejected
	}
	switch {
	case rep.Wakeup == nil:
		fmt.Fprintf(w, "%s: ok\n", name)
	case rep.Wakeup.Kind == "gpio":
		fmt.Fprintf(w, "%s: woke on gpio %d (%s)\n", name, rep.Wakeup.Pin, rep.Wakeup.Edge)
	default:
		fmt.Fprintf(w, "%s: woke on %s\n", name, rep.Wakeup.Kind)
	}
	return exitSuccess
}

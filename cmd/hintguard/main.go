// Command hintguard checks YAML and JSON documents against type hints.
//
//	hintguard -hint 'map[string][]int' data.yaml
//	hintguard -config hintguard.yaml -journal violations.db -watch
//
// Exit status is 0 when every document satisfies its hint, 1 when a
// violation was raised or a document could not be read, and 2 when the
// checks could not be set up.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
)

const (
	exitOK        = 0
	exitViolation = 1
	exitSetup     = 2
)

type options struct {
	configPath string
	hint       string
	callSite   string
	watch      bool
	journal    string
	jobs       int
	noColor    bool
	files      []string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitSetup
	}

	r, err := newRunner(ctx, opts, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "hintguard: %s\n", err)
		return exitSetup
	}
	defer r.Close()

	if opts.watch {
		if err := r.watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(stderr, "hintguard: %s\n", err)
			return exitSetup
		}
		return exitOK
	}

	sum, err := r.runOnce(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "hintguard: %s\n", err)
		return exitSetup
	}
	if sum.violations > 0 || sum.errors > 0 {
		return exitViolation
	}
	return exitOK
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("hintguard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "configuration file (default: search for hintguard.yaml upwards)")
	fs.StringVar(&opts.hint, "hint", "", "hint expression checked against FILE arguments")
	fs.StringVar(&opts.callSite, "site", "free", "call site of -hint checks: free, param or return")
	fs.BoolVar(&opts.watch, "watch", false, "re-check when files change")
	fs.StringVar(&opts.journal, "journal", "", "record violations in this SQLite database")
	fs.IntVar(&opts.jobs, "j", runtime.NumCPU(), "files checked concurrently")
	fs.BoolVar(&opts.noColor, "no-color", false, "disable coloured output")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: hintguard [flags] [FILE...]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.jobs < 1 {
		opts.jobs = 1
	}
	opts.files = fs.Args()
	return opts, nil
}

package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/hintguard/internal/config"
	"github.com/funvibe/hintguard/internal/diagnostics"
	"github.com/funvibe/hintguard/internal/journal"
	"github.com/funvibe/hintguard/internal/parser"
	"github.com/funvibe/hintguard/internal/warnings"
	"github.com/funvibe/hintguard/pkg/check"
)

// checkJob is a configured check with its raiser.
type checkJob struct {
	spec   config.CheckSpec
	raiser *check.Raiser
	// warn reports violations as warnings instead of failures.
	warn bool
}

// result is the outcome of one document that did not pass.
type result struct {
	check     string
	file      string
	doc       int
	warn      bool
	violation *diagnostics.Violation
	err       error
}

type summary struct {
	documents  int
	violations int
	warnings   int
	errors     int
}

type runner struct {
	opts       options
	configPath string
	checks     []checkJob

	journal *journal.Journal
	out     *printer
	restore func()
}

func newRunner(ctx context.Context, opts options, stdout, stderr io.Writer) (*runner, error) {
	r := &runner{opts: opts, out: newPrinter(stdout, opts.noColor)}
	errOut := newPrinter(stderr, opts.noColor)
	r.restore = warnings.SetHandler(warnings.HandlerFunc(func(w warnings.Warning) {
		errOut.line(tagWarn, string(w.Category)+": "+w.Message)
	}))

	if err := r.load(); err != nil {
		r.restore()
		return nil, err
	}
	if opts.journal != "" {
		j, err := journal.Open(ctx, opts.journal)
		if err != nil {
			r.restore()
			return nil, err
		}
		r.journal = j
	}
	return r, nil
}

// load reads the configuration and builds one raiser per check.
func (r *runner) load() error {
	path := r.opts.configPath
	if path == "" && r.opts.hint == "" {
		found, err := config.FindConfig(".")
		if err != nil {
			return err
		}
		path = found
	}

	conf := config.Default()
	var specs []config.CheckSpec
	if path != "" {
		f, err := config.LoadConfig(path)
		if err != nil {
			return err
		}
		conf = f.Conf
		specs = f.Checks
	}
	r.configPath = path

	if r.opts.hint != "" {
		if _, err := config.ParseCallSite(r.opts.callSite); err != nil {
			return diagnostics.NewConfigurationError("-site: %v", err)
		}
		specs = []config.CheckSpec{{
			Name:     "hint",
			Hint:     r.opts.hint,
			Files:    r.opts.files,
			CallSite: r.opts.callSite,
		}}
	} else if len(r.opts.files) > 0 {
		for i := range specs {
			if len(specs[i].Files) == 0 {
				specs[i].Files = r.opts.files
			}
		}
	}
	if len(specs) == 0 {
		return errors.New("nothing to check: pass -hint or a configuration with checks")
	}

	jobs := make([]checkJob, 0, len(specs))
	for _, spec := range specs {
		if len(spec.Files) == 0 {
			return fmt.Errorf("check %s: no files to check", spec.Name)
		}
		h, err := parser.ParseHint(spec.Hint)
		if err != nil {
			return fmt.Errorf("check %s: %w", spec.Name, err)
		}
		site := spec.Site()
		raiser, err := check.MakeFuncRaiser(h, raiseAt(conf, site), nil, site)
		if err != nil {
			return fmt.Errorf("check %s: %w", spec.Name, err)
		}
		jobs = append(jobs, checkJob{spec: spec, raiser: raiser, warn: conf.WarnOn(site)})
	}
	r.checks = jobs
	return nil
}

// raiseAt returns conf with the policy for site set to raise. The runner
// reports warn-policy violations itself so they stay attributed to their
// document when files are checked concurrently.
func raiseAt(conf config.Conf, site config.CallSite) config.Conf {
	switch site {
	case config.CallSiteParam:
		conf.Violation.Param = config.PolicyRaise
	case config.CallSiteReturn:
		conf.Violation.Return = config.PolicyRaise
	default:
		conf.Violation.Free = config.PolicyRaise
	}
	return conf
}

// files returns every file any check reads.
func (r *runner) files() []string {
	var out []string
	for _, c := range r.checks {
		out = append(out, c.spec.Files...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (r *runner) runOnce(ctx context.Context) (summary, error) {
	var (
		mu      sync.Mutex
		results []result
		sum     summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.jobs)
	for _, c := range r.checks {
		for _, file := range c.spec.Files {
			g.Go(func() error {
				res, docs, err := checkFile(gctx, c, file)
				if err != nil {
					return err
				}
				mu.Lock()
				results = append(results, res...)
				sum.documents += docs
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}

	slices.SortFunc(results, func(a, b result) int {
		return cmp.Or(
			cmp.Compare(a.check, b.check),
			cmp.Compare(a.file, b.file),
			cmp.Compare(a.doc, b.doc),
		)
	})
	for _, res := range results {
		where := fmt.Sprintf("%s %s#%d: ", res.check, res.file, res.doc)
		switch {
		case res.err != nil:
			sum.errors++
			r.out.line(tagError, where+res.err.Error())
		case res.warn:
			sum.warnings++
			r.out.line(tagWarn, where+res.violation.Message())
		default:
			sum.violations++
			r.out.line(tagFail, where+res.violation.Message())
		}
		if r.journal != nil && res.violation != nil {
			if err := r.journal.Record(ctx, res.check, res.file, res.doc, res.violation, res.warn); err != nil {
				return sum, err
			}
		}
	}
	r.out.summary(sum)
	return sum, nil
}

// checkFile checks every document in file. Unreadable documents become
// error results; only cancellation is returned as an error.
func checkFile(ctx context.Context, c checkJob, file string) ([]result, int, error) {
	f, err := os.Open(file)
	if err != nil {
		return []result{{check: c.spec.Name, file: file, err: err}}, 0, nil
	}
	defer f.Close()

	var out []result
	dec := yaml.NewDecoder(f)
	doc := 0
	for ; ; doc++ {
		if err := ctx.Err(); err != nil {
			return nil, doc, err
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			out = append(out, result{check: c.spec.Name, file: file, doc: doc,
				err: fmt.Errorf("decoding: %w", err)})
			break
		}
		err := c.raiser.Check(v)
		if err == nil {
			continue
		}
		res := result{check: c.spec.Name, file: file, doc: doc}
		var ve *check.ViolationError
		if errors.As(err, &ve) {
			res.violation = ve.Violation
			res.warn = c.warn
		} else {
			res.err = err
		}
		out = append(out, res)
	}
	return out, doc, nil
}

func (r *runner) Close() error {
	r.restore()
	if r.journal != nil {
		return r.journal.Close()
	}
	return nil
}

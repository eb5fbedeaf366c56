// Package harness drives the program under test: it generates one fixture
// per trial, spawns the program against it, classifies the captured output
// against the oracle, and aggregates the results.
//
// Everything is strictly sequential. A trial's fixture is written before the
// program is spawned, the spawn blocks until the program exits (optionally
// bounded by a timeout), and operator prompts block the whole run. The only
// shared resource is the scratch directory, which is cleaned once at run
// start and then only appended to.
package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"path/filepath"
	"time"

	"go.skia.org/figtest/go/executil"
	"go.skia.org/figtest/go/fixture"
	"go.skia.org/figtest/go/geom"
	"go.skia.org/figtest/go/judge"
	"go.skia.org/figtest/go/now"
	"go.skia.org/figtest/go/skerr"
	"go.skia.org/figtest/go/sklog"
)

// Query selects which search the program under test is asked to perform.
type Query string

const (
	QueryTest   Query = "test"
	QueryHLine  Query = "hline"
	QueryVLine  Query = "vline"
	QuerySquare Query = "square"
)

// ParseQuery validates a query name from the command line.
func ParseQuery(s string) (Query, error) {
	switch Query(s) {
	case QueryTest, QueryHLine, QueryVLine, QuerySquare:
		return Query(s), nil
	}
	return "", skerr.Fmt("unknown query %q; expected one of: test, hline, vline, square", s)
}

// Options configures a Harness.
type Options struct {
	// Exec is the path to the program under test. Required.
	Exec string
	// Query to run each trial with.
	Query Query
	// Size of generated bitmaps.
	Size geom.BitmapSize
	// Trials is how many fixtures to generate and judge.
	Trials int
	// Seed for the fixture generator's random source.
	Seed int64
	// ScratchDir holds the generated fixture files. Cleaned at run start.
	ScratchDir string
	// RandomValidity makes `test` trials flip a coin between valid and
	// corrupted fixtures. Without it every `test` fixture is valid.
	RandomValidity bool
	// WhitespaceFuzz randomizes every separator in written fixtures.
	WhitespaceFuzz bool
	// Timeout bounds a single spawn of the program under test. Zero means
	// block until it exits, however long that takes.
	Timeout time.Duration
	// Resolver decides uncertain matches and acknowledges failures. nil
	// means judge.AutoFail.
	Resolver judge.Resolver
	// Out receives diagnostics and reports. nil means os.Stdout.
	Out io.Writer
}

// Harness runs trials against the program under test.
type Harness struct {
	opts Options
	gen  *fixture.Generator
}

// New validates the options and returns a Harness. The scratch directory is
// not touched until a run starts.
func New(opts Options) (*Harness, error) {
	if opts.Exec == "" {
		return nil, skerr.Fmt("missing path to the program under test")
	}
	if _, err := ParseQuery(string(opts.Query)); err != nil {
		return nil, err
	}
	if !opts.Size.Valid() {
		return nil, skerr.Fmt("invalid bitmap size %s", opts.Size)
	}
	if opts.Trials < 1 {
		return nil, skerr.Fmt("trial count must be at least 1, got %d", opts.Trials)
	}
	if opts.ScratchDir == "" {
		return nil, skerr.Fmt("missing scratch directory")
	}
	if opts.Resolver == nil {
		opts.Resolver = judge.AutoFail{}
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Harness{
		opts: opts,
		gen:  fixture.New(opts.ScratchDir, opts.Seed, opts.WhitespaceFuzz),
	}, nil
}

// CleanScratch prepares the scratch directory for a run: it is created if
// absent and every regular file in it is removed. Finding anything that is
// not a regular file is a precondition violation; the harness refuses to
// touch a directory it does not own.
func CleanScratch(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return skerr.Wrapf(err, "creating scratch directory %s", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return skerr.Wrapf(err, "reading scratch directory %s", dir)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			return skerr.Fmt("scratch directory %s contains non-regular entry %q; refusing to clean it", dir, entry.Name())
		}
	}
	for _, entry := range entries {
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return skerr.Wrapf(err, "cleaning scratch directory %s", dir)
		}
	}
	return nil
}

// generate produces one fixture for the configured query and returns its
// path and the exact stdout the program under test must produce for it.
func (h *Harness) generate() (string, string, error) {
	switch h.opts.Query {
	case QueryTest:
		if h.opts.RandomValidity && h.gen.Coin() {
			path, verdict, err := h.gen.Fuzzed(h.opts.Size)
			return path, string(verdict), err
		}
		path, err := h.gen.Valid(h.opts.Size)
		return path, string(fixture.Valid), err
	case QueryHLine:
		path, oracle, err := h.gen.HLines(h.opts.Size)
		return path, oracle.Wire(), err
	case QueryVLine:
		path, oracle, err := h.gen.VLines(h.opts.Size)
		return path, oracle.Wire(), err
	case QuerySquare:
		path, oracle, err := h.gen.Squares(h.opts.Size)
		return path, oracle.Wire(), err
	}
	return "", "", skerr.Fmt("unknown query %q", h.opts.Query)
}

// invoke spawns the program under test against the fixture and blocks until
// it exits. Returns its stdout and exit code. A spawn that fails for any
// reason other than the program exiting nonzero (binary missing, timeout
// killed it) is returned as an error.
func (h *Harness) invoke(ctx context.Context, fixturePath string) (string, int, error) {
	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}
	cmd := executil.CommandContext(ctx, h.opts.Exec, string(h.opts.Query), fixturePath)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	sklog.Infof("Executing %s %s %s", h.opts.Exec, h.opts.Query, fixturePath)
	err := cmd.Run()
	if err != nil {
		if ee, ok := err.(*osexec.ExitError); ok && ctx.Err() == nil {
			return stdout.String(), ee.ExitCode(), nil
		}
		return "", 0, skerr.Wrapf(err, "spawning %s", h.opts.Exec)
	}
	return stdout.String(), 0, nil
}

// TrialResult records the final state of one trial.
type TrialResult struct {
	Fixture  string
	Expected string
	Actual   string
	// Outcome is the final verdict, after any review resolution.
	Outcome judge.Outcome
	// Reviewed is set if the trial went through the resolver.
	Reviewed bool
	// ExitCode of the program under test.
	ExitCode int
	// Duration of the spawn, wall clock.
	Duration time.Duration
}

// Functional runs the configured number of trials and judges each one.
// Nonzero exits of the program under test are recorded as failed trials;
// the run carries on. Only precondition violations (bad scratch directory,
// unspawnable program) abort.
func (h *Harness) Functional(ctx context.Context) (*Summary, error) {
	if err := CleanScratch(h.opts.ScratchDir); err != nil {
		return nil, err
	}
	summary := &Summary{Query: h.opts.Query}
	for i := 0; i < h.opts.Trials; i++ {
		res, err := h.runTrial(ctx)
		if err != nil {
			return nil, err
		}
		summary.Results = append(summary.Results, res)
	}
	return summary, nil
}

func (h *Harness) runTrial(ctx context.Context) (TrialResult, error) {
	path, expected, err := h.generate()
	if err != nil {
		return TrialResult{}, err
	}
	start := now.Now(ctx)
	actual, exitCode, err := h.invoke(ctx, path)
	if err != nil {
		return TrialResult{}, err
	}
	res := TrialResult{
		Fixture:  path,
		Expected: expected,
		Actual:   actual,
		ExitCode: exitCode,
		Duration: now.Now(ctx).Sub(start),
	}
	if exitCode != 0 {
		// ProcessFailure: the contract requires exit 0 for every query.
		res.Outcome = judge.Fail
		if err := h.reportFailure(res, fmt.Sprintf("exit code %d", exitCode)); err != nil {
			return TrialResult{}, err
		}
		return res, nil
	}
	res.Outcome = judge.Classify(expected, actual)
	if res.Outcome == judge.NeedsReview {
		res.Reviewed = true
		resolved, err := h.opts.Resolver.Resolve(expected, actual)
		if err != nil {
			return TrialResult{}, skerr.Wrapf(err, "resolving uncertain trial on %s", path)
		}
		res.Outcome = resolved
		if res.Outcome == judge.Fail {
			if err := h.reportFailure(res, "review rejected"); err != nil {
				return TrialResult{}, err
			}
		}
		return res, nil
	}
	if res.Outcome == judge.Fail {
		if err := h.reportFailure(res, "output mismatch"); err != nil {
			return TrialResult{}, err
		}
	}
	return res, nil
}

// reportFailure prints the expected vs actual diagnostic for a failed trial
// and blocks on the resolver's acknowledgement. No failure scrolls past
// unseen.
func (h *Harness) reportFailure(res TrialResult, reason string) error {
	if _, err := fmt.Fprintf(h.opts.Out, "FAIL (%s) on %s\n  expected: %q\n  actual:   %q\n", reason, res.Fixture, res.Expected, res.Actual); err != nil {
		return skerr.Wrap(err)
	}
	return skerr.Wrap(h.opts.Resolver.Acknowledge())
}

// figtest is a black-box test driver for figure-search programs. It
// generates randomized bitmap fixtures, spawns the program under test
// against each one, and compares the captured output against the expected
// answer computed during generation.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"go.skia.org/figtest/go/geom"
	"go.skia.org/figtest/go/harness"
	"go.skia.org/figtest/go/judge"
	"go.skia.org/figtest/go/sklog"
)

// commonFlags defines the command line flags shared by all run modes.
type commonFlags struct {
	Exec           string
	Query          string
	Width          int
	Height         int
	Trials         int
	Seed           int64
	ScratchDir     string
	RandomValidity bool
	WhitespaceFuzz bool
	Timeout        time.Duration
	Interactive    bool
}

func (f *commonFlags) AsCliFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Destination: &f.Exec,
			Name:        "exec",
			Usage:       "Path to the program under test.",
			Required:    true,
		},
		&cli.StringFlag{
			Destination: &f.Query,
			Name:        "query",
			Value:       "test",
			Usage:       "Query to run each trial with: test, hline, vline or square.",
		},
		&cli.IntFlag{
			Destination: &f.Width,
			Name:        "width",
			Value:       20,
			Usage:       "Width of generated bitmaps.",
		},
		&cli.IntFlag{
			Destination: &f.Height,
			Name:        "height",
			Value:       20,
			Usage:       "Height of generated bitmaps.",
		},
		&cli.IntFlag{
			Destination: &f.Trials,
			Name:        "trials",
			Value:       100,
			Usage:       "Number of fixtures to generate and judge.",
		},
		&cli.Int64Flag{
			Destination: &f.Seed,
			Name:        "seed",
			Value:       time.Now().UnixNano(),
			Usage:       "Seed for the fixture generator. Defaults to the current time; pass an explicit value to reproduce a run.",
		},
		&cli.StringFlag{
			Destination: &f.ScratchDir,
			Name:        "scratch",
			Value:       "figtest-scratch",
			Usage:       "Directory for generated fixture files. Cleaned at run start.",
		},
		&cli.BoolFlag{
			Destination: &f.RandomValidity,
			Name:        "random-validity",
			Usage:       "For test queries, flip a coin between valid and corrupted fixtures instead of always generating valid ones.",
		},
		&cli.BoolFlag{
			Destination: &f.WhitespaceFuzz,
			Name:        "whitespace-fuzz",
			Usage:       "Randomize every separator in written fixtures.",
		},
		&cli.DurationFlag{
			Destination: &f.Timeout,
			Name:        "timeout",
			Usage:       "Bound on a single spawn of the program under test. Zero waits forever.",
		},
		&cli.BoolFlag{
			Destination: &f.Interactive,
			Name:        "interactive",
			Value:       term.IsTerminal(int(os.Stdin.Fd())),
			Usage:       "Prompt the operator to decide uncertain matches. Defaults to on when stdin is a terminal; without it uncertain matches fail.",
		},
	}
}

// harnessOptions translates the parsed flags into harness options, dying on
// anything malformed.
func (f *commonFlags) harnessOptions() harness.Options {
	query, err := harness.ParseQuery(f.Query)
	if err != nil {
		sklog.Fatal(err)
	}
	var resolver judge.Resolver = judge.AutoFail{}
	if f.Interactive {
		resolver = &judge.Console{In: os.Stdin, Out: os.Stdout}
	}
	return harness.Options{
		Exec:           f.Exec,
		Query:          query,
		Size:           geom.BitmapSize{Width: f.Width, Height: f.Height},
		Trials:         f.Trials,
		Seed:           f.Seed,
		ScratchDir:     f.ScratchDir,
		RandomValidity: f.RandomValidity,
		WhitespaceFuzz: f.WhitespaceFuzz,
		Timeout:        f.Timeout,
		Resolver:       resolver,
		Out:            os.Stdout,
	}
}

func main() {
	// Make sklog happy so it doesn't log errors.
	flag.Parse()

	var flags commonFlags
	var verbose bool

	app := &cli.App{
		Name:  "figtest",
		Usage: "Black-box test driver for figure-search programs.",
		Commands: []*cli.Command{
			{
				Name:  "functional",
				Usage: "Generate fixtures, run the program under test on each, and judge its output.",
				Flags: append(flags.AsCliFlags(), &cli.BoolFlag{
					Destination: &verbose,
					Name:        "verbose",
					Usage:       "Print a per-trial result table.",
				}),
				Action: func(c *cli.Context) error {
					opts := flags.harnessOptions()
					h, err := harness.New(opts)
					if err != nil {
						return err
					}
					sklog.Infof("Running %d functional %s trials against %s (seed %d)", opts.Trials, opts.Query, opts.Exec, opts.Seed)
					summary, err := h.Functional(c.Context)
					if err != nil {
						return err
					}
					if err := summary.Report(os.Stdout, verbose); err != nil {
						return err
					}
					if !summary.AllPassed() {
						return cli.Exit("", 1)
					}
					return nil
				},
			},
			{
				Name:  "timed",
				Usage: "Measure wall-clock duration of the program under test without judging its output.",
				Flags: flags.AsCliFlags(),
				Action: func(c *cli.Context) error {
					opts := flags.harnessOptions()
					h, err := harness.New(opts)
					if err != nil {
						return err
					}
					sklog.Infof("Running %d timed %s trials against %s (seed %d)", opts.Trials, opts.Query, opts.Exec, opts.Seed)
					ts, err := h.Timed(c.Context)
					if err != nil {
						return err
					}
					return ts.Report(os.Stdout)
				},
			},
		},
	}
	app.RunAndExitOnError()
}

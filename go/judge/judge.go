// Package judge classifies the output of the program under test against the
// oracle value computed at fixture-generation time.
//
// The comparator is deliberately tri-state: an output that merely contains
// the expected string (e.g. an error message that happens to embed
// "Invalid") is neither a clean pass nor a clean fail, and is escalated to a
// review resolver instead of being silently decided either way.
package judge

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"go.skia.org/figtest/go/skerr"
)

// Outcome is the verdict for one trial.
type Outcome int

const (
	// Pass: trimmed actual output equals trimmed expected output.
	Pass Outcome = iota
	// Fail: no meaningful relationship between actual and expected.
	Fail
	// NeedsReview: expected is a strict substring of actual; a resolver
	// decides.
	NeedsReview
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "Pass"
	case Fail:
		return "Fail"
	case NeedsReview:
		return "NeedsReview"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Classify compares the expected and actual output of one trial. Both
// strings are trimmed of surrounding whitespace first.
func Classify(expected, actual string) Outcome {
	expected = strings.TrimSpace(expected)
	actual = strings.TrimSpace(actual)
	if expected == actual {
		return Pass
	}
	if strings.Contains(actual, expected) {
		return NeedsReview
	}
	return Fail
}

// Resolver turns a NeedsReview outcome into a final Pass or Fail, and
// acknowledges plain failures. Long fuzz runs must not scroll past an
// undetected regression, so the harness calls Acknowledge on every Fail
// before proceeding.
type Resolver interface {
	// Resolve is given the trimmed expected and actual strings of an
	// uncertain trial and returns the final verdict.
	Resolve(expected, actual string) (Outcome, error)

	// Acknowledge is called after a Fail has been reported. Interactive
	// implementations block until the operator has seen it.
	Acknowledge() error
}

// AutoFail resolves every review to Fail. It is the default for unattended
// runs, where blocking on console input would hang the harness.
type AutoFail struct{}

// Resolve implements Resolver.
func (AutoFail) Resolve(expected, actual string) (Outcome, error) {
	return Fail, nil
}

// Acknowledge implements Resolver. It never blocks.
func (AutoFail) Acknowledge() error {
	return nil
}

var _ Resolver = AutoFail{}

// Console asks a human operator to accept or reject an uncertain match.
type Console struct {
	In  io.Reader
	Out io.Writer
}

// Resolve implements Resolver. It prints the expected and actual strings and
// blocks until the operator answers y or n.
func (c *Console) Resolve(expected, actual string) (Outcome, error) {
	yellow := color.New(color.FgYellow).SprintFunc()
	if _, err := fmt.Fprintf(c.Out, "%s\n  expected: %q\n  actual:   %q\n", yellow("Uncertain match; the expected output is buried in the actual output."), expected, actual); err != nil {
		return Fail, skerr.Wrap(err)
	}
	reader := bufio.NewReader(c.In)
	for {
		if _, err := fmt.Fprint(c.Out, "Accept as a pass? [y/n] "); err != nil {
			return Fail, skerr.Wrap(err)
		}
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return Fail, skerr.Wrapf(err, "reading operator decision")
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return Pass, nil
		case "n", "no":
			return Fail, nil
		}
	}
}

// Acknowledge implements Resolver. It blocks until the operator presses
// enter.
func (c *Console) Acknowledge() error {
	if _, err := fmt.Fprint(c.Out, "Press enter to continue. "); err != nil {
		return skerr.Wrap(err)
	}
	reader := bufio.NewReader(c.In)
	if _, err := reader.ReadString('\n'); err != nil && err != io.EOF {
		return skerr.Wrap(err)
	}
	return nil
}

var _ Resolver = (*Console)(nil)

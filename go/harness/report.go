package harness

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/hako/durafmt"
	"github.com/olekukonko/tablewriter"

	"go.skia.org/figtest/go/judge"
	"go.skia.org/figtest/go/skerr"
)

// Summary collects the results of a functional run.
type Summary struct {
	Query   Query
	Results []TrialResult
}

// Counts returns how many trials ended in each final outcome and how many
// went through review.
func (s *Summary) Counts() (passed, failed, reviewed int) {
	for _, r := range s.Results {
		switch r.Outcome {
		case judge.Pass:
			passed++
		case judge.Fail:
			failed++
		}
		if r.Reviewed {
			reviewed++
		}
	}
	return passed, failed, reviewed
}

// AllPassed returns whether every trial ended in Pass.
func (s *Summary) AllPassed() bool {
	_, failed, _ := s.Counts()
	return failed == 0
}

// Report writes a human-readable summary. With verbose set it includes a
// per-trial table.
func (s *Summary) Report(w io.Writer, verbose bool) error {
	passed, failed, reviewed := s.Counts()
	passStr := color.GreenString("%s passed", humanize.Comma(int64(passed)))
	failStr := color.RedString("%s failed", humanize.Comma(int64(failed)))
	if failed == 0 {
		failStr = fmt.Sprintf("%s failed", humanize.Comma(int64(failed)))
	}
	if _, err := fmt.Fprintf(w, "[%s] %s trials: %s, %s (%d reviewed)\n", s.Query, humanize.Comma(int64(len(s.Results))), passStr, failStr, reviewed); err != nil {
		return skerr.Wrap(err)
	}
	if !verbose {
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Trial", "Outcome", "Expected", "Actual", "Duration", "Fixture"})
	for i, r := range s.Results {
		table.Append([]string{
			strconv.Itoa(i + 1),
			r.Outcome.String(),
			strings.TrimSpace(r.Expected),
			strings.TrimSpace(r.Actual),
			formatDuration(r.Duration),
			r.Fixture,
		})
	}
	table.Render()
	return nil
}

// Report writes a human-readable timing summary.
func (ts TimingSummary) Report(w io.Writer) error {
	_, err := fmt.Fprintf(w, "[%s] timed %d trials: mean %s (min %s, max %s, total %s)\n",
		ts.Query, ts.Trials,
		formatDuration(ts.Mean), formatDuration(ts.Min), formatDuration(ts.Max), formatDuration(ts.Total))
	return skerr.Wrap(err)
}

func formatDuration(d time.Duration) string {
	return durafmt.Parse(d).LimitFirstN(2).String()
}

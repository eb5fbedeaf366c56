package harness

import (
	"context"
	"time"

	"go.skia.org/figtest/go/now"
	"go.skia.org/figtest/go/skerr"
)

// TimingSummary aggregates wall-clock durations of the spawns of one timed
// run. Generation time is excluded; only the program under test is measured.
type TimingSummary struct {
	Query  Query
	Trials int
	Total  time.Duration
	Mean   time.Duration
	Min    time.Duration
	Max    time.Duration
}

// summarizeTimings folds per-trial durations into a TimingSummary.
func summarizeTimings(query Query, durations []time.Duration) TimingSummary {
	s := TimingSummary{
		Query:  query,
		Trials: len(durations),
	}
	if len(durations) == 0 {
		return s
	}
	s.Min = durations[0]
	s.Max = durations[0]
	for _, d := range durations {
		s.Total += d
		if d < s.Min {
			s.Min = d
		}
		if d > s.Max {
			s.Max = d
		}
	}
	s.Mean = s.Total / time.Duration(len(durations))
	return s
}

// Timed runs the configured number of trials measuring only wall-clock
// duration. Output is not judged, but the exit-code contract still holds:
// a nonzero exit invalidates the measurement and aborts the whole run.
func (h *Harness) Timed(ctx context.Context) (TimingSummary, error) {
	if err := CleanScratch(h.opts.ScratchDir); err != nil {
		return TimingSummary{}, err
	}
	durations := make([]time.Duration, 0, h.opts.Trials)
	for i := 0; i < h.opts.Trials; i++ {
		path, _, err := h.generate()
		if err != nil {
			return TimingSummary{}, err
		}
		start := now.Now(ctx)
		_, exitCode, err := h.invoke(ctx, path)
		if err != nil {
			return TimingSummary{}, err
		}
		if exitCode != 0 {
			return TimingSummary{}, skerr.Fmt("program under test exited with code %d during a timed run on %s; measurements are invalid", exitCode, path)
		}
		durations = append(durations, now.Now(ctx).Sub(start))
	}
	return summarizeTimings(h.opts.Query, durations), nil
}

package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go.skia.org/figtest/go/executil"
	"go.skia.org/figtest/go/fixture"
	"go.skia.org/figtest/go/geom"
	"go.skia.org/figtest/go/judge"
	"go.skia.org/figtest/go/testutils"
	"go.skia.org/figtest/go/testutils/unittest"
)

func baseOptions(t *testing.T) Options {
	return Options{
		Exec:       "/opt/figsearch",
		Query:      QueryTest,
		Size:       geom.BitmapSize{Width: 8, Height: 8},
		Trials:     1,
		Seed:       1,
		ScratchDir: t.TempDir(),
		Out:        &bytes.Buffer{},
	}
}

func TestNew_Validations(t *testing.T) {
	unittest.SmallTest(t)

	opts := baseOptions(t)
	opts.Exec = ""
	_, err := New(opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing path")

	opts = baseOptions(t)
	opts.Query = "diagonal"
	_, err = New(opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown query")

	opts = baseOptions(t)
	opts.Size = geom.BitmapSize{Width: 0, Height: 5}
	_, err = New(opts)
	require.Error(t, err)

	opts = baseOptions(t)
	opts.Trials = 0
	_, err = New(opts)
	require.Error(t, err)

	opts = baseOptions(t)
	opts.ScratchDir = ""
	_, err = New(opts)
	require.Error(t, err)
}

func TestCleanScratch_RemovesRegularFiles(t *testing.T) {
	unittest.MediumTest(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bmp_old"), []byte("1 1\n1\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bmp_older"), []byte("1 1\n0\n"), 0644))

	require.NoError(t, CleanScratch(dir))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCleanScratch_CreatesMissingDirectory(t *testing.T) {
	unittest.MediumTest(t)
	dir := filepath.Join(t.TempDir(), "scratch")
	require.NoError(t, CleanScratch(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestCleanScratch_NonRegularEntry_PreconditionViolation(t *testing.T) {
	unittest.MediumTest(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bmp_old"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	err := CleanScratch(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "non-regular entry")
	// Nothing may have been deleted: the violation is detected up front.
	entries, err2 := os.ReadDir(dir)
	require.NoError(t, err2)
	require.Len(t, entries, 2)
}

func TestFunctional_TestQuery_AllPass(t *testing.T) {
	unittest.MediumTest(t)
	opts := baseOptions(t)
	opts.Trials = 3
	h, err := New(opts)
	require.NoError(t, err)

	ctx := executil.FakeTestsContext(
		"Test_FakeExe_PrintsValid",
		"Test_FakeExe_PrintsValid",
		"Test_FakeExe_PrintsValid",
	)
	summary, err := h.Functional(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Results, 3)
	require.True(t, summary.AllPassed())
	passed, failed, reviewed := summary.Counts()
	require.Equal(t, 3, passed)
	require.Equal(t, 0, failed)
	require.Equal(t, 0, reviewed)
}

func TestFunctional_NonzeroExit_RecordedAndRunContinues(t *testing.T) {
	unittest.MediumTest(t)
	var out bytes.Buffer
	opts := baseOptions(t)
	opts.Trials = 2
	opts.Out = &out
	h, err := New(opts)
	require.NoError(t, err)

	ctx := executil.FakeTestsContext(
		"Test_FakeExe_ExitsOne",
		"Test_FakeExe_PrintsValid",
	)
	summary, err := h.Functional(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Results, 2)
	require.Equal(t, judge.Fail, summary.Results[0].Outcome)
	require.Equal(t, 1, summary.Results[0].ExitCode)
	require.Equal(t, judge.Pass, summary.Results[1].Outcome)
	require.Contains(t, out.String(), "exit code 1")
}

func TestFunctional_OutputMismatch_FailWithDiagnostic(t *testing.T) {
	unittest.MediumTest(t)
	var out bytes.Buffer
	opts := baseOptions(t)
	opts.Out = &out
	h, err := New(opts)
	require.NoError(t, err)

	ctx := executil.FakeTestsContext("Test_FakeExe_PrintsBanana")
	summary, err := h.Functional(ctx)
	require.NoError(t, err)
	require.Equal(t, judge.Fail, summary.Results[0].Outcome)
	require.Contains(t, out.String(), `expected: "Valid"`)
	require.Contains(t, out.String(), "Banana")
}

// recordingResolver counts calls and returns a fixed outcome.
type recordingResolver struct {
	resolved     int
	acknowledged int
	outcome      judge.Outcome
}

func (r *recordingResolver) Resolve(expected, actual string) (judge.Outcome, error) {
	r.resolved++
	return r.outcome, nil
}

func (r *recordingResolver) Acknowledge() error {
	r.acknowledged++
	return nil
}

func TestFunctional_SubstringOutput_GoesThroughResolver(t *testing.T) {
	unittest.MediumTest(t)
	resolver := &recordingResolver{outcome: judge.Pass}
	opts := baseOptions(t)
	opts.Resolver = resolver
	h, err := New(opts)
	require.NoError(t, err)

	ctx := executil.FakeTestsContext("Test_FakeExe_PrintsNoisyValid")
	summary, err := h.Functional(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, resolver.resolved)
	require.True(t, summary.Results[0].Reviewed)
	require.Equal(t, judge.Pass, summary.Results[0].Outcome)
	require.True(t, summary.AllPassed())
}

func TestFunctional_HLineQuery_SolverFakePasses(t *testing.T) {
	unittest.MediumTest(t)
	opts := baseOptions(t)
	opts.Query = QueryHLine
	opts.Size = geom.BitmapSize{Width: 20, Height: 10}
	opts.Trials = 5
	h, err := New(opts)
	require.NoError(t, err)

	ctx := executil.FakeTestsContext(
		"Test_FakeExe_SolvesHLine",
		"Test_FakeExe_SolvesHLine",
		"Test_FakeExe_SolvesHLine",
		"Test_FakeExe_SolvesHLine",
		"Test_FakeExe_SolvesHLine",
	)
	summary, err := h.Functional(ctx)
	require.NoError(t, err)
	require.True(t, summary.AllPassed(), "oracle and solver disagree: %+v", summary.Results)
}

func TestGenerate_TestQueryRandomValidity_VerdictsMatchGeneratedFiles(t *testing.T) {
	unittest.MediumTest(t)
	opts := baseOptions(t)
	opts.RandomValidity = true
	opts.Trials = 50
	h, err := New(opts)
	require.NoError(t, err)

	verdicts := map[string]int{}
	for i := 0; i < opts.Trials; i++ {
		path, expected, err := h.generate()
		require.NoError(t, err)
		require.FileExists(t, path)
		require.Contains(t, []string{string(fixture.Valid), string(fixture.Invalid)}, expected)
		verdicts[expected]++
	}
	// The validity coin must actually flip both ways over 50 trials.
	require.Positive(t, verdicts[string(fixture.Valid)])
	require.Positive(t, verdicts[string(fixture.Invalid)])
}

func TestSummarizeTimings(t *testing.T) {
	unittest.SmallTest(t)
	durations := []time.Duration{
		40 * time.Millisecond,
		10 * time.Millisecond,
		70 * time.Millisecond,
	}
	testutils.AssertDeepEqual(t, TimingSummary{
		Query:  QueryHLine,
		Trials: 3,
		Total:  120 * time.Millisecond,
		Mean:   40 * time.Millisecond,
		Min:    10 * time.Millisecond,
		Max:    70 * time.Millisecond,
	}, summarizeTimings(QueryHLine, durations))

	testutils.AssertDeepEqual(t, TimingSummary{Query: QueryTest}, summarizeTimings(QueryTest, nil))
}

func TestTimed_AggregatesAllTrials(t *testing.T) {
	unittest.MediumTest(t)
	opts := baseOptions(t)
	opts.Trials = 3
	h, err := New(opts)
	require.NoError(t, err)

	ctx := executil.FakeTestsContext(
		"Test_FakeExe_PrintsValid",
		"Test_FakeExe_PrintsValid",
		"Test_FakeExe_PrintsValid",
	)
	ts, err := h.Timed(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, ts.Trials)
	require.GreaterOrEqual(t, ts.Mean, ts.Min)
	require.LessOrEqual(t, ts.Mean, ts.Max)
	require.Equal(t, QueryTest, ts.Query)
}

func TestTimed_NonzeroExit_Fatal(t *testing.T) {
	unittest.MediumTest(t)
	opts := baseOptions(t)
	opts.Trials = 2
	h, err := New(opts)
	require.NoError(t, err)

	ctx := executil.FakeTestsContext("Test_FakeExe_ExitsOne")
	_, err = h.Timed(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "measurements are invalid")
}

// Fake implementations of the program under test. Each one is invoked as a
// separate process via executil; see that package's docs.

func Test_FakeExe_PrintsValid(t *testing.T) {
	unittest.FakeExeTest(t)
	if !executil.IsCallingFakeCommand() {
		return
	}
	fmt.Println("Valid")
	os.Exit(0)
}

func Test_FakeExe_PrintsBanana(t *testing.T) {
	unittest.FakeExeTest(t)
	if !executil.IsCallingFakeCommand() {
		return
	}
	fmt.Println("Banana")
	os.Exit(0)
}

func Test_FakeExe_PrintsNoisyValid(t *testing.T) {
	unittest.FakeExeTest(t)
	if !executil.IsCallingFakeCommand() {
		return
	}
	fmt.Println("the file is Valid, probably")
	os.Exit(0)
}

func Test_FakeExe_ExitsOne(t *testing.T) {
	unittest.FakeExeTest(t)
	if !executil.IsCallingFakeCommand() {
		return
	}
	os.Exit(1)
}

// Test_FakeExe_SolvesHLine is a real hline implementation: it parses the
// fixture it is given and prints the longest horizontal run, breaking ties
// toward the smaller row and then the smaller column, exactly like the
// reference program. Functional trials against it must always pass.
func Test_FakeExe_SolvesHLine(t *testing.T) {
	unittest.FakeExeTest(t)
	if !executil.IsCallingFakeCommand() {
		return
	}
	args := executil.OriginalArgs()
	if len(args) != 3 || args[1] != "hline" {
		fmt.Printf("unexpected args %v\n", args)
		os.Exit(3)
	}
	data, err := os.ReadFile(args[2])
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
	}
	tokens := strings.Fields(string(data))
	height, _ := strconv.Atoi(tokens[0])
	width, _ := strconv.Atoi(tokens[1])
	cells := tokens[2:]

	best := geom.InvalidLine()
	for row := 0; row < height; row++ {
		col := 0
		for col < width {
			if cells[row*width+col] != "1" {
				col++
				continue
			}
			begin := col
			for col < width && cells[row*width+col] == "1" {
				col++
			}
			line := geom.NewHLine(row, begin, col-1)
			if best.Invalid() || geom.CompareLines(line, best) > 0 {
				best = line
			}
		}
	}
	fmt.Println(best.Wire())
	os.Exit(0)
}

package fixture

import (
	"math/rand"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"go.skia.org/figtest/go/geom"
	"go.skia.org/figtest/go/testutils/unittest"
)

func TestSynthSegments_ExtentZero_ProducesNothing(t *testing.T) {
	unittest.SmallTest(t)
	rng := rand.New(rand.NewSource(1))
	require.Nil(t, synthSegments(rng, 0, 0))
	// The random source must not even be touched: the main loop is never
	// entered, so a following draw sees the untouched stream.
	control := rand.New(rand.NewSource(1))
	require.Equal(t, control.Int63(), rng.Int63())
}

func TestSynthSegments_DisjointAndIncreasing(t *testing.T) {
	unittest.SmallTest(t)
	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		for _, extent := range []int{1, 2, 3, 7, 16, 100} {
			segs := synthSegments(rng, extent, extent)
			prevBegin := -1
			prevEnd := -1
			for _, s := range segs {
				require.GreaterOrEqual(t, s.begin, 0)
				require.GreaterOrEqual(t, s.end, s.begin)
				require.LessOrEqual(t, s.end, extent)
				// Starts strictly increase and stamped runs stay disjoint.
				require.Greater(t, s.begin, prevBegin)
				require.Greater(t, s.begin, prevEnd)
				prevBegin = s.begin
				prevEnd = s.end
			}
		}
	}
}

// scanRuns returns the maximal runs of '1' cells in the given slice of cell
// bytes, as half-open [begin, end) intervals.
func scanRuns(cells []byte) [][2]int {
	var runs [][2]int
	begin := -1
	for i, c := range cells {
		if c == '1' && begin < 0 {
			begin = i
		}
		if c != '1' && begin >= 0 {
			runs = append(runs, [2]int{begin, i})
			begin = -1
		}
	}
	if begin >= 0 {
		runs = append(runs, [2]int{begin, len(cells)})
	}
	return runs
}

// readGrid parses a default-format fixture file back into rows of cell
// bytes.
func readGrid(t *testing.T, path string) (geom.BitmapSize, [][]byte) {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	header := strings.Fields(lines[0])
	require.Len(t, header, 2)
	size := geom.BitmapSize{}
	size.Height, err = strconv.Atoi(header[0])
	require.NoError(t, err)
	size.Width, err = strconv.Atoi(header[1])
	require.NoError(t, err)
	require.Len(t, lines[1:], size.Height)
	rows := make([][]byte, 0, size.Height)
	for _, line := range lines[1:] {
		tokens := strings.Split(line, " ")
		require.Len(t, tokens, size.Width)
		row := make([]byte, size.Width)
		for i, tok := range tokens {
			require.Len(t, tok, 1)
			row[i] = tok[0]
		}
		rows = append(rows, row)
	}
	return size, rows
}

func TestHLines_OracleIsTheLongestRowRun(t *testing.T) {
	unittest.MediumTest(t)
	for seed := int64(0); seed < 30; seed++ {
		g := New(t.TempDir(), seed, false)
		size := geom.BitmapSize{Width: 24, Height: 12}
		path, oracle, err := g.HLines(size)
		require.NoError(t, err)

		_, rows := readGrid(t, path)
		best := geom.InvalidLine()
		for rowIdx, row := range rows {
			for _, run := range scanRuns(row) {
				line := geom.NewHLine(rowIdx, run[0], run[1]-1)
				if best.Invalid() || geom.CompareLines(line, best) > 0 {
					best = line
				}
			}
		}
		require.Equal(t, best.Wire(), oracle.Wire(), "seed %d", seed)
	}
}

func TestVLines_OracleIsTheLongestColumnRun_BoundRespected(t *testing.T) {
	unittest.MediumTest(t)
	for seed := int64(0); seed < 30; seed++ {
		g := New(t.TempDir(), seed, false)
		size := geom.BitmapSize{Width: 10, Height: 27}
		path, oracle, err := g.VLines(size)
		require.NoError(t, err)

		_, rows := readGrid(t, path)
		best := geom.InvalidLine()
		for col := 0; col < size.Width; col++ {
			column := make([]byte, size.Height)
			for row := 0; row < size.Height; row++ {
				column[row] = rows[row][col]
			}
			for _, run := range scanRuns(column) {
				// The per-column length bound caps runs at extent/3 cells.
				require.LessOrEqual(t, run[1]-run[0], size.Height/vlineBoundDivisor)
				line := geom.NewVLine(col, run[0], run[1]-1)
				if best.Invalid() || geom.CompareLines(line, best) > 0 {
					best = line
				}
			}
		}
		require.Equal(t, best.Wire(), oracle.Wire(), "seed %d", seed)
	}
}

func TestHLines_SameSeed_ByteIdenticalContent(t *testing.T) {
	unittest.MediumTest(t)
	size := geom.BitmapSize{Width: 15, Height: 8}
	generate := func() ([]byte, geom.Line) {
		g := New(t.TempDir(), 99, true)
		path, oracle, err := g.HLines(size)
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return data, oracle
	}
	dataA, oracleA := generate()
	dataB, oracleB := generate()
	require.Equal(t, dataA, dataB)
	require.Equal(t, oracleA, oracleB)
}

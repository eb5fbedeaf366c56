package fixture

import (
	"math/rand"

	"go.skia.org/figtest/go/bitmap"
	"go.skia.org/figtest/go/geom"
	"go.skia.org/figtest/go/skerr"
)

// vlineBoundDivisor shortens the per-column length bound for vline fixtures
// relative to hline fixtures. The asymmetry is deliberate: tall bitmaps
// otherwise fill whole columns and the fixtures degenerate.
const vlineBoundDivisor = 3

// segment is a half-open [begin, end) run of filled cells along one axis.
// The sampler works in half-open coordinates; the wire format (and the
// program under test) use inclusive ones, so a segment's Line has trailing
// coordinate end-1.
type segment struct {
	begin int
	end   int
}

func (s segment) empty() bool {
	return s.end == s.begin
}

// synthSegments fills one axis of the given extent with pairwise disjoint
// random runs and returns them in increasing position order. bound is the
// inclusive upper limit for this call's maximum-segment-length draw. An
// extent of zero produces nothing: there is no axis to fill.
func synthSegments(rng *rand.Rand, extent, bound int) []segment {
	if extent <= 0 {
		return nil
	}
	maxlen := rng.Intn(bound + 1)
	var segs []segment
	cursor := 0
	for cursor+maxlen <= extent {
		begin := cursor + rng.Intn(maxlen+1)
		hi := begin + maxlen
		if hi > extent {
			hi = extent
		}
		end := begin + rng.Intn(hi-begin+1)
		segs = append(segs, segment{begin: begin, end: end})
		// Advancing past end leaves at least one empty cell between
		// consecutive stamped runs, so runs never coalesce.
		cursor = end + 1
	}
	return segs
}

// HLines writes a bitmap whose rows are filled with disjoint random
// horizontal runs and returns the fixture path plus the globally longest run
// as the oracle. If every drawn run is empty the oracle is the invalid
// sentinel, which serializes as "Not found".
func (g *Generator) HLines(size geom.BitmapSize) (string, geom.Line, error) {
	b, err := bitmap.New(size)
	if err != nil {
		return "", geom.InvalidLine(), skerr.Wrap(err)
	}
	max := geom.InvalidLine()
	for row := 0; row < size.Height; row++ {
		rowMax := geom.InvalidLine()
		for _, s := range synthSegments(g.rng, size.Width, size.Width) {
			if s.empty() {
				continue
			}
			for col := s.begin; col < s.end; col++ {
				b.Set(geom.Point{Row: row, Col: col})
			}
			line := geom.NewHLine(row, s.begin, s.end-1)
			if rowMax.Invalid() || geom.CompareLines(line, rowMax) > 0 {
				rowMax = line
			}
		}
		if rowMax.Invalid() {
			continue
		}
		// Strict improvement only: on ties the first-seen maximum stays,
		// which matches the scan order of the program under test.
		if max.Invalid() || geom.CompareLines(rowMax, max) > 0 {
			max = rowMax
		}
	}
	path, err := g.write(b)
	if err != nil {
		return "", geom.InvalidLine(), err
	}
	return path, max, nil
}

// VLines is the column-wise analog of HLines. The per-column length bound is
// extent/3 rather than the full extent; see vlineBoundDivisor.
func (g *Generator) VLines(size geom.BitmapSize) (string, geom.Line, error) {
	b, err := bitmap.New(size)
	if err != nil {
		return "", geom.InvalidLine(), skerr.Wrap(err)
	}
	max := geom.InvalidLine()
	for col := 0; col < size.Width; col++ {
		colMax := geom.InvalidLine()
		for _, s := range synthSegments(g.rng, size.Height, size.Height/vlineBoundDivisor) {
			if s.empty() {
				continue
			}
			for row := s.begin; row < s.end; row++ {
				b.Set(geom.Point{Row: row, Col: col})
			}
			line := geom.NewVLine(col, s.begin, s.end-1)
			if colMax.Invalid() || geom.CompareLines(line, colMax) > 0 {
				colMax = line
			}
		}
		if colMax.Invalid() {
			continue
		}
		if max.Invalid() || geom.CompareLines(colMax, max) > 0 {
			max = colMax
		}
	}
	path, err := g.write(b)
	if err != nil {
		return "", geom.InvalidLine(), err
	}
	return path, max, nil
}

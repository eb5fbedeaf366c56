package fixture

import (
	"go.skia.org/figtest/go/bitmap"
	"go.skia.org/figtest/go/geom"
	"go.skia.org/figtest/go/skerr"
	"go.skia.org/figtest/go/util"
)

const (
	// Between 1 and maxSquares squares are stamped per fixture.
	maxSquares = 10

	// Side lengths are drawn from [1, min(width,height)/sideBoundDivisor],
	// keeping individual squares small relative to the grid.
	sideBoundDivisor = 4
)

// Squares writes a bitmap with 1-10 random solid squares stamped onto it and
// returns the fixture path plus the largest stamped square as the oracle.
// Later squares may overlap earlier ones; the ground truth deliberately does
// not account for larger solid regions formed by such overlaps.
//
// The smaller grid dimension must be at least sideBoundDivisor, otherwise
// the side interval is empty.
func (g *Generator) Squares(size geom.BitmapSize) (string, geom.Square, error) {
	sideBound := util.MinInt(size.Width, size.Height) / sideBoundDivisor
	if sideBound < 1 {
		return "", geom.InvalidSquare(), skerr.Fmt("bitmap %s too small for square fixtures; min dimension must be at least %d", size, sideBoundDivisor)
	}
	b, err := bitmap.New(size)
	if err != nil {
		return "", geom.InvalidSquare(), skerr.Wrap(err)
	}

	num := 1 + g.rng.Intn(maxSquares)
	max := geom.InvalidSquare()
	for i := 0; i < num; i++ {
		side := 1 + g.rng.Intn(sideBound)
		row := g.rng.Intn(size.Height - side + 1)
		col := g.rng.Intn(size.Width - side + 1)
		sq := geom.NewSquare(row, col, side)
		b.StampSquare(sq)
		if max.Invalid() || geom.CompareSquares(sq, max) > 0 {
			max = sq
		}
	}

	path, err := g.write(b)
	if err != nil {
		return "", geom.InvalidSquare(), err
	}
	return path, max, nil
}

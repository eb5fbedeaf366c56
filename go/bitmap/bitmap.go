// Package bitmap models the 2D binary grids that fixtures are built from and
// serializes them into the textual format the program under test parses.
package bitmap

import (
	"fmt"
	"math/rand"

	"go.skia.org/figtest/go/geom"
	"go.skia.org/figtest/go/skerr"
)

// Cell values. The textual format stores one byte per cell.
const (
	CellEmpty  = byte('0')
	CellFilled = byte('1')
)

// Bitmap is a fixed-size grid of bit cells. The row count and per-row cell
// count never change after construction.
type Bitmap struct {
	size  geom.BitmapSize
	cells []byte // row-major, values CellEmpty or CellFilled
}

// New returns an all-empty bitmap of the given size. The size must have
// strictly positive dimensions.
func New(size geom.BitmapSize) (*Bitmap, error) {
	if !size.Valid() {
		return nil, skerr.Fmt("invalid bitmap size %s; both dimensions must be positive", size)
	}
	cells := make([]byte, size.Area())
	for i := range cells {
		cells[i] = CellEmpty
	}
	return &Bitmap{
		size:  size,
		cells: cells,
	}, nil
}

// Size returns the bitmap's dimensions.
func (b *Bitmap) Size() geom.BitmapSize {
	return b.size
}

func (b *Bitmap) index(p geom.Point) int {
	if !p.In(b.size) {
		panic(fmt.Sprintf("point %+v outside bitmap %s", p, b.size))
	}
	return p.Row*b.size.Width + p.Col
}

// Set marks the cell at p as filled. Panics if p is outside the bitmap;
// generators are responsible for only producing in-bounds geometry.
func (b *Bitmap) Set(p geom.Point) {
	b.cells[b.index(p)] = CellFilled
}

// Get returns the cell value at p.
func (b *Bitmap) Get(p geom.Point) byte {
	return b.cells[b.index(p)]
}

// StampSquare fills the square's whole footprint. The square must lie fully
// inside the bitmap.
func (b *Bitmap) StampSquare(sq geom.Square) {
	for row := sq.TopLeft.Row; row <= sq.BottomRight.Row; row++ {
		for col := sq.TopLeft.Col; col <= sq.BottomRight.Col; col++ {
			b.Set(geom.Point{Row: row, Col: col})
		}
	}
}

// FillRandom sets every cell independently to filled or empty with equal
// probability.
func (b *Bitmap) FillRandom(rng *rand.Rand) {
	for i := range b.cells {
		if rng.Intn(2) == 1 {
			b.cells[i] = CellFilled
		} else {
			b.cells[i] = CellEmpty
		}
	}
}

// row returns the raw cell bytes of one row.
func (b *Bitmap) row(row int) []byte {
	start := row * b.size.Width
	return b.cells[start : start+b.size.Width]
}

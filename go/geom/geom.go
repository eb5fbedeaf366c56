// Package geom contains the geometry value types shared by the fixture
// generators and the harness: bitmap sizes, points, lines, and squares.
//
// Wire format: the program under test prints the winning shape as four
// decimal integers "<begin row> <begin col> <end row> <end col>", begin
// being the top/left end. Wire() on Line and Square produces exactly that
// form so oracle values can be compared against captured stdout. A bitmap
// with no shape at all is reported as "Not found".
package geom

import "fmt"

// NotFound is what the program under test prints when the bitmap contains no
// matching shape. Invalid (sentinel) shapes serialize to this string.
const NotFound = "Not found"

// coordInvalid marks a coordinate of a sentinel shape. Valid coordinates are
// always non-negative.
const coordInvalid = -1

// BitmapSize describes the dimensions of a bitmap. Both dimensions of a
// valid size are strictly positive.
type BitmapSize struct {
	Width  int
	Height int
}

// Valid returns whether both dimensions are strictly positive.
func (s BitmapSize) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Area returns the number of cells in a bitmap of this size.
func (s BitmapSize) Area() int {
	return s.Width * s.Height
}

func (s BitmapSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Point is a single cell location. Row indexes lines top to bottom, Col
// indexes columns left to right, both from zero.
type Point struct {
	Row int
	Col int
}

// In returns whether the point lies inside a bitmap of the given size.
func (p Point) In(s BitmapSize) bool {
	return p.Row >= 0 && p.Row < s.Height && p.Col >= 0 && p.Col < s.Width
}

// Line is a horizontal or vertical run of set cells. Begin and End are
// inclusive endpoints; Begin is the left (horizontal) or top (vertical) end.
type Line struct {
	Begin Point
	End   Point
}

// NewHLine returns a horizontal line on the given row covering columns
// beginCol through endCol inclusive.
func NewHLine(row, beginCol, endCol int) Line {
	return Line{Begin: Point{Row: row, Col: beginCol}, End: Point{Row: row, Col: endCol}}
}

// NewVLine returns a vertical line on the given column covering rows
// beginRow through endRow inclusive.
func NewVLine(col, beginRow, endRow int) Line {
	return Line{Begin: Point{Row: beginRow, Col: col}, End: Point{Row: endRow, Col: col}}
}

// InvalidLine returns the sentinel value used before any line has been found.
func InvalidLine() Line {
	p := Point{Row: coordInvalid, Col: coordInvalid}
	return Line{Begin: p, End: p}
}

// Invalid returns whether the line is the sentinel value.
func (l Line) Invalid() bool {
	return l.Begin.Row == coordInvalid || l.Begin.Col == coordInvalid ||
		l.End.Row == coordInvalid || l.End.Col == coordInvalid
}

// Length is the coordinate difference along the varying axis. Note this is a
// difference, not a cell count: a single-cell line has length 0. It is the
// value lines are ranked by.
func (l Line) Length() int {
	d := (l.End.Row - l.Begin.Row) + (l.End.Col - l.Begin.Col)
	if d < 0 {
		return -d
	}
	return d
}

// Wire serializes the line in the program under test's output format.
func (l Line) Wire() string {
	if l.Invalid() {
		return NotFound
	}
	return fmt.Sprintf("%d %d %d %d", l.Begin.Row, l.Begin.Col, l.End.Row, l.End.Col)
}

// Square is an axis-aligned solid square of set cells, described by its
// inclusive top-left and bottom-right corners.
type Square struct {
	TopLeft     Point
	BottomRight Point
}

// NewSquare returns the square with the given top-left corner and side
// length. side must be at least 1.
func NewSquare(row, col, side int) Square {
	return Square{
		TopLeft:     Point{Row: row, Col: col},
		BottomRight: Point{Row: row + side - 1, Col: col + side - 1},
	}
}

// InvalidSquare returns the sentinel value used before any square has been
// found.
func InvalidSquare() Square {
	p := Point{Row: coordInvalid, Col: coordInvalid}
	return Square{TopLeft: p, BottomRight: p}
}

// Invalid returns whether the square is the sentinel value.
func (s Square) Invalid() bool {
	return s.TopLeft.Row == coordInvalid || s.TopLeft.Col == coordInvalid ||
		s.BottomRight.Row == coordInvalid || s.BottomRight.Col == coordInvalid
}

// Side returns the side length in cells, at least 1 for any valid square.
func (s Square) Side() int {
	return s.BottomRight.Row - s.TopLeft.Row + 1
}

// In returns whether the square lies fully inside a bitmap of the given size.
func (s Square) In(size BitmapSize) bool {
	return s.TopLeft.In(size) && s.BottomRight.In(size)
}

// Wire serializes the square in the program under test's output format.
func (s Square) Wire() string {
	if s.Invalid() {
		return NotFound
	}
	return fmt.Sprintf("%d %d %d %d", s.TopLeft.Row, s.TopLeft.Col, s.BottomRight.Row, s.BottomRight.Col)
}

// CompareLines ranks two valid lines the way the program under test does:
// the longer line wins; on equal length the smaller begin row wins, then the
// smaller begin column. Returns a negative value if a ranks below b, zero if
// they rank equal, positive if a ranks above b.
func CompareLines(a, b Line) int {
	if d := a.Length() - b.Length(); d != 0 {
		return d
	}
	if a.Begin.Row != b.Begin.Row {
		return b.Begin.Row - a.Begin.Row
	}
	return b.Begin.Col - a.Begin.Col
}

// CompareSquares ranks two valid squares: the larger side wins; on ties the
// smaller top row wins, then the smaller left column. Return value follows
// the CompareLines convention.
func CompareSquares(a, b Square) int {
	if d := a.Side() - b.Side(); d != 0 {
		return d
	}
	if a.TopLeft.Row != b.TopLeft.Row {
		return b.TopLeft.Row - a.TopLeft.Row
	}
	return b.TopLeft.Col - a.TopLeft.Col
}

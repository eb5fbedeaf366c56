package bitmap

import (
	"io"
	"math/rand"
	"strconv"

	"go.skia.org/figtest/go/geom"
	"go.skia.org/figtest/go/skerr"
)

// Textual fixture format:
//
//	line 1:       <height><SEP><width><LINE_END>
//	lines 2..N+1: <width cell bytes joined by SEP><LINE_END>
//
// SEP and LINE_END default to a single space and newline. Under whitespace
// fuzzing each occurrence is independently a 1-10 character run drawn from
// whitespaceGlyphs; the program under test's parser skips all whitespace, so
// fuzzed separators never change what the file means.
const (
	defaultSep     = " "
	defaultLineEnd = "\n"

	whitespaceGlyphs = " \t\n\v\f\r"
	maxWhitespaceRun = 10

	// invalidGlyphs are the symbols cell corruption draws from. None of them
	// is a valid cell byte or a whitespace character, so emitting any one of
	// them makes the file unparseable.
	invalidGlyphs = "23456789abcdefghXYZ*#@?!"
)

// Separators supplies the separator and line terminator, once per
// occurrence.
type Separators interface {
	Sep() string
	LineEnd() string
}

// fixedSeparators is the default single-space / single-newline policy.
type fixedSeparators struct{}

func (fixedSeparators) Sep() string     { return defaultSep }
func (fixedSeparators) LineEnd() string { return defaultLineEnd }

// FixedSeparators returns the default separator policy.
func FixedSeparators() Separators {
	return fixedSeparators{}
}

// fuzzedSeparators resamples every occurrence as a short random whitespace
// run.
type fuzzedSeparators struct {
	rng *rand.Rand
}

func (f fuzzedSeparators) draw() string {
	n := 1 + f.rng.Intn(maxWhitespaceRun)
	out := make([]byte, n)
	for i := range out {
		out[i] = whitespaceGlyphs[f.rng.Intn(len(whitespaceGlyphs))]
	}
	return string(out)
}

func (f fuzzedSeparators) Sep() string     { return f.draw() }
func (f fuzzedSeparators) LineEnd() string { return f.draw() }

// FuzzedSeparators returns a separator policy that draws each occurrence
// from the given random source.
func FuzzedSeparators(rng *rand.Rand) Separators {
	return fuzzedSeparators{rng: rng}
}

// Corruption records what a fuzzed encode actually emitted, so the caller
// can decide whether the written file still parses.
type Corruption struct {
	// EmittedHeight and EmittedWidth are the dimensions written to the
	// header. They differ from the bitmap's real dimensions only if the
	// corresponding coin flip came up.
	EmittedHeight int
	EmittedWidth  int
	// InvalidCells counts body cells that were replaced by an invalid
	// symbol.
	InvalidCells int
}

// Encoder writes bitmaps in the textual fixture format.
type Encoder struct {
	// Separators supplies SEP and LINE_END per occurrence. nil means the
	// default fixed policy.
	Separators Separators
}

func (e *Encoder) separators() Separators {
	if e.Separators == nil {
		return fixedSeparators{}
	}
	return e.Separators
}

// Encode writes the bitmap faithfully: correct header, every cell intact.
func (e *Encoder) Encode(w io.Writer, b *Bitmap) error {
	sep := e.separators()
	size := b.Size()
	if err := e.writeHeader(w, sep, size.Height, size.Width); err != nil {
		return skerr.Wrap(err)
	}
	for row := 0; row < size.Height; row++ {
		if err := e.writeRow(w, sep, b.row(row), nil); err != nil {
			return skerr.Wrap(err)
		}
	}
	return nil
}

// EncodeCorrupt writes the bitmap with randomized dimension and cell
// corruption: each header dimension is independently, with probability 1/2,
// replaced by an integer uniform in [0, original]; each body cell is
// independently, with probability 1/2, replaced by an invalid symbol. The
// returned Corruption reports exactly what was emitted.
func (e *Encoder) EncodeCorrupt(w io.Writer, b *Bitmap, rng *rand.Rand) (Corruption, error) {
	sep := e.separators()
	size := b.Size()
	c := Corruption{
		EmittedHeight: size.Height,
		EmittedWidth:  size.Width,
	}
	if rng.Intn(2) == 1 {
		c.EmittedHeight = rng.Intn(size.Height + 1)
	}
	if rng.Intn(2) == 1 {
		c.EmittedWidth = rng.Intn(size.Width + 1)
	}
	if err := e.writeHeader(w, sep, c.EmittedHeight, c.EmittedWidth); err != nil {
		return Corruption{}, skerr.Wrap(err)
	}
	corrupt := func(cell byte) byte {
		if rng.Intn(2) == 1 {
			c.InvalidCells++
			return invalidGlyphs[rng.Intn(len(invalidGlyphs))]
		}
		return cell
	}
	for row := 0; row < size.Height; row++ {
		if err := e.writeRow(w, sep, b.row(row), corrupt); err != nil {
			return Corruption{}, skerr.Wrap(err)
		}
	}
	return c, nil
}

func (e *Encoder) writeHeader(w io.Writer, sep Separators, height, width int) error {
	_, err := io.WriteString(w, strconv.Itoa(height)+sep.Sep()+strconv.Itoa(width)+sep.LineEnd())
	return err
}

// writeRow emits one body row. corrupt, if non-nil, maps each cell byte to
// the byte actually emitted.
func (e *Encoder) writeRow(w io.Writer, sep Separators, cells []byte, corrupt func(byte) byte) error {
	buf := make([]byte, 0, 2*len(cells))
	for i, cell := range cells {
		if i > 0 {
			buf = append(buf, sep.Sep()...)
		}
		if corrupt != nil {
			cell = corrupt(cell)
		}
		buf = append(buf, cell)
	}
	buf = append(buf, sep.LineEnd()...)
	_, err := w.Write(buf)
	return err
}

// Ensure the policies satisfy Separators.
var _ Separators = fixedSeparators{}
var _ Separators = fuzzedSeparators{}

// ParsesAs reports how a figsearch-style loader classifies a file produced
// by EncodeCorrupt: the loader skips all whitespace, rejects any other
// non-cell glyph, rejects a zero dimension, and requires the number of cell
// glyphs to equal the product of the header dimensions.
func (c Corruption) ParsesAs(original geom.BitmapSize) bool {
	if c.InvalidCells > 0 {
		return false
	}
	if c.EmittedHeight == 0 || c.EmittedWidth == 0 {
		return false
	}
	return c.EmittedHeight*c.EmittedWidth == original.Area()
}

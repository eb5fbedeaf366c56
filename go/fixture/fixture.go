// Package fixture generates randomized bitmap fixture files and computes, in
// the same pass, the ground-truth answer (the oracle) the program under test
// is expected to print for them.
//
// All randomness flows through one explicit seeded source, so a run is fully
// reproducible: the same seed regenerates byte-identical fixture content.
// Fixture filenames carry a random UUID suffix instead, purely to avoid
// collisions inside a scratch directory; they are not part of the
// reproducible surface.
package fixture

import (
	"io"
	"math/rand"
	"path/filepath"

	"github.com/google/uuid"

	"go.skia.org/figtest/go/bitmap"
	"go.skia.org/figtest/go/geom"
	"go.skia.org/figtest/go/skerr"
	"go.skia.org/figtest/go/util"
)

// Validity is the verdict a `test` query fixture carries: exactly what the
// program under test must print on stdout.
type Validity string

const (
	Valid   Validity = "Valid"
	Invalid Validity = "Invalid"
)

// Generator produces fixture files in a scratch directory.
type Generator struct {
	rng            *rand.Rand
	scratchDir     string
	whitespaceFuzz bool
}

// New returns a Generator writing into scratchDir, drawing all randomness
// from the given seed. With whitespaceFuzz set, every separator and line
// terminator in written files is an irregular whitespace run.
func New(scratchDir string, seed int64, whitespaceFuzz bool) *Generator {
	return &Generator{
		rng:            rand.New(rand.NewSource(seed)),
		scratchDir:     scratchDir,
		whitespaceFuzz: whitespaceFuzz,
	}
}

// Coin draws a fair coin flip from the generator's random source. The
// harness uses it to pick between valid and fuzzed generation per trial, so
// the decision is covered by the run's seed.
func (g *Generator) Coin() bool {
	return g.rng.Intn(2) == 1
}

func (g *Generator) separators() bitmap.Separators {
	if g.whitespaceFuzz {
		return bitmap.FuzzedSeparators(g.rng)
	}
	return bitmap.FixedSeparators()
}

// nextPath returns a fresh fixture path in the scratch directory.
func (g *Generator) nextPath() string {
	return filepath.Join(g.scratchDir, "bmp_"+uuid.New().String())
}

// write serializes the bitmap to a new fixture file and returns its path.
func (g *Generator) write(b *bitmap.Bitmap) (string, error) {
	path := g.nextPath()
	enc := bitmap.Encoder{Separators: g.separators()}
	err := util.WithWriteFile(path, func(w io.Writer) error {
		return enc.Encode(w, b)
	})
	if err != nil {
		return "", skerr.Wrapf(err, "writing fixture %s", path)
	}
	return path, nil
}

// Valid writes a fully valid random bitmap, each cell set with probability
// 1/2, and returns the fixture path.
func (g *Generator) Valid(size geom.BitmapSize) (string, error) {
	b, err := bitmap.New(size)
	if err != nil {
		return "", skerr.Wrap(err)
	}
	b.FillRandom(g.rng)
	return g.write(b)
}

// Fuzzed writes a random bitmap through the corrupting encoder and returns
// the fixture path together with the verdict the program under test must
// print for it. Note the verdict is derived from what was actually emitted:
// corruption coin flips can leave a file parseable (e.g. dimensions replaced
// by their original values), and such a file is Valid.
func (g *Generator) Fuzzed(size geom.BitmapSize) (string, Validity, error) {
	b, err := bitmap.New(size)
	if err != nil {
		return "", "", skerr.Wrap(err)
	}
	b.FillRandom(g.rng)

	path := g.nextPath()
	enc := bitmap.Encoder{Separators: g.separators()}
	var corruption bitmap.Corruption
	err = util.WithWriteFile(path, func(w io.Writer) error {
		var encErr error
		corruption, encErr = enc.EncodeCorrupt(w, b, g.rng)
		return encErr
	})
	if err != nil {
		return "", "", skerr.Wrapf(err, "writing fuzzed fixture %s", path)
	}
	if corruption.ParsesAs(size) {
		return path, Valid, nil
	}
	return path, Invalid, nil
}

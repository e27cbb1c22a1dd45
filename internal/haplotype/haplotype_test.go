package haplotype

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coalseq/internal/model"
	"coalseq/internal/treeseq"
)

func testSequence(t *testing.T) *treeseq.TreeSequence {
	t.Helper()
	ts, err := treeseq.New(model.Container{
		Breakpoints: []uint32{0, 5, 10},
		Records: model.RecordColumns{
			Left:     []uint32{0, 0, 5},
			Right:    []uint32{10, 5, 10},
			Children: [][2]uint32{{1, 2}, {3, 4}, {3, 4}},
			Parent:   []uint32{4, 5, 6},
			Time:     []float64{1.0, 2.0, 3.0},
		},
		Parameters: model.Parameters{SampleSize: 3, NumLoci: 10},
	}, true)
	require.NoError(t, err)
	return ts
}

func TestZeroRateProducesNoSites(t *testing.T) {
	g, err := NewGenerator(testSequence(t), 0, Config{Seed: 1})
	require.NoError(t, err)
	require.Equal(t, 0, g.NumSegregatingSites())
	require.Equal(t, []string{"", "", ""}, g.HaplotypeStrings())
}

func TestNegativeRateRejected(t *testing.T) {
	_, err := NewGenerator(testSequence(t), -0.5, Config{Seed: 1})
	require.ErrorIs(t, err, treeseq.ErrMalformedInput)
}

func TestSeedIsRecorded(t *testing.T) {
	g, err := NewGenerator(testSequence(t), 0, Config{Seed: 42})
	require.NoError(t, err)
	require.Equal(t, uint64(42), g.Seed())

	g, err = NewGenerator(testSequence(t), 0, Config{})
	require.NoError(t, err)
	require.NotZero(t, g.Seed())
}

func TestFixedSeedIsReproducible(t *testing.T) {
	a, err := NewGenerator(testSequence(t), 2.5, Config{Seed: 7})
	require.NoError(t, err)
	b, err := NewGenerator(testSequence(t), 2.5, Config{Seed: 7})
	require.NoError(t, err)

	require.Equal(t, a.NumSegregatingSites(), b.NumSegregatingSites())
	require.Equal(t, a.Haplotypes(), b.Haplotypes())
}

// Every branch hangs below the root, so every segregating site splits the
// samples into two non-empty classes.
func TestSitesArePolymorphic(t *testing.T) {
	g, err := NewGenerator(testSequence(t), 5.0, Config{Seed: 3})
	require.NoError(t, err)

	rows := g.HaplotypeStrings()
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.Len(t, row, g.NumSegregatingSites())
		for _, b := range row {
			require.Contains(t, "01", string(b))
		}
	}
	for j := 0; j < g.NumSegregatingSites(); j++ {
		ones := 0
		for _, row := range rows {
			if row[j] == '1' {
				ones++
			}
		}
		require.Greater(t, ones, 0, "site %d", j)
		require.Less(t, ones, len(rows), "site %d", j)
	}
}

// A high rate pushes the site count past the initial capacity of one column
// per locus, forcing matrix growth.
func TestMatrixGrowsBeyondInitialCapacity(t *testing.T) {
	g, err := NewGenerator(testSequence(t), 100.0, Config{Seed: 11})
	require.NoError(t, err)
	require.Greater(t, g.NumSegregatingSites(), 10)
	for _, row := range g.Haplotypes() {
		require.Len(t, row, g.NumSegregatingSites())
	}
}

func TestSiteLimitExceeded(t *testing.T) {
	_, err := NewGenerator(testSequence(t), 100.0, Config{Seed: 11, MaxSites: 1})
	require.ErrorIs(t, err, treeseq.ErrCapacityExceeded)
}

func TestHaplotypeRowsAreCopies(t *testing.T) {
	g, err := NewGenerator(testSequence(t), 2.5, Config{Seed: 7})
	require.NoError(t, err)
	if g.NumSegregatingSites() == 0 {
		t.Skip("no sites realized for this seed")
	}
	row := g.Haplotype(0)
	row[0] = 'x'
	require.NotEqual(t, byte('x'), g.Haplotype(0)[0])
}

func TestTraversalErrorsSurfaceAtConstruction(t *testing.T) {
	ts, err := treeseq.New(model.Container{
		Records: model.RecordColumns{
			Left:     []uint32{0, 0},
			Right:    []uint32{5, 10},
			Children: [][2]uint32{{1, 2}, {1, 2}},
			Parent:   []uint32{3, 4},
			Time:     []float64{1.0, 2.0},
		},
		Parameters: model.Parameters{SampleSize: 2, NumLoci: 10},
	}, true)
	require.NoError(t, err)

	_, err = NewGenerator(ts, 1.0, Config{Seed: 5})
	require.ErrorIs(t, err, treeseq.ErrUnterminatedAncestry)
}

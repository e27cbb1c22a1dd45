package newick

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coalseq/internal/model"
	"coalseq/internal/treeseq"
)

func singleTreeSequence(t *testing.T) *treeseq.TreeSequence {
	t.Helper()
	ts, err := treeseq.New(model.Container{
		Breakpoints: []uint32{0, 10},
		Records: model.RecordColumns{
			Left:     []uint32{0, 0, 0},
			Right:    []uint32{10, 10, 10},
			Children: [][2]uint32{{1, 2}, {3, 5}, {4, 6}},
			Parent:   []uint32{5, 6, 7},
			Time:     []float64{0.5, 1.0, 1.5},
		},
		Parameters: model.Parameters{SampleSize: 4, NumLoci: 10},
	}, true)
	require.NoError(t, err)
	return ts
}

func twoTreeSequence(t *testing.T, breakpoints []uint32) *treeseq.TreeSequence {
	t.Helper()
	ts, err := treeseq.New(model.Container{
		Breakpoints: breakpoints,
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

func collect(t *testing.T, g *Generator) []Interval {
	t.Helper()
	var out []Interval
	for g.Next() {
		out = append(out, g.Interval())
	}
	require.NoError(t, g.Err())
	return out
}

func TestGeneratorSingleTree(t *testing.T) {
	g := NewGenerator(singleTreeSequence(t), DefaultPrecision, false)
	out := collect(t, g)
	require.Equal(t, []Interval{
		{Length: 10, Tree: "(4:1.500,(3:1.000,(1:0.500,2:0.500):0.500):0.500);"},
	}, out)
}

func TestGeneratorTwoTrees(t *testing.T) {
	g := NewGenerator(twoTreeSequence(t, []uint32{0, 5, 10}), DefaultPrecision, false)
	out := collect(t, g)
	require.Equal(t, []Interval{
		{Length: 5, Tree: "(3:2.000,(1:1.000,2:1.000):1.000);"},
		{Length: 5, Tree: "(3:3.000,(1:1.000,2:1.000):2.000);"},
	}, out)
}

func TestGeneratorPrecision(t *testing.T) {
	g := NewGenerator(twoTreeSequence(t, []uint32{0, 5, 10}), 1, false)
	out := collect(t, g)
	require.Equal(t, "(3:2.0,(1:1.0,2:1.0):1.0);", out[0].Tree)

	// Negative precision falls back to the default.
	g = NewGenerator(twoTreeSequence(t, []uint32{0, 5, 10}), -1, false)
	out = collect(t, g)
	require.Equal(t, "(3:2.000,(1:1.000,2:1.000):1.000);", out[0].Tree)
}

func TestGeneratorAllBreaks(t *testing.T) {
	g := NewGenerator(twoTreeSequence(t, []uint32{0, 2, 5, 10}), DefaultPrecision, true)
	out := collect(t, g)
	require.Len(t, out, 3)
	require.Equal(t, uint32(2), out[0].Length)
	require.Equal(t, uint32(3), out[1].Length)
	require.Equal(t, uint32(5), out[2].Length)
	// The breakpoint at locus 2 splits the first genealogy without
	// changing it.
	require.Equal(t, out[0].Tree, out[1].Tree)
	require.NotEqual(t, out[1].Tree, out[2].Tree)
}

func TestGeneratorIncompleteCoalescence(t *testing.T) {
	ts, err := treeseq.New(model.Container{
		Records: model.RecordColumns{
			Left:     []uint32{0},
			Right:    []uint32{10},
			Children: [][2]uint32{{1, 2}},
			Parent:   []uint32{4},
			Time:     []float64{1.0},
		},
		Parameters: model.Parameters{SampleSize: 3, NumLoci: 10},
	}, true)
	require.NoError(t, err)

	g := NewGenerator(ts, DefaultPrecision, false)
	require.False(t, g.Next())
	require.ErrorIs(t, g.Err(), treeseq.ErrIncompleteCoalescence)
}

func TestGeneratorPropagatesDiffErrors(t *testing.T) {
	ts, err := treeseq.New(model.Container{
		Records: model.RecordColumns{
			Left:     []uint32{0, 5},
			Right:    []uint32{5, 8},
			Children: [][2]uint32{{1, 2}, {1, 2}},
			Parent:   []uint32{3, 4},
			Time:     []float64{1.0, 2.0},
		},
		Parameters: model.Parameters{SampleSize: 2, NumLoci: 10},
	}, true)
	require.NoError(t, err)

	g := NewGenerator(ts, DefaultPrecision, false)
	require.True(t, g.Next())
	require.Equal(t, "(1:1.000,2:1.000);", g.Interval().Tree)
	require.False(t, g.Next())
	require.ErrorIs(t, g.Err(), treeseq.ErrMalformedInput)
}

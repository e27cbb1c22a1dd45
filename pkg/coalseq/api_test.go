package coalseq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"coalseq/internal/model"
	"coalseq/internal/storage"
	"coalseq/internal/treeseq"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), Options{StoreKind: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, c.Close())
	})
	return c
}

func testContainerJSON(t *testing.T) []byte {
	t.Helper()
	data, err := storage.EncodeContainer(model.Container{
		FileVersion:    model.FileVersion,
		LibraryVersion: model.LibraryVersion,
		Breakpoints:    []uint32{0, 5, 10},
		Records: model.RecordColumns{
			// Deliberately unsorted; import normalizes the order.
			Left:     []uint32{5, 0, 0},
			Right:    []uint32{10, 10, 5},
			Children: [][2]uint32{{3, 4}, {1, 2}, {3, 4}},
			Parent:   []uint32{6, 4, 5},
			Time:     []float64{3.0, 1.0, 2.0},
		},
		Parameters: model.Parameters{
			SampleSize:              3,
			NumLoci:                 10,
			ScaledRecombinationRate: 0.25,
			RandomSeed:              42,
		},
		Environment: model.CurrentEnvironment(),
	})
	require.NoError(t, err)
	return data
}

func TestImportNormalizesAndExportIsStable(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	require.NoError(t, c.Import(ctx, "run-1", testContainerJSON(t)))

	exported, err := c.Export(ctx, "run-1")
	require.NoError(t, err)

	// A second import of the exported form replays byte-identically.
	require.NoError(t, c.Import(ctx, "run-2", exported))
	again, err := c.Export(ctx, "run-2")
	require.NoError(t, err)
	require.Equal(t, exported, again)

	var lefts []uint32
	require.NoError(t, c.Records(ctx, "run-1", func(r treeseq.Record) error {
		lefts = append(lefts, r.Left)
		return nil
	}))
	require.Equal(t, []uint32{0, 0, 5}, lefts)

	// The re-imported sequence replays identically.
	newickOf := func(id string) []string {
		var trees []string
		require.NoError(t, c.Newick(ctx, id, 3, false, func(_ uint32, tree string) error {
			trees = append(trees, tree)
			return nil
		}))
		return trees
	}
	require.Equal(t, newickOf("run-1"), newickOf("run-2"))
}

func TestImportRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	require.Error(t, c.Import(ctx, "bad", []byte("{not json")))

	data, err := storage.EncodeContainer(model.Container{
		Records: model.RecordColumns{
			Left:     []uint32{5},
			Right:    []uint32{5},
			Children: [][2]uint32{{1, 2}},
			Parent:   []uint32{3},
			Time:     []float64{1.0},
		},
		Parameters: model.Parameters{SampleSize: 2, NumLoci: 10},
	})
	require.NoError(t, err)
	require.ErrorIs(t, c.Import(ctx, "bad", data), ErrMalformedInput)
}

func TestListAndInfo(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	require.NoError(t, c.Import(ctx, "run-1", testContainerJSON(t)))

	ids, err := c.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"run-1"}, ids)

	info, err := c.Info(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, "run-1", info.ID)
	require.Equal(t, uint32(3), info.SampleSize)
	require.Equal(t, uint32(10), info.NumLoci)
	require.Equal(t, 3, info.NumRecords)
	require.Equal(t, 3, info.NumBreakpoints)
	require.Contains(t, info.ParametersJSON, `"random_seed":42`)
	require.NotEmpty(t, info.EnvironmentJSON)
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.Export(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = c.Info(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	err = c.Newick(ctx, "missing", 3, false, func(uint32, string) error { return nil })
	require.ErrorIs(t, err, ErrNotFound)
	_, err = c.Haplotypes(ctx, "missing", 1.0, 1, 0)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNewickStream(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	require.NoError(t, c.Import(ctx, "run-1", testContainerJSON(t)))

	var trees []string
	var total uint32
	require.NoError(t, c.Newick(ctx, "run-1", 3, false, func(length uint32, tree string) error {
		total += length
		trees = append(trees, tree)
		return nil
	}))
	require.Equal(t, uint32(10), total)
	require.Equal(t, []string{
		"(3:2.000,(1:1.000,2:1.000):1.000);",
		"(3:3.000,(1:1.000,2:1.000):2.000);",
	}, trees)
}

func TestTreesStream(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	require.NoError(t, c.Import(ctx, "run-1", testContainerJSON(t)))

	var parents []map[uint32]uint32
	require.NoError(t, c.Trees(ctx, "run-1", func(tr treeseq.Tree) error {
		parents = append(parents, tr.Parent)
		return nil
	}))
	require.Equal(t, []map[uint32]uint32{
		{1: 4, 2: 4, 3: 5, 4: 5},
		{1: 4, 2: 4, 3: 6, 4: 6},
	}, parents)
}

func TestHaplotypesReproducible(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	require.NoError(t, c.Import(ctx, "run-1", testContainerJSON(t)))

	a, err := c.Haplotypes(ctx, "run-1", 2.5, 7, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(7), a.Seed)
	require.Len(t, a.Haplotypes, 3)

	b, err := c.Haplotypes(ctx, "run-1", 2.5, 7, 0)
	require.NoError(t, err)
	require.Equal(t, a, b)

	if a.NumSites > 1 {
		_, err = c.Haplotypes(ctx, "run-1", 2.5, 7, 1)
		require.ErrorIs(t, err, ErrCapacityExceeded)
	}
}

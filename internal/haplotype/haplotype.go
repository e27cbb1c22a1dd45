// Package haplotype places simulated mutations on the trees of a tree
// sequence under an infinite-sites model and accumulates the resulting
// binary haplotype matrix, one row per sample.
package haplotype

import (
	"fmt"
	"sort"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"coalseq/internal/treeseq"
)

// Config tunes a Generator. Zero values select defaults: a fresh random
// seed (recorded and retrievable via Seed) and unbounded site capacity.
type Config struct {
	// Seed fixes the generator's random stream; 0 draws a fresh seed.
	Seed uint64
	// MaxSites caps the number of segregating sites; 0 means unbounded.
	MaxSites int
}

// Generator walks the diff stream of a tree sequence once, at construction
// time, drawing a Poisson-distributed mutation count per interval scaled by
// total branch length and propagating each mutation to the samples below
// its branch. The finished matrix is then available through the accessors.
type Generator struct {
	sampleSize uint32
	numLoci    uint32
	rate       float64
	seed       uint64
	rng        *rand.Rand
	src        rand.Source

	children    map[uint32][2]uint32
	time        map[uint32]float64
	branchLen   map[uint32]float64
	totalLength float64

	numSites  int
	capSites  int
	siteLimit int
	matrix    [][]byte
}

// NewGenerator builds the haplotypes for ts under the given scaled mutation
// rate. The traversal runs eagerly; any input defect surfaces here.
func NewGenerator(ts *treeseq.TreeSequence, scaledMutationRate float64, cfg Config) (*Generator, error) {
	if scaledMutationRate < 0 {
		return nil, fmt.Errorf("%w: negative mutation rate %v", treeseq.ErrMalformedInput, scaledMutationRate)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	n := ts.SampleSize()
	src := rand.NewSource(seed)
	g := &Generator{
		sampleSize: n,
		numLoci:    ts.NumLoci(),
		rate:       scaledMutationRate,
		seed:       seed,
		rng:        rand.New(src),
		src:        src,
		children:   make(map[uint32][2]uint32),
		time:       make(map[uint32]float64, 2*n-1),
		branchLen:  make(map[uint32]float64, 2*n-2),
		capSites:   int(ts.NumLoci()),
		siteLimit:  cfg.MaxSites,
	}
	for j := uint32(1); j <= n; j++ {
		g.time[j] = 0
	}
	g.matrix = newMatrix(int(n), g.capSites)
	if err := g.generate(ts); err != nil {
		return nil, err
	}
	return g, nil
}

// Seed returns the seed actually used, whether supplied or drawn.
func (g *Generator) Seed() uint64 { return g.seed }

// NumSegregatingSites returns the realized number of variant columns.
func (g *Generator) NumSegregatingSites() int { return g.numSites }

// Haplotype returns a copy of sample i's row (samples are 0-indexed here,
// so row i belongs to sample node i+1).
func (g *Generator) Haplotype(i int) []byte {
	return append([]byte(nil), g.matrix[i][:g.numSites]...)
}

// Haplotypes returns copies of all rows.
func (g *Generator) Haplotypes() [][]byte {
	rows := make([][]byte, g.sampleSize)
	for i := range rows {
		rows[i] = g.Haplotype(i)
	}
	return rows
}

// HaplotypeStrings returns one '0'/'1' string per sample.
func (g *Generator) HaplotypeStrings() []string {
	rows := make([]string, g.sampleSize)
	for i := range rows {
		rows[i] = string(g.matrix[i][:g.numSites])
	}
	return rows
}

func (g *Generator) generate(ts *treeseq.TreeSequence) error {
	diffs := ts.Diffs(false)
	for diffs.Next() {
		d := diffs.Diff()
		for _, e := range d.Out {
			delete(g.children, e.Parent)
			delete(g.time, e.Parent)
			for _, child := range e.Children {
				g.totalLength -= g.branchLen[child]
				delete(g.branchLen, child)
			}
		}
		for _, e := range d.In {
			g.children[e.Parent] = e.Children
			g.time[e.Parent] = e.Time
		}
		for _, e := range d.In {
			for _, child := range e.Children {
				bl := e.Time - g.time[child]
				g.branchLen[child] = bl
				g.totalLength += bl
			}
		}

		mu := g.totalLength * g.rate * float64(d.Length) / float64(g.numLoci)
		if mu <= 0 {
			continue
		}
		numMutations := int(distuv.Poisson{Lambda: mu, Src: g.src}.Rand())
		if numMutations == 0 {
			continue
		}
		branches, err := g.drawBranches(numMutations)
		if err != nil {
			return err
		}
		if err := g.applyMutations(branches); err != nil {
			return err
		}
	}
	return diffs.Err()
}

// drawBranches samples branches with replacement, weighted by branch
// length, using a cumulative-weight array and binary search. Branches are
// ordered by node id so a fixed seed reproduces the same draws.
func (g *Generator) drawBranches(count int) ([]uint32, error) {
	if len(g.branchLen) == 0 {
		return nil, fmt.Errorf("%w: mutations drawn on an interval with no branches", treeseq.ErrIncompleteCoalescence)
	}
	nodes := make([]uint32, 0, len(g.branchLen))
	for node := range g.branchLen {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	cum := make([]float64, len(nodes))
	total := 0.0
	for i, node := range nodes {
		total += g.branchLen[node]
		cum[i] = total
	}
	branches := make([]uint32, count)
	for i := range branches {
		u := g.rng.Float64() * total
		idx := sort.SearchFloat64s(cum, u)
		if idx >= len(nodes) {
			idx = len(nodes) - 1
		}
		branches[i] = nodes[idx]
	}
	return branches, nil
}

// applyMutations grows the matrix if needed, then walks down from each
// mutated branch flipping the new site column for every sample reached.
// This is the rare-mutation path: mutation counts per interval are small,
// so a per-mutation downward walk beats recomputing sample sets.
func (g *Generator) applyMutations(branches []uint32) error {
	needed := g.numSites + len(branches)
	if g.siteLimit > 0 && needed > g.siteLimit {
		return fmt.Errorf("%w: %d segregating sites requested, limit %d",
			treeseq.ErrCapacityExceeded, needed, g.siteLimit)
	}
	if needed >= g.capSites {
		grown := 2 * g.capSites
		if grown < needed+1 {
			grown = needed + 1
		}
		next := newMatrix(int(g.sampleSize), grown)
		for i := range next {
			copy(next[i], g.matrix[i][:g.numSites])
		}
		g.matrix = next
		g.capSites = grown
	}

	stack := make([]uint32, 0, 2*g.sampleSize)
	for _, node := range branches {
		stack = append(stack[:0], node)
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if u <= g.sampleSize {
				g.matrix[u-1][g.numSites] = '1'
			} else {
				ch := g.children[u]
				stack = append(stack, ch[0], ch[1])
			}
		}
		g.numSites++
	}
	return nil
}

func newMatrix(rows, cols int) [][]byte {
	if cols < 1 {
		cols = 1
	}
	m := make([][]byte, rows)
	for i := range m {
		row := make([]byte, cols)
		for j := range row {
			row[j] = '0'
		}
		m[i] = row
	}
	return m
}

// Package newick renders the trees of a tree sequence as Newick strings,
// one per genomic interval, rebuilding only the subtrees touched by edge
// changes between adjacent intervals.
package newick

import (
	"fmt"
	"strconv"

	"coalseq/internal/treeseq"
)

// DefaultPrecision is the number of decimal places used for branch lengths
// when the caller does not choose one.
const DefaultPrecision = 3

// Interval pairs a genomic interval length with the Newick serialization of
// the tree covering it.
type Interval struct {
	Length uint32
	Tree   string
}

// Generator is a forward-only iterator over the Newick trees of a sequence.
// It maintains per-node cached subtree strings, invalidated along ancestor
// paths as edges change, so each interval costs work proportional to the
// number of changed edges rather than the tree size.
type Generator struct {
	diffs      *treeseq.DiffIterator
	sampleSize uint32
	precision  int

	children     map[uint32][2]uint32
	parent       map[uint32]uint32
	time         map[uint32]float64
	branchLength map[uint32][]byte
	subtree      map[uint32][]byte
	root         uint32

	cur Interval
	err error
}

// NewGenerator prepares a generator over ts. Branch lengths are formatted
// with the given number of decimal places; with allBreaks set, one tree is
// emitted per breakpoint segment instead of per genealogy change.
func NewGenerator(ts *treeseq.TreeSequence, precision int, allBreaks bool) *Generator {
	if precision < 0 {
		precision = DefaultPrecision
	}
	n := ts.SampleSize()
	g := &Generator{
		diffs:        ts.Diffs(allBreaks),
		sampleSize:   n,
		precision:    precision,
		children:     make(map[uint32][2]uint32),
		parent:       make(map[uint32]uint32),
		time:         make(map[uint32]float64, 2*n-1),
		branchLength: make(map[uint32][]byte),
		subtree:      make(map[uint32][]byte),
	}
	for j := uint32(1); j <= n; j++ {
		g.time[j] = 0
	}
	return g
}

// Next advances to the next interval, returning false on exhaustion or
// error.
func (g *Generator) Next() bool {
	if g.err != nil {
		return false
	}
	if !g.diffs.Next() {
		g.err = g.diffs.Err()
		return false
	}
	d := g.diffs.Diff()

	for _, e := range d.Out {
		delete(g.children, e.Parent)
		delete(g.time, e.Parent)
		for _, child := range e.Children {
			g.invalidate(child)
			delete(g.parent, child)
			delete(g.branchLength, child)
		}
	}
	for _, e := range d.In {
		g.children[e.Parent] = e.Children
		for _, child := range e.Children {
			g.parent[child] = e.Parent
			g.invalidate(child)
		}
		g.time[e.Parent] = e.Time
	}
	for _, e := range d.In {
		for _, child := range e.Children {
			g.branchLength[child] = strconv.AppendFloat(nil, e.Time-g.time[child], 'f', g.precision, 64)
		}
	}

	g.root = 1
	for {
		p, ok := g.parent[g.root]
		if !ok {
			break
		}
		g.root = p
	}

	n := int(g.sampleSize)
	if len(g.time) != 2*n-1 || len(g.parent) != 2*n-2 || len(g.branchLength) != 2*n-2 {
		g.err = fmt.Errorf("%w: interval has %d node times and %d parent edges, want %d and %d",
			treeseq.ErrIncompleteCoalescence, len(g.time), len(g.parent), 2*n-1, 2*n-2)
		return false
	}

	g.rebuild()
	g.cur = Interval{Length: d.Length, Tree: string(g.subtree[g.root])}
	return true
}

// Interval returns the current interval.
func (g *Generator) Interval() Interval { return g.cur }

func (g *Generator) Err() error { return g.err }

// invalidate drops the cached subtree of node and of every ancestor up to
// the first node that is already uncached; anything above that was
// invalidated earlier.
func (g *Generator) invalidate(node uint32) {
	k := node
	for {
		if _, cached := g.subtree[k]; !cached {
			return
		}
		delete(g.subtree, k)
		p, ok := g.parent[k]
		if !ok {
			return
		}
		k = p
	}
}

// rebuild reconstructs the missing subtree strings with a two-stack
// post-order traversal from the root, reusing every cached subtree
// untouched by this interval's changes.
func (g *Generator) rebuild() {
	stack := []uint32{g.root}
	order := make([]uint32, 0, 2*g.sampleSize)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, cached := g.subtree[node]; cached {
			continue
		}
		order = append(order, node)
		if ch, ok := g.children[node]; ok {
			stack = append(stack, ch[0], ch[1])
		}
	}
	for i := len(order) - 1; i >= 0; i-- {
		node := order[i]
		if ch, ok := g.children[node]; ok {
			s1 := g.subtree[ch[0]]
			s2 := g.subtree[ch[1]]
			buf := make([]byte, 0, len(s1)+len(s2)+4+len(g.branchLength[node]))
			buf = append(buf, '(')
			buf = append(buf, s1...)
			buf = append(buf, ',')
			buf = append(buf, s2...)
			buf = append(buf, ')')
			if node == g.root {
				buf = append(buf, ';')
			} else {
				buf = append(buf, ':')
				buf = append(buf, g.branchLength[node]...)
			}
			g.subtree[node] = buf
		} else {
			bl := g.branchLength[node]
			buf := make([]byte, 0, 12+len(bl))
			buf = strconv.AppendUint(buf, uint64(node), 10)
			buf = append(buf, ':')
			buf = append(buf, bl...)
			g.subtree[node] = buf
		}
	}
}

package treeseq

import "fmt"

// Diff is the set of edge changes applied at the start of one genomic
// interval: Out are the edges retired at the interval's left boundary, In
// the edges introduced there. Length is the number of loci until the next
// change (or until the end of the sequence).
type Diff struct {
	Length uint32
	Out    []Edge
	In     []Edge
}

// DiffIterator is a forward-only, single-pass iterator over per-interval
// edge deltas. The usual loop is
//
//	it := ts.Diffs(false)
//	for it.Next() {
//		d := it.Diff()
//		...
//	}
//	if err := it.Err(); err != nil { ... }
//
// With allBreaks set, each run is further split at every breakpoint,
// re-emitting empty deltas for breakpoints without a genealogy change.
type DiffIterator struct {
	ts  *TreeSequence
	pos int

	left      uint32
	lastRight uint32
	exiting   map[uint32][]Edge
	in        []Edge
	done      bool

	allBreaks bool
	bk        int
	covered   uint32
	queue     []Diff

	cur Diff
	err error
}

// Diffs returns an iterator over the edge deltas of the sequence.
func (ts *TreeSequence) Diffs(allBreaks bool) *DiffIterator {
	return &DiffIterator{
		ts:        ts,
		exiting:   make(map[uint32][]Edge),
		allBreaks: allBreaks,
		bk:        1,
	}
}

// Next advances to the next interval. It returns false when the sequence is
// exhausted or an error occurred; Err distinguishes the two.
func (it *DiffIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if len(it.queue) > 0 {
		it.cur = it.queue[0]
		it.queue = it.queue[1:]
		return true
	}
	d, ok := it.nextRun()
	if !ok {
		return false
	}
	if !it.allBreaks {
		it.cur = d
		return true
	}
	if !it.splitAtBreakpoints(d) {
		return false
	}
	it.cur = it.queue[0]
	it.queue = it.queue[1:]
	return true
}

// Diff returns the delta for the current interval. Valid until the next
// call to Next; the slices are owned by the caller afterwards.
func (it *DiffIterator) Diff() Diff { return it.cur }

func (it *DiffIterator) Err() error { return it.err }

// nextRun produces one raw run: a maximal group of records sharing a left
// boundary, with edges retired at that boundary looked up in the exit-locus
// index keyed by record right values.
func (it *DiffIterator) nextRun() (Diff, bool) {
	if it.done {
		return Diff{}, false
	}
	records := it.ts.records
	if len(records) == 0 {
		it.done = true
		it.err = fmt.Errorf("%w: empty record set", ErrMalformedInput)
		return Diff{}, false
	}
	for it.pos < len(records) {
		r := records[it.pos]
		if r.Left != it.left {
			out := it.exiting[it.left]
			delete(it.exiting, it.left)
			d := Diff{Length: r.Left - it.left, Out: out, In: it.in}
			it.in = nil
			it.left = r.Left
			return d, true
		}
		edge := Edge{Children: r.Children, Parent: r.Parent, Time: r.Time}
		it.exiting[r.Right] = append(it.exiting[r.Right], edge)
		it.in = append(it.in, edge)
		it.lastRight = r.Right
		it.pos++
	}

	it.done = true
	if it.lastRight != it.ts.numLoci {
		it.err = fmt.Errorf("%w: final run closes at locus %d, want %d",
			ErrMalformedInput, it.lastRight, it.ts.numLoci)
		return Diff{}, false
	}
	out := it.exiting[it.left]
	delete(it.exiting, it.left)
	for exit := range it.exiting {
		if exit != it.ts.numLoci {
			it.err = fmt.Errorf("%w: %d live edge(s) exit at locus %d with no replacement",
				ErrUnterminatedAncestry, len(it.exiting[exit]), exit)
			return Diff{}, false
		}
	}
	d := Diff{Length: it.ts.numLoci - it.left, Out: out, In: it.in}
	it.in = nil
	return d, true
}

// splitAtBreakpoints expands one run into per-breakpoint segments: the
// leading segment carries the run's deltas, the rest are empty re-emissions
// for breakpoints interior to the run.
func (it *DiffIterator) splitAtBreakpoints(d Diff) bool {
	b := it.ts.breakpoints
	it.covered += d.Length
	if it.bk >= len(b) {
		it.err = fmt.Errorf("%w: breakpoints exhausted before locus %d", ErrMalformedInput, it.covered)
		return false
	}
	it.queue = append(it.queue, Diff{Length: b[it.bk] - b[it.bk-1], Out: d.Out, In: d.In})
	for b[it.bk] != it.covered {
		it.bk++
		if it.bk >= len(b) {
			it.err = fmt.Errorf("%w: breakpoints do not cover locus %d", ErrMalformedInput, it.covered)
			return false
		}
		it.queue = append(it.queue, Diff{Length: b[it.bk] - b[it.bk-1]})
	}
	it.bk++
	return true
}

package treeseq

import (
	"container/heap"
	"fmt"
)

// Tree is a self-consistent snapshot of the genealogy valid over one
// genomic interval. Parent maps child node to parent node, Time maps node
// to its birth time; leaves 1..sampleSize always carry time 0. Snapshots
// are owned by the caller and unaffected by further iteration.
type Tree struct {
	Length uint32
	Parent map[uint32]uint32
	Time   map[uint32]float64
}

// segment is a live record on the sweep heap, keyed by exit locus.
type segment struct {
	right    uint32
	children [2]uint32
	parent   uint32
}

type segmentHeap []segment

func (h segmentHeap) Len() int           { return len(h) }
func (h segmentHeap) Less(i, j int) bool { return h[i].right < h[j].right }
func (h segmentHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *segmentHeap) Push(x any)        { *h = append(*h, x.(segment)) }
func (h *segmentHeap) Pop() any {
	old := *h
	n := len(old)
	s := old[n-1]
	*h = old[:n-1]
	return s
}

// TreeIterator materializes one full genealogy per run of records sharing a
// left boundary, sweeping live segments in order of exit locus. Forest
// state lives in a fixed-capacity arena indexed by node id, with explicit
// liveness per slot; node id 0 is reserved as the null id.
type TreeIterator struct {
	ts  *TreeSequence
	pos int

	lastLeft uint32
	live     segmentHeap
	parent   []uint32 // 0 = no parent
	time     []float64
	hasTime  []bool

	cur  Tree
	done bool
	err  error
}

// Trees returns an iterator over materialized per-interval genealogies.
func (ts *TreeSequence) Trees() *TreeIterator {
	it := &TreeIterator{
		ts:      ts,
		parent:  make([]uint32, ts.maxNode+1),
		time:    make([]float64, ts.maxNode+1),
		hasTime: make([]bool, ts.maxNode+1),
	}
	for j := uint32(1); j <= ts.sampleSize; j++ {
		it.hasTime[j] = true
	}
	return it
}

// Next advances to the next interval, returning false on exhaustion or
// error.
func (it *TreeIterator) Next() bool {
	if it.err != nil || it.done {
		return false
	}
	records := it.ts.records
	for it.pos < len(records) {
		r := records[it.pos]
		if r.Left != it.lastLeft {
			it.cur = it.snapshot(r.Left - it.lastLeft)
			it.lastLeft = r.Left
			return true
		}
		it.pos++
		heap.Push(&it.live, segment{right: r.Right, children: r.Children, parent: r.Parent})
		for len(it.live) > 0 && it.live[0].right <= r.Left {
			expired := heap.Pop(&it.live).(segment)
			for _, child := range expired.children {
				it.parent[child] = 0
			}
			it.hasTime[expired.parent] = false
		}
		it.parent[r.Children[0]] = r.Parent
		it.parent[r.Children[1]] = r.Parent
		it.time[r.Parent] = r.Time
		it.hasTime[r.Parent] = true
	}

	it.done = true
	if len(records) == 0 {
		it.err = fmt.Errorf("%w: empty record set", ErrMalformedInput)
		return false
	}
	for _, s := range it.live {
		if s.right < it.ts.numLoci {
			it.err = fmt.Errorf("%w: live segment exits at locus %d before end of sequence",
				ErrUnterminatedAncestry, s.right)
			return false
		}
	}
	it.cur = it.snapshot(it.ts.numLoci - it.lastLeft)
	return true
}

// Tree returns the current snapshot.
func (it *TreeIterator) Tree() Tree { return it.cur }

func (it *TreeIterator) Err() error { return it.err }

// snapshot copies the arena into fresh maps so yielded trees stay valid
// across iteration.
func (it *TreeIterator) snapshot(length uint32) Tree {
	parent := make(map[uint32]uint32)
	times := make(map[uint32]float64)
	for v := uint32(1); v < uint32(len(it.parent)); v++ {
		if it.parent[v] != 0 {
			parent[v] = it.parent[v]
		}
		if it.hasTime[v] {
			times[v] = it.time[v]
		}
	}
	return Tree{Length: length, Parent: parent, Time: times}
}

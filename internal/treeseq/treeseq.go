// Package treeseq implements the incremental tree-sequence traversal core:
// an immutable store of sorted ancestry records together with forward-only
// iterators that materialize the per-interval genealogies, either as full
// parent/time snapshots or as edge deltas between adjacent intervals.
package treeseq

import (
	"fmt"
	"sort"

	"coalseq/internal/model"
)

// Record is one coalescence event: Children merge into Parent at Time over
// the half-open genomic interval [Left, Right). Node ids are positive;
// 1..sampleSize are leaves.
type Record struct {
	Left     uint32
	Right    uint32
	Children [2]uint32
	Parent   uint32
	Time     float64
}

// Edge is the interval-independent part of a record, as carried by diffs.
type Edge struct {
	Children [2]uint32
	Parent   uint32
	Time     float64
}

// TreeSequence holds a complete, sorted ancestry record set and its locus
// bounds. It is immutable after construction; all traversal state lives in
// the iterators it hands out.
type TreeSequence struct {
	records     []Record
	breakpoints []uint32
	sampleSize  uint32
	numLoci     uint32
	maxNode     uint32
	params      model.Parameters
	env         model.Environment
}

// New builds a TreeSequence from a container, normalizing record order.
// When sortRecords is set the records are stably sorted by left boundary;
// otherwise the input must already be sorted and is rejected if not.
func New(c model.Container, sortRecords bool) (*TreeSequence, error) {
	n := c.Records.Len()
	if n < 0 {
		return nil, fmt.Errorf("%w: record columns have mismatched lengths", ErrMalformedInput)
	}
	if c.Parameters.SampleSize < 2 {
		return nil, fmt.Errorf("%w: sample size %d, need at least 2", ErrMalformedInput, c.Parameters.SampleSize)
	}
	if c.Parameters.NumLoci < 1 {
		return nil, fmt.Errorf("%w: positive number of loci required", ErrMalformedInput)
	}

	ts := &TreeSequence{
		records:     make([]Record, n),
		breakpoints: append([]uint32(nil), c.Breakpoints...),
		sampleSize:  c.Parameters.SampleSize,
		numLoci:     c.Parameters.NumLoci,
		params:      c.Parameters,
		env:         c.Environment,
	}
	for j := 0; j < n; j++ {
		r := Record{
			Left:     c.Records.Left[j],
			Right:    c.Records.Right[j],
			Children: c.Records.Children[j],
			Parent:   c.Records.Parent[j],
			Time:     c.Records.Time[j],
		}
		if r.Left >= r.Right {
			return nil, fmt.Errorf("%w: record %d has left %d >= right %d", ErrMalformedInput, j, r.Left, r.Right)
		}
		if r.Parent > ts.maxNode {
			ts.maxNode = r.Parent
		}
		for _, child := range r.Children {
			if child > ts.maxNode {
				ts.maxNode = child
			}
		}
		ts.records[j] = r
	}
	if 2*ts.sampleSize-1 > ts.maxNode {
		ts.maxNode = 2*ts.sampleSize - 1
	}

	if sortRecords {
		sort.SliceStable(ts.records, func(i, j int) bool {
			return ts.records[i].Left < ts.records[j].Left
		})
	} else {
		for j := 1; j < n; j++ {
			if ts.records[j].Left < ts.records[j-1].Left {
				return nil, fmt.Errorf("%w: records not sorted by left at index %d", ErrMalformedInput, j)
			}
		}
	}

	for j := 1; j < len(ts.breakpoints); j++ {
		if ts.breakpoints[j] <= ts.breakpoints[j-1] {
			return nil, fmt.Errorf("%w: breakpoints not strictly increasing at index %d", ErrMalformedInput, j)
		}
	}
	if len(ts.breakpoints) > 0 && ts.breakpoints[0] != 0 {
		return nil, fmt.Errorf("%w: breakpoints must start at locus 0", ErrMalformedInput)
	}
	return ts, nil
}

func (ts *TreeSequence) SampleSize() uint32 { return ts.sampleSize }

func (ts *TreeSequence) NumLoci() uint32 { return ts.numLoci }

func (ts *TreeSequence) NumRecords() int { return len(ts.records) }

// MaxNode is the largest node id referenced by any record; leaves and every
// transient internal node fit in 1..MaxNode.
func (ts *TreeSequence) MaxNode() uint32 { return ts.maxNode }

// Record returns record j in left-sorted order.
func (ts *TreeSequence) Record(j int) Record { return ts.records[j] }

func (ts *TreeSequence) Breakpoints() []uint32 {
	return append([]uint32(nil), ts.breakpoints...)
}

func (ts *TreeSequence) Parameters() model.Parameters { return ts.params }

func (ts *TreeSequence) Environment() model.Environment { return ts.env }

// Container serializes the sequence back into the exchange form.
func (ts *TreeSequence) Container() model.Container {
	n := len(ts.records)
	cols := model.RecordColumns{
		Left:     make([]uint32, n),
		Right:    make([]uint32, n),
		Children: make([][2]uint32, n),
		Parent:   make([]uint32, n),
		Time:     make([]float64, n),
	}
	for j, r := range ts.records {
		cols.Left[j] = r.Left
		cols.Right[j] = r.Right
		cols.Children[j] = r.Children
		cols.Parent[j] = r.Parent
		cols.Time[j] = r.Time
	}
	return model.Container{
		FileVersion:    model.FileVersion,
		LibraryVersion: model.LibraryVersion,
		Breakpoints:    ts.Breakpoints(),
		Records:        cols,
		Parameters:     ts.params,
		Environment:    ts.env,
	}
}

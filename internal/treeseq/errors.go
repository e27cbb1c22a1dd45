package treeseq

import "errors"

var (
	// ErrMalformedInput reports record arrays that violate the input
	// contract: misaligned columns, left >= right, unsorted records where
	// sortedness is required, or a run whose closing boundary is
	// inconsistent with the locus count.
	ErrMalformedInput = errors.New("malformed tree sequence input")

	// ErrIncompleteCoalescence reports an interval whose node and edge
	// counts do not form a fully coalesced binary tree on the samples.
	ErrIncompleteCoalescence = errors.New("incomplete coalescence")

	// ErrUnterminatedAncestry reports live segments remaining after the
	// record stream is exhausted.
	ErrUnterminatedAncestry = errors.New("unterminated ancestry")

	// ErrCapacityExceeded reports growth beyond a caller-imposed bound.
	ErrCapacityExceeded = errors.New("capacity exceeded")
)

// Package coalseq is the public facade over the tree-sequence core: it
// wires a persistence store to the traversal engines and exposes the
// Newick, sparse-tree and haplotype products behind a small client API.
package coalseq

import (
	"context"
	"errors"
	"fmt"

	"coalseq/internal/haplotype"
	"coalseq/internal/model"
	"coalseq/internal/newick"
	"coalseq/internal/storage"
	"coalseq/internal/treeseq"
)

// Re-exported traversal error kinds, checked with errors.Is.
var (
	ErrMalformedInput        = treeseq.ErrMalformedInput
	ErrIncompleteCoalescence = treeseq.ErrIncompleteCoalescence
	ErrUnterminatedAncestry  = treeseq.ErrUnterminatedAncestry
	ErrCapacityExceeded      = treeseq.ErrCapacityExceeded
)

var ErrNotFound = errors.New("tree sequence not found")

const defaultDBPath = "coalseq.db"

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

// Summary describes a stored tree sequence without loading its traversal
// engines.
type Summary struct {
	ID              string
	SampleSize      uint32
	NumLoci         uint32
	NumRecords      int
	NumBreakpoints  int
	ParametersJSON  string
	EnvironmentJSON string
}

// HaplotypeResult is the realized output of one mutation simulation.
type HaplotypeResult struct {
	Seed       uint64
	NumSites   int
	Haplotypes []string
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Import parses a JSON container, validates it by constructing the tree
// sequence (sorting records if needed), and persists the normalized form.
func (c *Client) Import(ctx context.Context, id string, data []byte) error {
	container, err := storage.DecodeContainer(data)
	if err != nil {
		return err
	}
	ts, err := treeseq.New(container, true)
	if err != nil {
		return err
	}
	normalized := ts.Container()
	return c.store.SaveTreeSequence(ctx, id, normalized)
}

// Export serializes a stored tree sequence back to JSON.
func (c *Client) Export(ctx context.Context, id string) ([]byte, error) {
	container, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return storage.EncodeContainer(container)
}

func (c *Client) List(ctx context.Context) ([]string, error) {
	return c.store.ListTreeSequences(ctx)
}

func (c *Client) Info(ctx context.Context, id string) (Summary, error) {
	container, err := c.load(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	parameters, err := storage.EncodeParameters(container.Parameters)
	if err != nil {
		return Summary{}, err
	}
	environment, err := storage.EncodeEnvironment(container.Environment)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		ID:              id,
		SampleSize:      container.Parameters.SampleSize,
		NumLoci:         container.Parameters.NumLoci,
		NumRecords:      container.Records.Len(),
		NumBreakpoints:  len(container.Breakpoints),
		ParametersJSON:  parameters,
		EnvironmentJSON: environment,
	}, nil
}

// Records invokes fn once per ancestry record in left-sorted order.
func (c *Client) Records(ctx context.Context, id string, fn func(r treeseq.Record) error) error {
	ts, err := c.loadSequence(ctx, id)
	if err != nil {
		return err
	}
	for j := 0; j < ts.NumRecords(); j++ {
		if err := fn(ts.Record(j)); err != nil {
			return err
		}
	}
	return nil
}

// Newick streams one (length, tree) pair per interval to fn.
func (c *Client) Newick(ctx context.Context, id string, precision int, allBreaks bool, fn func(length uint32, tree string) error) error {
	ts, err := c.loadSequence(ctx, id)
	if err != nil {
		return err
	}
	gen := newick.NewGenerator(ts, precision, allBreaks)
	for gen.Next() {
		iv := gen.Interval()
		if err := fn(iv.Length, iv.Tree); err != nil {
			return err
		}
	}
	return gen.Err()
}

// Trees streams one materialized genealogy snapshot per interval to fn.
func (c *Client) Trees(ctx context.Context, id string, fn func(t treeseq.Tree) error) error {
	ts, err := c.loadSequence(ctx, id)
	if err != nil {
		return err
	}
	it := ts.Trees()
	for it.Next() {
		if err := fn(it.Tree()); err != nil {
			return err
		}
	}
	return it.Err()
}

// Haplotypes simulates mutations over the stored sequence. Seed 0 draws a
// fresh seed; the realized seed is returned either way. MaxSites 0 leaves
// the matrix unbounded.
func (c *Client) Haplotypes(ctx context.Context, id string, scaledMutationRate float64, seed uint64, maxSites int) (HaplotypeResult, error) {
	ts, err := c.loadSequence(ctx, id)
	if err != nil {
		return HaplotypeResult{}, err
	}
	gen, err := haplotype.NewGenerator(ts, scaledMutationRate, haplotype.Config{Seed: seed, MaxSites: maxSites})
	if err != nil {
		return HaplotypeResult{}, err
	}
	return HaplotypeResult{
		Seed:       gen.Seed(),
		NumSites:   gen.NumSegregatingSites(),
		Haplotypes: gen.HaplotypeStrings(),
	}, nil
}

func (c *Client) load(ctx context.Context, id string) (model.Container, error) {
	container, ok, err := c.store.GetTreeSequence(ctx, id)
	if err != nil {
		return model.Container{}, err
	}
	if !ok {
		return model.Container{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return container, nil
}

func (c *Client) loadSequence(ctx context.Context, id string) (*treeseq.TreeSequence, error) {
	container, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	// Stored containers were normalized at import time.
	return treeseq.New(container, false)
}

package storage

import (
	"context"

	"coalseq/internal/model"
)

// Store defines persistence operations for tree-sequence containers. A
// container is stored whole under a caller-chosen id: the five aligned
// record columns, the breakpoints and the two metadata blocks round-trip
// exactly.
type Store interface {
	Init(ctx context.Context) error
	SaveTreeSequence(ctx context.Context, id string, c model.Container) error
	GetTreeSequence(ctx context.Context, id string) (model.Container, bool, error)
	ListTreeSequences(ctx context.Context) ([]string, error)
}

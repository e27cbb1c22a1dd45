package storage

import (
	"context"
	"sort"
	"sync"

	"coalseq/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	sequences   map[string]model.Container
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.sequences = make(map[string]model.Container)
	return nil
}

func (s *MemoryStore) SaveTreeSequence(_ context.Context, id string, c model.Container) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequences[id] = c
	return nil
}

func (s *MemoryStore) GetTreeSequence(_ context.Context, id string) (model.Container, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.sequences[id]
	return c, ok, nil
}

func (s *MemoryStore) ListTreeSequences(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sequences))
	for id := range s.sequences {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

package database

import (
	"context"
	"sync"

	"musicbingo/models"
)

// MemoryStore keeps the table in process. Loads and saves copy the table so
// callers never share maps with the store, which keeps whole-document
// semantics identical to the remote backends.
type MemoryStore struct {
	mu    sync.RWMutex
	table models.Table
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{table: models.Table{}}
}

func (s *MemoryStore) Load(ctx context.Context) (models.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, loadError(err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, table models.Table) error {
	if err := ctx.Err(); err != nil {
		return saveError(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = table.Clone()
	return nil
}

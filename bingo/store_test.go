package bingo

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"musicbingo/database"
	"musicbingo/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// testStore wraps a MemoryStore with failure injection and call counters.
type testStore struct {
	*database.MemoryStore

	mu         sync.Mutex
	loadErr    error
	saveErr    error
	loads      int
	saves      int
	beforeSave func()
}

func newTestStore() *testStore {
	return &testStore{MemoryStore: database.NewMemoryStore()}
}

func (s *testStore) Load(ctx context.Context) (models.Table, error) {
	s.mu.Lock()
	s.loads++
	err := s.loadErr
	s.mu.Unlock()
	if err != nil {
		return nil, &database.StoreError{Op: "load", Err: err}
	}
	return s.MemoryStore.Load(ctx)
}

func (s *testStore) Save(ctx context.Context, table models.Table) error {
	s.mu.Lock()
	s.saves++
	err := s.saveErr
	hook := s.beforeSave
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return &database.StoreError{Op: "save", Err: err}
	}
	return s.MemoryStore.Save(ctx, table)
}

func (s *testStore) failSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

func (s *testStore) failLoads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

func (s *testStore) onSave(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeSave = hook
}

func (s *testStore) counts() (loads, saves int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads, s.saves
}

func (s *testStore) session(t *testing.T, code string) *models.Session {
	t.Helper()
	table, err := s.MemoryStore.Load(context.Background())
	require.NoError(t, err)
	return table[code]
}

func newTestCoordinator(t *testing.T, store database.Store, seed int64, opts ...Option) *Coordinator {
	t.Helper()
	base := []Option{
		WithLogger(zaptest.NewLogger(t)),
		WithRand(rand.New(rand.NewSource(seed))),
	}
	c := NewCoordinator(store, append(base, opts...)...)
	t.Cleanup(c.Close)
	return c
}

func newHost(t *testing.T, store database.Store, opts ...Option) *Coordinator {
	t.Helper()
	c := newTestCoordinator(t, store, 1, opts...)
	require.NoError(t, c.Login("DJ Mika", models.RoleHost))
	return c
}

func newGuest(t *testing.T, store database.Store, name string, seed int64, opts ...Option) *Coordinator {
	t.Helper()
	c := newTestCoordinator(t, store, seed, opts...)
	require.NoError(t, c.Login(name, models.RoleGuest))
	return c
}

// openCells lists the unmarked cells of the guest's card.
func openCells(t *testing.T, c *Coordinator) [][2]int {
	t.Helper()
	me, ok := c.Snapshot().Me()
	require.True(t, ok)
	var cells [][2]int
	for i, row := range me.Card {
		for j, cell := range row {
			if !cell.Marked {
				cells = append(cells, [2]int{i, j})
			}
		}
	}
	return cells
}

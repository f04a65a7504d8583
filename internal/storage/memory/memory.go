// Package memory is a non-persistent expense store. Its contents are lost
// when the process exits.
package memory

import (
	"context"
	"sort"
	"sync"

	"expensetracker/internal/core"
)

type Store struct {
	mu     sync.Mutex
	lastID int64
	items  map[int64]core.Expense
}

func New() *Store {
	return &Store{items: map[int64]core.Expense{}}
}

// Insert stores e under the next id. Ids are never reused, even after
// deletes.
func (s *Store) Insert(_ context.Context, e core.Expense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	e.ID = s.lastID
	s.items[e.ID] = e
	return e.ID, nil
}

// Delete removes id if present.
func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// ListAll returns every expense ordered by id.
func (s *Store) ListAll(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items), nil
}

func (s *Store) Close() error {
	return nil
}

// Package memory provides a sieve.Store over an in-process slice.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/sieve"
)

// Store implements sieve.Store[T] over records held in memory. Plans are
// evaluated with sieve.Evaluate against a snapshot, so concurrent writes never
// tear a read.
type Store[T any] struct {
	records  []T
	loaders  map[string]sieve.Loader[T]
	watchers map[string]func([]T)
	nextID   int64
	mu       sync.RWMutex
}

// New creates a store holding a copy of records in insertion order.
func New[T any](records ...T) *Store[T] {
	return &Store[T]{
		records:  append([]T(nil), records...),
		loaders:  make(map[string]sieve.Loader[T]),
		watchers: make(map[string]func([]T)),
	}
}

// WithLoader registers a loader for an include path. Plans that include path
// run the loader on the snapshot before filtering, so criteria may reference
// the loaded relation. Includes without a loader are ignored.
func (s *Store[T]) WithLoader(path string, loader sieve.Loader[T]) *Store[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaders[path] = loader
	return s
}

// Insert appends records.
func (s *Store[T]) Insert(records ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, records...)
	s.notifyWatchers()
}

// Replace swaps the whole collection.
func (s *Store[T]) Replace(records []T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append([]T(nil), records...)
	s.notifyWatchers()
}

// All returns a copy of every record in insertion order.
func (s *Store[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot()
}

// Len returns the number of records held.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// Fetch evaluates plan against a snapshot of the records.
func (s *Store[T]) Fetch(ctx context.Context, plan sieve.Plan) ([]T, error) {
	records, err := s.load(ctx, plan)
	if err != nil {
		return nil, err
	}
	return sieve.Evaluate(plan, records), nil
}

// Count returns the number of records Fetch would return for plan.
func (s *Store[T]) Count(ctx context.Context, plan sieve.Plan) (int, error) {
	records, err := s.load(ctx, plan)
	if err != nil {
		return 0, err
	}
	matched := sieve.Evaluate(sieve.Plan{Criteria: plan.Criteria, Limit: -1}, records)
	return plan.Window(len(matched)), nil
}

// load snapshots the records and runs the loaders plan asks for.
func (s *Store[T]) load(ctx context.Context, plan sieve.Plan) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	records := s.snapshot()
	var loaders []sieve.Loader[T]
	for _, path := range plan.IncludePaths() {
		if l, ok := s.loaders[path]; ok {
			loaders = append(loaders, l)
		}
	}
	s.mu.RUnlock()

	for _, l := range loaders {
		if err := l(ctx, records); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// Watch registers callback to receive a snapshot after every write. The
// current contents are delivered immediately. Call the returned function to
// stop watching.
func (s *Store[T]) Watch(callback func([]T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	watcherID := fmt.Sprintf("watcher-%d", atomic.AddInt64(&s.nextID, 1))
	s.watchers[watcherID] = callback

	current := s.snapshot()
	go callback(current)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.watchers, watcherID)
	}
}

// Close drops every record and watcher.
func (s *Store[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.watchers = make(map[string]func([]T))
	return nil
}

// Must be called with lock held.
func (s *Store[T]) snapshot() []T {
	return append([]T(nil), s.records...)
}

// Must be called with lock held.
func (s *Store[T]) notifyWatchers() {
	for _, callback := range s.watchers {
		go callback(s.snapshot())
	}
}

var _ sieve.Store[struct{}] = (*Store[struct{}])(nil)

package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry[T any] struct {
	v        T
	lastSeen time.Time
}

// MemoryStore keeps sessions in process. Update holds the store lock for the
// duration of fn, so handlers never mutate one session concurrently.
type MemoryStore[T any] struct {
	mu  sync.Mutex
	m   map[string]*entry[T]
	now func() time.Time
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{m: map[string]*entry[T]{}, now: time.Now}
}

func (s *MemoryStore[T]) Get(_ context.Context, id string) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[id]
	if !ok {
		var zero T
		return zero, false, nil
	}
	e.lastSeen = s.now()
	return e.v, true, nil
}

func (s *MemoryStore[T]) Put(_ context.Context, id string, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = &entry[T]{v: v, lastSeen: s.now()}
	return nil
}

func (s *MemoryStore[T]) Update(ctx context.Context, id string, fn func(T) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[id]
	if !ok {
		return ErrNotFound
	}
	e.lastSeen = s.now()
	return fn(e.v)
}

func (s *MemoryStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

// Sweep drops sessions idle for longer than maxAge and returns the removed
// values so callers can release what they hold.
func (s *MemoryStore[T]) Sweep(maxAge time.Duration) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-maxAge)
	var removed []T
	for id, e := range s.m {
		if e.lastSeen.Before(cutoff) {
			removed = append(removed, e.v)
			delete(s.m, id)
		}
	}
	return removed
}

// Len is the number of live sessions.
func (s *MemoryStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

func (s *MemoryStore[T]) NewID() string {
	return uuid.NewString()
}

package tablecache

import (
	"context"
	"sync"
)

// Slot holds at most one value. Get blocks while the slot is empty; one Set
// wakes every waiter of the current generation. Clear empties the slot and
// starts a new generation, Close fails current and future waiters.
type Slot[T any] struct {
	mu    sync.Mutex
	value T
	full  bool
	ready chan struct{}
	err   error
}

// NewSlot returns an empty slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{
		ready: make(chan struct{}),
	}
}

// Get returns the value, waiting for a Set if the slot is empty. A cancelled
// ctx only abandons this call.
func (s *Slot[T]) Get(ctx context.Context) (T, error) {
	for {
		s.mu.Lock()
		if s.err != nil {
			err := s.err
			s.mu.Unlock()
			var zero T
			return zero, err
		}
		if s.full {
			v := s.value
			s.mu.Unlock()
			return v, nil
		}
		ready := s.ready
		s.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Peek returns the value without waiting.
func (s *Slot[T]) Peek() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil || !s.full {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Set stores v and releases all waiters. It is a no-op on a closed slot.
func (s *Slot[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	s.value = v
	if !s.full {
		s.full = true
		close(s.ready)
	}
}

// Clear empties the slot. Subsequent Gets wait for the next Set.
func (s *Slot[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.full || s.err != nil {
		return
	}
	var zero T
	s.value = zero
	s.full = false
	s.ready = make(chan struct{})
}

// Close makes every pending and future Get return err. Only the first call
// has an effect.
func (s *Slot[T]) Close(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	s.err = err
	if !s.full {
		close(s.ready)
	}
}

package settings

import (
	"context"
	"sync"
)

// Static is a Source whose Settings are replaced programmatically, e.g. by a
// remote feature flag poller. Publishing the change is left to the caller.
type Static struct {
	mu       sync.RWMutex
	settings Settings
	ready    chan struct{}
	once     sync.Once
}

// NewStatic returns a Source that is ready immediately.
func NewStatic(s Settings) *Static {
	st := NewPending()
	st.settings = s
	st.MarkReady()
	return st
}

// NewPending returns a Source whose Ready blocks until MarkReady is called.
func NewPending() *Static {
	return &Static{
		ready: make(chan struct{}),
	}
}

// MarkReady releases every pending and future Ready call. It is safe to call
// more than once.
func (s *Static) MarkReady() {
	s.once.Do(func() {
		close(s.ready)
	})
}

// Ready implements Source.
func (s *Static) Ready(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Settings implements Source.
func (s *Static) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Set replaces the published settings.
func (s *Static) Set(settings Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
}

// Update applies fn to a copy of the published settings and publishes the
// result. Readers holding the previous Settings are unaffected.
func (s *Static) Update(fn func(*Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.settings
	next.DatabaseTableOptimizations = make(map[string]Overrides, len(s.settings.DatabaseTableOptimizations))
	for name, o := range s.settings.DatabaseTableOptimizations {
		next.DatabaseTableOptimizations[name] = o
	}
	fn(&next)
	s.settings = next
}

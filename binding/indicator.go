package binding

import (
	"sync"
	"time"
)

// DefaultSearchLatency is how long the results placeholder shows as loading.
const DefaultSearchLatency = time.Second

// SearchIndicator stands in for the remote plant search until one exists:
// each non-empty settled term shows as searching for a fixed latency, an
// empty term clears it at once, and a new term restarts the wait.
type SearchIndicator struct {
	mu        sync.Mutex
	latency   time.Duration
	searching bool
	timer     *time.Timer
	gen       uint64
	onChange  func(bool)
}

// NewSearchIndicator creates an idle indicator. onChange, when non-nil,
// is called whenever Searching flips.
func NewSearchIndicator(latency time.Duration, onChange func(bool)) *SearchIndicator {
	if latency < 0 {
		latency = DefaultSearchLatency
	}
	return &SearchIndicator{latency: latency, onChange: onChange}
}

// Update feeds the latest debounced term.
func (s *SearchIndicator) Update(term string) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++

	if term == "" {
		changed := s.searching
		s.searching = false
		s.mu.Unlock()
		if changed {
			s.notify(false)
		}
		return
	}

	changed := !s.searching
	s.searching = true
	gen := s.gen
	s.timer = time.AfterFunc(s.latency, func() { s.finish(gen) })
	s.mu.Unlock()

	if changed {
		s.notify(true)
	}
}

func (s *SearchIndicator) finish(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.searching {
		s.mu.Unlock()
		return
	}
	s.searching = false
	s.timer = nil
	s.mu.Unlock()

	s.notify(false)
}

func (s *SearchIndicator) notify(searching bool) {
	if s.onChange != nil {
		s.onChange(searching)
	}
}

// Searching reports whether the placeholder is in its loading state.
func (s *SearchIndicator) Searching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searching
}

// Stop cancels any pending timer and returns to idle without notifying.
func (s *SearchIndicator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.searching = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

package links

import "sync"

// Tracker records which titles have a link lookup in flight.
type Tracker struct {
	mu      sync.Mutex
	loading map[string]bool
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{loading: make(map[string]bool)}
}

// Begin marks title as loading. A second Begin for the same title just
// keeps it loading.
func (t *Tracker) Begin(title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading[title] = true
}

// End clears the loading flag for title.
func (t *Tracker) End(title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.loading, title)
}

// InProgress reports whether a lookup for title is in flight.
func (t *Tracker) InProgress(title string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading[title]
}

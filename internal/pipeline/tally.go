package pipeline

import (
	"maps"
	"sync"

	"github.com/couchcryptid/stellaview/internal/domain"
)

// Tally counts failure reasons across concurrently evaluated sites.
type Tally struct {
	mu     sync.Mutex
	counts map[domain.FailureReason]int
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[domain.FailureReason]int)}
}

// Add records one failure. Untracked reasons are ignored.
func (t *Tally) Add(r domain.FailureReason) {
	if !r.Tracked() {
		return
	}
	t.mu.Lock()
	t.counts[r]++
	t.mu.Unlock()
}

// Counts returns a snapshot of the counts.
func (t *Tally) Counts() map[domain.FailureReason]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.counts)
}

// Top returns the most frequent reason, breaking ties by the order of
// domain.TrackedReasons. With no failures recorded it returns
// domain.ReasonDistance.
func (t *Tally) Top() domain.FailureReason {
	t.mu.Lock()
	defer t.mu.Unlock()

	top, best := domain.ReasonDistance, 0
	for _, r := range domain.TrackedReasons {
		if n := t.counts[r]; n > best {
			top, best = r, n
		}
	}
	return top
}

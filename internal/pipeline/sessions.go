package pipeline

import (
	"errors"
	"sync/atomic"
)

// ErrStaleSearch is returned when a newer search began while this one ran.
// Stale results are discarded, never returned.
var ErrStaleSearch = errors.New("search superseded by a newer search")

// Generation identifies one search. Later searches have larger generations.
type Generation uint64

// Sessions hands out search generations. Only the most recent generation is
// current.
type Sessions struct {
	latest atomic.Uint64
}

// Begin starts a new search and returns its generation.
func (s *Sessions) Begin() Generation {
	return Generation(s.latest.Add(1))
}

// IsCurrent reports whether g is the most recent generation.
func (s *Sessions) IsCurrent(g Generation) bool {
	return uint64(g) == s.latest.Load()
}

// Package selector tracks the contiguous range of build objects that forms
// the current view.
package selector

import (
	"sync"

	"github.com/chazu/kerf/pkg/geom"
)

// Range is an inclusive index range with Start <= End.
type Range struct {
	Start, End int
}

// Len returns the number of indices in r.
func (r Range) Len() int { return r.End - r.Start + 1 }

// Selector holds a sequence and the selected range within it. Observers
// are notified only when the effective range changes.
type Selector struct {
	mu        sync.Mutex
	seq       geom.Sequence
	rng       Range
	observers []func(Range, geom.Sequence)
}

// New returns a selector over an empty sequence.
func New() *Selector {
	return &Selector{}
}

// OnChange registers fn to receive the new range and selected slice.
func (s *Selector) OnChange(fn func(Range, geom.Sequence)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Reset installs seq and selects all of it. Observers are always notified.
func (s *Selector) Reset(seq geom.Sequence) {
	s.mu.Lock()
	s.seq = seq
	s.rng = Range{Start: 0, End: max(len(seq)-1, 0)}
	r, slice, obs := s.snapshot()
	s.mu.Unlock()
	notify(obs, r, slice)
}

// SetRange selects [min(a,b), max(a,b)] clamped to the sequence. It
// returns false, and notifies nobody, when the effective range is
// unchanged.
func (s *Selector) SetRange(a, b int) bool {
	s.mu.Lock()
	r := s.normalize(a, b)
	if r == s.rng {
		s.mu.Unlock()
		return false
	}
	s.rng = r
	r, slice, obs := s.snapshot()
	s.mu.Unlock()
	notify(obs, r, slice)
	return true
}

// Range returns the current range.
func (s *Selector) Range() Range {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng
}

// Len returns the length of the current sequence.
func (s *Selector) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seq)
}

// Slice returns the selected objects. It is empty for an empty sequence.
func (s *Selector) Slice() geom.Sequence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slice()
}

func (s *Selector) normalize(a, b int) Range {
	if a > b {
		a, b = b, a
	}
	hi := max(len(s.seq)-1, 0)
	return Range{Start: clamp(a, 0, hi), End: clamp(b, 0, hi)}
}

func (s *Selector) slice() geom.Sequence {
	if len(s.seq) == 0 {
		return geom.Sequence{}
	}
	out := make(geom.Sequence, s.rng.Len())
	copy(out, s.seq[s.rng.Start:s.rng.End+1])
	return out
}

// snapshot must be called with mu held.
func (s *Selector) snapshot() (Range, geom.Sequence, []func(Range, geom.Sequence)) {
	obs := make([]func(Range, geom.Sequence), len(s.observers))
	copy(obs, s.observers)
	return s.rng, s.slice(), obs
}

func notify(obs []func(Range, geom.Sequence), r Range, slice geom.Sequence) {
	for _, fn := range obs {
		fn(r, slice)
	}
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

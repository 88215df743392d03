package testutil

import "sync"

// SequenceSource replays a fixed sequence of floats in [0, 1).
//
// Once the sequence is exhausted it wraps around, so a single value makes
// every draw identical. Use it to force specific table entries: with weights
// {a: 1, b: 1}, 0.25 selects a and 0.75 selects b.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequenceSource struct {
	mu     sync.Mutex
	values []float64
	next   int
	draws  int
}

// NewSequenceSource creates a source that returns values in order.
// With no values it always returns 0.
func NewSequenceSource(values ...float64) *SequenceSource {
	if len(values) == 0 {
		values = []float64{0}
	}
	return &SequenceSource{values: values}
}

// Float64 returns the next value in the sequence.
func (s *SequenceSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	s.draws++
	return v
}

// Draws returns how many values have been consumed.
func (s *SequenceSource) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}

// Reset rewinds the sequence to its first value.
func (s *SequenceSource) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = 0
	s.draws = 0
}

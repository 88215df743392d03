package rarity

import (
	"math/rand/v2"
	"sync"
)

// Source supplies uniform floats in [0, 1).
// *rand.Rand from math/rand/v2 satisfies Source.
type Source interface {
	Float64() float64
}

// DefaultSource draws from the runtime's goroutine-safe global generator.
// It is non-deterministic across runs.
type DefaultSource struct{}

// Float64 implements Source.
func (DefaultSource) Float64() float64 {
	return rand.Float64()
}

// SeededSource is a reproducible PCG-backed Source.
// Thread-safety: safe for concurrent use via internal mutex.
type SeededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSource creates a Source whose sequence is fully determined by seed.
func NewSeededSource(seed uint64) *SeededSource {
	return &SeededSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Float64 implements Source.
func (s *SeededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

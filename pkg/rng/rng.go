// Package rng provides the random source used by the engine's probabilistic
// pieces (tell detection, stage dialogue, consequence rolls, false-tell gating).
package rng

import (
	"math/rand/v2"
	"sync"
)

// Source is the minimal random interface the engine depends on.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// IntN returns a uniform value in [0, n). n must be > 0.
	IntN(n int) int
}

// PCG is a seeded Source. It is safe for concurrent use.
type PCG struct {
	mu sync.Mutex
	r  *rand.Rand
}

var _ Source = (*PCG)(nil)

// New returns a Source seeded with seed. A zero seed picks a random seed.
func New(seed uint64) *PCG {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &PCG{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *PCG) Float64() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r.Float64()
}

func (p *PCG) IntN(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r.IntN(n)
}

// Sequence replays a fixed list of draws, cycling when exhausted.
// Used in tests to script exact outcomes.
type Sequence struct {
	Values []float64
	pos    int
}

var _ Source = (*Sequence)(nil)

// Fixed returns a Sequence that yields the given values in order.
func Fixed(values ...float64) *Sequence {
	return &Sequence{Values: values}
}

func (s *Sequence) next() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.pos%len(s.Values)]
	s.pos++
	return v
}

func (s *Sequence) Float64() float64 {
	return s.next()
}

func (s *Sequence) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(s.next() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

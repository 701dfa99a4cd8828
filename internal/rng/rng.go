// Package rng provides the injectable random sources used by every draw in
// the game: tile generation, mystery resolution, rewards, minigames and dice.
package rng

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// DieSides is the number of faces on the movement die.
const DieSides = 6

// Source is the random source consumed by game components.
type Source interface {
	// IntN returns a value in [0, n). n must be positive.
	IntN(n int) int
	// Float64 returns a value in [0, 1).
	Float64() float64
}

// seeded is a reproducible PCG-backed source.
type seeded struct {
	r *rand.Rand
}

// New returns a reproducible source for the given seed.
func New(seed uint64) Source {
	return &seeded{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seeded) IntN(n int) int   { return s.r.IntN(n) }
func (s *seeded) Float64() float64 { return s.r.Float64() }

// NewSeed generates a high-entropy seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Between returns a uniform value in [lo, hi]. Swapped bounds are reordered.
func Between(src Source, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + src.IntN(hi-lo+1)
}

// RollDie returns a uniform value in [1, DieSides].
func RollDie(src Source) int {
	return 1 + src.IntN(DieSides)
}

// Script replays fixed values. IntN clamps each scripted value into [0, n)
// and Float64 clamps into [0, 1). When a queue runs dry the source returns 0.
type Script struct {
	ints   []int
	floats []float64
}

// NewScript returns a source that replays ints in order.
func NewScript(ints ...int) *Script {
	return &Script{ints: ints}
}

// WithFloats appends scripted float values and returns the script.
func (s *Script) WithFloats(floats ...float64) *Script {
	s.floats = append(s.floats, floats...)
	return s
}

// Remaining reports how many scripted ints have not been consumed.
func (s *Script) Remaining() int {
	return len(s.ints)
}

func (s *Script) IntN(n int) int {
	if len(s.ints) == 0 || n <= 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

func (s *Script) Float64() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	if v < 0 {
		return 0
	}
	if v >= 1 {
		return 1 - 1e-12
	}
	return v
}

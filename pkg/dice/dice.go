// Package dice provides die rolls behind an injectable randomness source,
// so engine behavior can be fixed in tests.
package dice

import (
	"math/rand"
	"sync"
	"time"
)

// Source yields random integers in [0, n). math/rand satisfies it; tests
// substitute a fixed sequence.
type Source interface {
	Intn(n int) int
}

// Roller rolls dice from a Source.
type Roller struct {
	src Source
}

// NewRoller creates a Roller backed by the given source.
func NewRoller(src Source) *Roller {
	return &Roller{src: src}
}

// NewRandomRoller creates a Roller seeded from the current time.
func NewRandomRoller() *Roller {
	return &Roller{src: &lockedSource{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}}
}

// D20 rolls a single twenty-sided die, returning 1-20.
func (r *Roller) D20() int {
	return r.src.Intn(20) + 1
}

// Initiative rolls a character's initiative for a new turn.
func (r *Roller) Initiative() int {
	return r.D20()
}

// lockedSource makes a rand.Rand safe for use from HTTP handler goroutines.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

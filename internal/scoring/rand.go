package scoring

import (
	"math/rand"
	"sync"
	"time"
)

// RandSource is the randomness the heuristics and the simulator draw from.
// *rand.Rand satisfies it; tests substitute fixed sequences.
type RandSource interface {
	Intn(n int) int
	Float64() float64
}

// lockedRand serialises access to a *rand.Rand, which is not safe for
// concurrent use on its own.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandSource returns a goroutine-safe source seeded from the clock.
func NewRandSource() RandSource {
	return NewSeededSource(time.Now().UnixNano())
}

// NewSeededSource returns a goroutine-safe source with a fixed seed.
func NewSeededSource(seed int64) RandSource {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// IntBetween draws an integer in [lo, hi].
func IntBetween(r RandSource, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

// FloatBetween draws a float in [lo, hi).
func FloatBetween(r RandSource, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// SequenceSource replays fixed values, cycling when exhausted.  Intn
// returns Ints[i] mod n; Float64 returns Floats[i].  It is meant for tests
// and deterministic demos.
type SequenceSource struct {
	mu     sync.Mutex
	Ints   []int
	Floats []float64
	ii, fi int
}

func (s *SequenceSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.ii%len(s.Ints)]
	s.ii++
	return ((v % n) + n) % n
}

func (s *SequenceSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.fi%len(s.Floats)]
	s.fi++
	return v
}

// Package rng provides the core randomness abstraction for the room engine.
// Every component that draws randomness takes a Source as an explicit
// dependency so tests can substitute deterministic outcomes.
package rng

import (
	crand "crypto/rand"
	"math/big"
	"math/rand"
	"sync"
)

// Source is the randomness provider for the engine.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// cryptoSource implements Source using crypto/rand.
//
// Invariant: All values produced are uniformly distributed in [0, n) for any n > 0.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "rng: Intn called with n <= 0" if n <= 0.
// Panics with "rng: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	val, err := crand.Int(crand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("rng: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// seededSource implements Source using math/rand with a fixed seed,
// serialized by a mutex so it satisfies the Source concurrency contract.
type seededSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededSource returns a deterministic Source seeded with seed.
// Two sources built from the same seed produce identical streams.
func NewSeededSource(seed int64) Source {
	return &seededSource{r: rand.New(rand.NewSource(seed))}
}

// Intn returns a pseudo-random int in [0, n).
//
// Precondition: n > 0. Panics with "rng: Intn called with n <= 0" if n <= 0.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}

// Range returns a uniform draw from the half-open range [lo, hi).
//
// Precondition: hi > lo; src must be non-nil.
func Range(src Source, lo, hi int) int {
	if hi <= lo {
		panic("rng: Range called with hi <= lo")
	}
	return lo + src.Intn(hi-lo)
}

// Chance draws once and reports success with probability num/denom.
//
// Precondition: denom > 0; src must be non-nil.
// Postcondition: Returns true with probability min(num, denom)/denom.
func Chance(src Source, num, denom int) bool {
	if denom <= 0 {
		panic("rng: Chance called with denom <= 0")
	}
	if num <= 0 {
		return false
	}
	if num >= denom {
		return true
	}
	return src.Intn(denom) < num
}

// WeightedIndex selects an index from weights via a single cumulative-weight
// draw. Zero-weight entries are never selected.
//
// Precondition: weights must contain at least one positive entry; negative
// weights are treated as zero.
// Postcondition: Returns an index i with weights[i] > 0, or -1 when the total
// weight is zero.
func WeightedIndex(src Source, weights []int) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	draw := src.Intn(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if draw < w {
			return i
		}
		draw -= w
	}
	// Unreachable when total > 0.
	return -1
}

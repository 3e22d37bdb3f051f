package core

import (
	"math/rand"
	"time"
)

// Rand is the single random-source interface behind all probabilistic
// branching (detection rolls, stage placement, content jitter). Tests and
// deterministic replays supply their own implementation; production code
// seeds one per campaign build so concurrent builds never contend.
type Rand interface {
	// Float64 returns a value in [0.0, 1.0)
	Float64() float64
	// Intn returns a value in [0, n). Panics if n <= 0.
	Intn(n int) int
}

type seededRand struct {
	rng *rand.Rand
}

// NewSeededRand returns a Rand producing a reproducible sequence for the
// given seed. Not safe for concurrent use; each build owns its own source.
func NewSeededRand(seed int64) Rand {
	return &seededRand{rng: rand.New(rand.NewSource(seed))}
}

// NewTimeRand returns a Rand seeded from the wall clock
func NewTimeRand() Rand {
	return NewSeededRand(time.Now().UnixNano())
}

func (r *seededRand) Float64() float64 { return r.rng.Float64() }
func (r *seededRand) Intn(n int) int   { return r.rng.Intn(n) }

// Choice returns a random element of choices
func Choice(r Rand, choices []string) string {
	return choices[r.Intn(len(choices))]
}

// DurationBetween returns a random duration in [min, max]
func DurationBetween(r Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(r.Float64()*float64(max-min))
}

// Clamp01 clips v to [0, 1]
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Package randx provides deterministic, stream-indexed random number
// generation. Every randomized routine in chronostat takes a [Source]
// explicitly; there is no package-level generator. Given the same base
// seed, stream i always yields the same sequence regardless of how
// many other streams have been drawn from or in what order.
package randx

import "math/rand"

// Source derives independent random streams from a single base seed.
// The zero value is not usable; construct with NewSource.
type Source struct {
	seed int64
}

func NewSource(seed int64) *Source {
	return &Source{seed: seed}
}

// Seed returns the base seed, so callers can report it alongside results.
func (s *Source) Seed() int64 {
	return s.seed
}

// Child derives an independent sub-source, e.g. one per channel, so
// each unit of work owns a full stream space of its own.
func (s *Source) Child(index int64) *Source {
	return &Source{seed: int64(splitmix64(uint64(s.seed)+0x632be59bd9b4e019) ^ splitmix64(uint64(index)))}
}

// Stream returns a generator for the given stream index. Indices are
// mixed through SplitMix64 so that adjacent indices do not produce
// correlated sequences.
func (s *Source) Stream(index int64) *rand.Rand {
	return rand.New(rand.NewSource(int64(splitmix64(uint64(s.seed) ^ splitmix64(uint64(index))))))
}

// splitmix64 is the finalizer from the SplitMix64 generator, a standard
// bijective mixer with good avalanche behavior.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Package rng provides the run's only source of randomness. Every draw
// comes from a stream derived from the run seed, so two runs with the
// same seed and configuration produce identical tick-by-tick results.
package rng

import (
	"hash/fnv"
	"math/rand"
)

// Stream names. Keeping subsystems on separate streams means adding a
// draw to one subsystem does not perturb the others.
const (
	StreamDecision  = "decision"
	StreamAdventure = "adventure"
	StreamMining    = "mining"
	StreamSeedCatch = "seedcatch"
	StreamHelpers   = "helpers"
)

// Source hands out one deterministically-seeded *rand.Rand per named
// stream. Not safe for concurrent use; the tick loop is single-threaded.
type Source struct {
	seed    int64
	streams map[string]*rand.Rand
}

func New(seed int64) *Source {
	return &Source{seed: seed, streams: map[string]*rand.Rand{}}
}

// Stream returns the RNG for name, creating it on first use. The same
// name always yields the same instance.
func (s *Source) Stream(name string) *rand.Rand {
	if r, ok := s.streams[name]; ok {
		return r
	}
	r := rand.New(rand.NewSource(s.seed ^ fnv1a64(name)))
	s.streams[name] = r
	return r
}

// Seed returns the run seed this source was created with.
func (s *Source) Seed() int64 { return s.seed }

func fnv1a64(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64())
}

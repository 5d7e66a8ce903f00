// Package scenario assembles named synthetic SDF scenarios: a deterministic
// truth field built from the sdfscene CSG primitives plus a pre-sampled
// surface point table for downstream reconstruction benchmarks.
package scenario

import (
	"hash/fnv"
	"math/rand/v2"
)

// NewRand returns a deterministic random source keyed by seed and namespace.
// Factories thread one of these through all stochastic placement so that
// identical (seed, namespace) pairs reproduce bit-identical trees. There is
// no process-wide seed state.
func NewRand(seed uint64, namespace string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(namespace))
	return rand.New(rand.NewPCG(seed, h.Sum64()))
}

// uniform returns a sample in [lo, hi) from r.
func uniform(r *rand.Rand, lo, hi float32) float32 {
	return lo + (hi-lo)*r.Float32()
}

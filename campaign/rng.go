package campaign

import "golang.org/x/exp/rand"

// Seeds partitions one master seed into one deterministic per-trial seed
// each, the way erand.Seeds hands one seed per Run in the emergent
// framework - except derived from a caller-supplied master seed instead of
// wall-clock time, so that two Simulate calls with the same seed draw
// identical per-trial randomness and therefore produce identical
// diffs/damage-detail sequences (the "Determinism under seed" property).
type Seeds []int64

// NewSeeds allocates n sequential seeds derived from master.
func NewSeeds(master int64, n int) Seeds {
	s := make(Seeds, n)
	for i := range s {
		s[i] = master + int64(i) + 1
	}
	return s
}

// Rand builds a *rand.Rand seeded from s[idx], scoped to that single trial.
func (s Seeds) Rand(idx int) *rand.Rand {
	return rand.New(rand.NewSource(uint64(s[idx])))
}

// trialDraw is the set of uniformly-random coordinates spec.md §4.5 step
// 4b draws for one trial.
type trialDraw struct {
	element FaultyElement
	layer   int
	neuron  int
	bit     int
	step    int  // meaningful only for TransientBitFlip
	weights bool // true: excitatory weight vector; false: lateral weight vector - only consulted when element == Weights
}

// drawTrial performs the uniform-random coordinate draw spec.md §4.5 step
// 4b describes: one element from elements, one layer, one neuron within
// that layer, one bit in [0,64), and - for TransientBitFlip - one time
// step in [0,T). The fair weights-vs-internal-weights coin is drawn
// unconditionally so the RNG stream consumed is the same length
// regardless of which element gets drawn, keeping trial-to-trial draws
// reproducibly positioned in the stream.
func drawTrial(r *rand.Rand, elements []FaultyElement, layerSizes []int, model DamageModel, T int) trialDraw {
	d := trialDraw{
		element: elements[r.Intn(len(elements))],
		layer:   r.Intn(len(layerSizes)),
		bit:     r.Intn(64),
		weights: r.Intn(2) == 0,
	}
	d.neuron = r.Intn(layerSizes[d.layer])
	if model == TransientBitFlip {
		d.step = r.Intn(T)
	}
	return d
}

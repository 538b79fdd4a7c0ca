package sim

import "math/rand"

// LoadModel supplies a relay's simulated load. The learning core only reads
// it through Sample (for the MidWay reward) and Current (for overload checks).
type LoadModel interface {
	// Current returns the load without advancing it.
	Current() int
	// Sample advances the load one step and returns the new value.
	Sample() int
	// Relieve drops the load after the relay sheds a request.
	Relieve()
}

// RandomWalkLoad moves up or down by one with equal probability on every
// sample and never goes below zero, so it drifts toward zero over time.
type RandomWalkLoad struct {
	load     int
	resetMax int
	rng      *rand.Rand
}

// NewRandomWalkLoad starts a walk at initial. Relieve resets the walk to a
// uniform value in [1, resetMax].
func NewRandomWalkLoad(initial, resetMax int, rng *rand.Rand) *RandomWalkLoad {
	return &RandomWalkLoad{load: initial, resetMax: resetMax, rng: rng}
}

// Current implements LoadModel.
func (w *RandomWalkLoad) Current() int { return w.load }

// Sample implements LoadModel.
func (w *RandomWalkLoad) Sample() int {
	if w.rng.Intn(2) == 0 {
		w.load++
	} else {
		w.load--
	}
	if w.load < 0 {
		w.load = 0
	}
	return w.load
}

// Relieve implements LoadModel.
func (w *RandomWalkLoad) Relieve() {
	w.load = w.rng.Intn(w.resetMax) + 1
}

// FixedLoad is a constant load. Useful for deterministic scenarios.
type FixedLoad int

// Current implements LoadModel.
func (f FixedLoad) Current() int { return int(f) }

// Sample implements LoadModel.
func (f FixedLoad) Sample() int { return int(f) }

// Relieve implements LoadModel.
func (f FixedLoad) Relieve() {}

package ga

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Roulette performs fitness-proportionate selection with replacement.
// Weights are max(fitness, floor). When every weight is zero each individual
// is equally likely.
type Roulette struct {
	pop        []*Individual
	cumulative []float64
	total      float64
}

// NewRoulette precomputes the cumulative weights for pop
func NewRoulette(pop []*Individual, floor float64) *Roulette {
	if len(pop) == 0 {
		panic("ga: roulette over an empty population")
	}
	weights := make([]float64, len(pop))
	for i, ind := range pop {
		w := math.Max(ind.Fitness, floor)
		if w < 0 || math.IsNaN(w) {
			w = 0
		}
		weights[i] = w
	}
	r := &Roulette{pop: pop, cumulative: make([]float64, len(pop))}
	floats.CumSum(r.cumulative, weights)
	r.total = r.cumulative[len(r.cumulative)-1]
	return r
}

// Select picks one individual
func (r *Roulette) Select(rng *rand.Rand) *Individual {
	return r.pop[r.SelectIndex(rng)]
}

// SelectIndex picks one individual's index
func (r *Roulette) SelectIndex(rng *rand.Rand) int {
	if r.total <= 0 {
		return rng.Intn(len(r.pop))
	}
	target := rng.Float64() * r.total
	// First cumulative weight strictly above target; zero-weight slots never match
	i := sort.Search(len(r.cumulative), func(i int) bool {
		return r.cumulative[i] > target
	})
	if i == len(r.cumulative) {
		i = len(r.cumulative) - 1
	}
	return i
}

// SelectParents selects two parents independently
func (r *Roulette) SelectParents(rng *rand.Rand) (*Individual, *Individual) {
	return r.Select(rng), r.Select(rng)
}

// RouletteSelect draws one individual with probability proportional to
// max(fitness, floor). Build a Roulette when drawing repeatedly.
func RouletteSelect(pop []*Individual, floor float64, rng *rand.Rand) *Individual {
	return NewRoulette(pop, floor).Select(rng)
}

package ga

import (
	"math/rand"

	"collectorai/internal/nn"
)

// Mutate applies Gaussian mutation to a genome in-place
func Mutate(genome nn.Genome, rate, sigma float64, rng *rand.Rand) {
	for i := range genome {
		if rng.Float64() < rate {
			genome[i] += rng.NormFloat64() * sigma
		}
	}
}

// MutateWithReset applies mutation with occasional random reset
func MutateWithReset(genome nn.Genome, rate, sigma, resetP float64, rng *rand.Rand) {
	if resetP <= 0 {
		Mutate(genome, rate, sigma, rng)
		return
	}
	for i := range genome {
		if rng.Float64() < resetP {
			genome[i] = rng.NormFloat64() * 0.5
		} else if rng.Float64() < rate {
			genome[i] += rng.NormFloat64() * sigma
		}
	}
}

package ga

import (
	"math/rand"

	"collectorai/internal/nn"
)

// Crossover names a gene recombination operator
type Crossover string

const (
	Uniform     Crossover = "uniform"
	SinglePoint Crossover = "single_point"
)

// Valid reports whether c names a known operator. Empty means Uniform.
func (c Crossover) Valid() bool {
	switch c {
	case "", Uniform, SinglePoint:
		return true
	}
	return false
}

// UniformCrossover picks every gene from either parent with equal chance
func UniformCrossover(p1, p2 nn.Genome, rng *rand.Rand) nn.Genome {
	if len(p1) != len(p2) {
		panic("ga: crossover between genomes of different length")
	}
	child := make(nn.Genome, len(p1))
	for i := range child {
		if rng.Float64() < 0.5 {
			child[i] = p1[i]
		} else {
			child[i] = p2[i]
		}
	}
	return child
}

// SinglePointCrossover takes genes before a random point from p1 and the rest from p2
func SinglePointCrossover(p1, p2 nn.Genome, rng *rand.Rand) nn.Genome {
	if len(p1) != len(p2) {
		panic("ga: crossover between genomes of different length")
	}
	point := rng.Intn(len(p1) + 1)
	child := make(nn.Genome, len(p1))
	copy(child[:point], p1[:point])
	copy(child[point:], p2[point:])
	return child
}

// CreateChild creates a single child from two parents using the kind operator
func CreateChild(p1, p2 *Individual, kind Crossover, crossoverRate float64, rng *rand.Rand) nn.Genome {
	if rng.Float64() >= crossoverRate {
		// No crossover, clone one parent
		if rng.Float64() < 0.5 {
			return nn.CloneGenome(p1.Genome)
		}
		return nn.CloneGenome(p2.Genome)
	}
	switch kind {
	case "", Uniform:
		return UniformCrossover(p1.Genome, p2.Genome, rng)
	case SinglePoint:
		return SinglePointCrossover(p1.Genome, p2.Genome, rng)
	default:
		panic("ga: unknown crossover " + string(kind))
	}
}

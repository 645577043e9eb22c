// Package ga evolves controller genomes with roulette selection, uniform
// crossover and Gaussian mutation.
package ga

import (
	"math/rand"

	"collectorai/internal/nn"
)

// Params holds genetic operator settings
type Params struct {
	Crossover      Crossover
	CrossoverRate  float64
	MutationRate   float64
	MutationSigma  float64
	ResetMutationP float64
	FitnessFloor   float64
	Elitism        bool // copy the single best genome unchanged
}

// Engine produces the next generation from an evaluated one
type Engine struct {
	params Params
}

// NewEngine creates an engine with the given operator settings
func NewEngine(p Params) *Engine {
	return &Engine{params: p}
}

// Params returns the operator settings
func (e *Engine) Params() Params {
	return e.params
}

// Evolve returns exactly len(pop) new genomes and the statistics of pop.
// Every random draw comes from rng. An empty population panics.
func (e *Engine) Evolve(rng *rand.Rand, pop []*Individual) ([]nn.Genome, Statistics) {
	if len(pop) == 0 {
		panic("ga: evolve called with an empty population")
	}
	stats := NewStatistics(pop)

	next := make([]nn.Genome, 0, len(pop))
	if e.params.Elitism {
		next = append(next, nn.CloneGenome(Best(pop).Genome))
	}

	wheel := NewRoulette(pop, e.params.FitnessFloor)
	for len(next) < len(pop) {
		p1, p2 := wheel.SelectParents(rng)
		child := CreateChild(p1, p2, e.params.Crossover, e.params.CrossoverRate, rng)
		MutateWithReset(child, e.params.MutationRate, e.params.MutationSigma, e.params.ResetMutationP, rng)
		next = append(next, child)
	}
	return next, stats
}

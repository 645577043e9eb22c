package ga

import (
	"sort"

	"collectorai/internal/nn"
)

// Individual is one genome and the fitness it earned during evaluation
type Individual struct {
	Genome  nn.Genome
	Fitness float64
}

// FromFitness pairs genomes with collected-waste counts
func FromFitness(genomes []nn.Genome, fitness []int) []*Individual {
	if len(genomes) != len(fitness) {
		panic("ga: genome and fitness counts differ")
	}
	pop := make([]*Individual, len(genomes))
	for i, g := range genomes {
		pop[i] = &Individual{Genome: g, Fitness: float64(fitness[i])}
	}
	return pop
}

// Best returns the individual with highest fitness; ties go to the lowest index
func Best(pop []*Individual) *Individual {
	if len(pop) == 0 {
		return nil
	}
	best := pop[0]
	for _, ind := range pop[1:] {
		if ind.Fitness > best.Fitness {
			best = ind
		}
	}
	return best
}

// TopK returns the K fittest individuals without reordering pop
func TopK(pop []*Individual, k int) []*Individual {
	sorted := make([]*Individual, len(pop))
	copy(sorted, pop)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Fitness > sorted[j].Fitness
	})
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[:k]
}

// Clone creates a deep copy of an individual
func (ind *Individual) Clone() *Individual {
	return &Individual{
		Genome:  nn.CloneGenome(ind.Genome),
		Fitness: ind.Fitness,
	}
}

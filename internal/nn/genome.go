package nn

import "math/rand"

// Genome is the flat weight encoding of one controller
type Genome []float64

// RandomGenome generates a random genome with weights uniform in [-1, 1]
func RandomGenome(size int, rng *rand.Rand) Genome {
	genome := make(Genome, size)
	for i := range genome {
		genome[i] = rng.Float64()*2 - 1
	}
	return genome
}

// CloneGenome makes a copy of a genome
func CloneGenome(src Genome) Genome {
	dst := make(Genome, len(src))
	copy(dst, src)
	return dst
}

package nn

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrTopology is returned for a layer of size < 1.
	ErrTopology = errors.New("invalid topology")
	// ErrGenomeLength is returned when a genome does not match the topology.
	ErrGenomeLength = errors.New("genome length does not match topology")
)

// Topology is the fixed shape input -> hidden -> output
type Topology struct {
	Inputs  int
	Hidden  int
	Outputs int
}

// GenomeSize returns the total number of weights (including biases)
func (t Topology) GenomeSize() int {
	// Input -> Hidden, then Hidden -> Output; one bias per neuron
	return (t.Inputs+1)*t.Hidden + (t.Hidden+1)*t.Outputs
}

func (t Topology) validate() error {
	if t.Inputs < 1 || t.Hidden < 1 || t.Outputs < 1 {
		return fmt.Errorf("%w: %d-%d-%d", ErrTopology, t.Inputs, t.Hidden, t.Outputs)
	}
	return nil
}

// Controller is a feedforward network with one relu hidden layer and tanh outputs.
// Outputs are bounded to [-1, 1].
//
// Evaluate reuses internal buffers, so a Controller must not be shared between
// goroutines. Each agent owns its own.
type Controller struct {
	topo Topology

	w1 *mat.Dense // Hidden x Inputs
	b1 *mat.VecDense
	w2 *mat.Dense // Outputs x Hidden
	b2 *mat.VecDense

	// Pre-allocated buffers for forward pass
	h   *mat.VecDense
	out *mat.VecDense
}

// NewController builds a controller from a genome laid out neuron by neuron,
// bias first, input->hidden layer then hidden->output layer.
func NewController(t Topology, genome Genome) (*Controller, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	if len(genome) != t.GenomeSize() {
		return nil, fmt.Errorf("%w: got %d weights, want %d", ErrGenomeLength, len(genome), t.GenomeSize())
	}

	c := &Controller{
		topo: t,
		h:    mat.NewVecDense(t.Hidden, nil),
		out:  mat.NewVecDense(t.Outputs, nil),
	}
	rest := genome
	c.w1, c.b1, rest = layerFromGenome(rest, t.Inputs, t.Hidden)
	c.w2, c.b2, _ = layerFromGenome(rest, t.Hidden, t.Outputs)
	return c, nil
}

func layerFromGenome(g Genome, in, out int) (*mat.Dense, *mat.VecDense, Genome) {
	w := mat.NewDense(out, in, nil)
	b := mat.NewVecDense(out, nil)
	for j := 0; j < out; j++ {
		b.SetVec(j, g[0])
		w.SetRow(j, g[1:in+1])
		g = g[in+1:]
	}
	return w, b, g
}

// Evaluate runs a forward pass. The returned slice is freshly allocated.
func (c *Controller) Evaluate(inputs []float64) []float64 {
	if len(inputs) != c.topo.Inputs {
		panic(fmt.Sprintf("nn: sensor vector has %d values, controller expects %d", len(inputs), c.topo.Inputs))
	}
	x := mat.NewVecDense(len(inputs), inputs)

	c.h.MulVec(c.w1, x)
	c.h.AddVec(c.h, c.b1)
	hidden := c.h.RawVector().Data
	for i, v := range hidden {
		hidden[i] = relu(v)
	}

	c.out.MulVec(c.w2, c.h)
	c.out.AddVec(c.out, c.b2)

	result := make([]float64, c.topo.Outputs)
	for i, v := range c.out.RawVector().Data {
		result[i] = math.Tanh(v)
	}
	return result
}

// Genome flattens the weights back into genome order
func (c *Controller) Genome() Genome {
	g := make(Genome, 0, c.topo.GenomeSize())
	g = appendLayer(g, c.w1, c.b1)
	g = appendLayer(g, c.w2, c.b2)
	return g
}

func appendLayer(g Genome, w *mat.Dense, b *mat.VecDense) Genome {
	rows, _ := w.Dims()
	for j := 0; j < rows; j++ {
		g = append(g, b.AtVec(j))
		g = append(g, w.RawRowView(j)...)
	}
	return g
}

func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

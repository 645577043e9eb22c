// Package world simulates waste collectors on the unit torus.
package world

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"collectorai/internal/nn"
)

var (
	// ErrNoAgents is returned when building a world from zero genomes.
	ErrNoAgents = errors.New("world needs at least one agent")
	// ErrNoWaste is returned when building a world without waste.
	ErrNoWaste = errors.New("world needs at least one waste item")
	// ErrSensorMismatch is returned when the eye and controller disagree on input size.
	ErrSensorMismatch = errors.New("eye cells do not match controller inputs")
)

// Params holds everything needed to build a world besides genomes and seed
type Params struct {
	Topology      nn.Topology
	Waste         int
	CollectRadius float64
	FOVRange      float64
	FOVAngle      float64
	Cells         int
	Limits        Limits
	SpeedStart    float64
}

// Agent is a collector steered by its own controller
type Agent struct {
	Pose
	Fitness int // waste collected since the world was built

	controller *nn.Controller
}

// Waste is a stationary item that jumps elsewhere once collected
type Waste struct {
	Pos r2.Vec
}

// World owns the agents, the waste and the random generator that places them
type World struct {
	params Params
	agents []*Agent
	waste  []Waste
	eye    *Eye
	rng    *rand.Rand
	tick   int
}

// Build creates a world with one agent per genome at random poses and
// p.Waste items at random positions, all drawn from a generator seeded with seed.
func Build(genomes []nn.Genome, p Params, seed int64) (*World, error) {
	if len(genomes) == 0 {
		return nil, ErrNoAgents
	}
	if p.Waste < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNoWaste, p.Waste)
	}
	if err := p.Limits.validate(); err != nil {
		return nil, err
	}
	eye, err := NewEye(p.FOVRange, p.FOVAngle, p.Cells)
	if err != nil {
		return nil, err
	}
	if eye.Cells() != p.Topology.Inputs {
		return nil, fmt.Errorf("%w: %d cells, %d inputs", ErrSensorMismatch, eye.Cells(), p.Topology.Inputs)
	}

	w := &World{
		params: p,
		agents: make([]*Agent, len(genomes)),
		waste:  make([]Waste, p.Waste),
		eye:    eye,
		rng:    rand.New(rand.NewSource(seed)),
	}

	speed := clamp(p.SpeedStart, p.Limits.SpeedMin, p.Limits.SpeedMax)
	for i, g := range genomes {
		c, err := nn.NewController(p.Topology, g)
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", i, err)
		}
		pos := w.randomPos()
		w.agents[i] = &Agent{
			Pose: Pose{
				Pos:     pos,
				Heading: w.rng.Float64() * twoPi,
				Speed:   speed,
			},
			controller: c,
		}
	}
	for i := range w.waste {
		w.waste[i].Pos = w.randomPos()
	}
	return w, nil
}

func (w *World) randomPos() r2.Vec {
	x := w.rng.Float64()
	y := w.rng.Float64()
	return r2.Vec{X: x, Y: y}
}

// Advance moves the world forward one tick without building a snapshot.
// Agents run sense -> think -> move -> collect in index order; collected
// waste is relocated at once so later agents see the new position.
func (w *World) Advance() {
	lim := w.params.Limits
	radius := w.params.CollectRadius
	for _, a := range w.agents {
		vision := w.eye.Sense(a.Pose, w.waste)
		out := a.controller.Evaluate(vision)
		a.Pose = Move(a.Pose, out, lim)

		if i, ok := Collect(a.Pos, w.waste, radius); ok {
			a.Fitness++
			w.waste[i].Pos = w.randomPos()
		}
	}
	w.tick++
}

// Step advances one tick and returns the resulting snapshot
func (w *World) Step() Snapshot {
	w.Advance()
	return w.Snapshot()
}

// Agents returns the agents in index order
func (w *World) Agents() []*Agent {
	return w.agents
}

// Waste returns the waste items in index order
func (w *World) Waste() []Waste {
	return w.waste
}

// Fitness returns each agent's collected count in index order
func (w *World) Fitness() []int {
	f := make([]int, len(w.agents))
	for i, a := range w.agents {
		f[i] = a.Fitness
	}
	return f
}

// Genomes returns each agent's genome in index order
func (w *World) Genomes() []nn.Genome {
	gs := make([]nn.Genome, len(w.agents))
	for i, a := range w.agents {
		gs[i] = a.controller.Genome()
	}
	return gs
}

// Tick returns the number of ticks since Build
func (w *World) Tick() int {
	return w.tick
}

// Package engine is the entry point hosts drive: it owns the population,
// the live world and the generator behind every random draw.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"collectorai/internal/config"
	"collectorai/internal/eval"
	"collectorai/internal/ga"
	"collectorai/internal/nn"
	"collectorai/internal/world"
)

// Option configures an Engine
type Option func(*Engine)

// WithGenomes starts from the given genomes instead of a random population
func WithGenomes(genomes []nn.Genome) Option {
	return func(e *Engine) {
		e.genomes = make([]nn.Genome, len(genomes))
		for i, g := range genomes {
			e.genomes[i] = nn.CloneGenome(g)
		}
		e.seeded = true
	}
}

// WithWorldSeed fixes the seed of the first live world, so a recorded
// replay can be watched tick for tick.
func WithWorldSeed(seed int64) Option {
	return func(e *Engine) {
		e.worldSeed = &seed
	}
}

// WithLogger sets the logger used for generation events
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// Engine couples a live world with the genetic algorithm. All methods are
// safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	cfg       *config.Config
	rng       *rand.Rand
	evaluator *eval.Evaluator
	ga        *ga.Engine
	log       *slog.Logger

	genomes   []nn.Genome
	seeded    bool
	worldSeed *int64
	world     *world.World

	generation  int
	lastStats   ga.Statistics
	lastPop     []*ga.Individual
	best        nn.Genome
	bestFitness float64
}

// New creates an engine from cfg. A nil cfg uses the embedded defaults.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		evaluator: eval.NewEvaluator(cfg),
		ga:        ga.NewEngine(eval.GAParams(cfg)),
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}

	if !e.seeded {
		size := eval.Topology(cfg).GenomeSize()
		e.genomes = make([]nn.Genome, cfg.World.Agents)
		for i := range e.genomes {
			e.genomes[i] = nn.RandomGenome(size, e.rng)
		}
	}

	seed := e.rng.Int63()
	if e.worldSeed != nil {
		seed = *e.worldSeed
	}
	w, err := e.evaluator.BuildWorld(e.genomes, seed)
	if err != nil {
		return nil, fmt.Errorf("building world: %w", err)
	}
	e.world = w
	return e, nil
}

// Step advances the live world one tick and returns its snapshot. With
// auto-evolve enabled, a world that has run a full evaluation window is
// evolved and replaced after the snapshot is taken.
func (e *Engine) Step() world.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.world.Step()
	if e.cfg.Engine.AutoEvolve && e.world.Tick() >= e.evaluator.WindowLength() {
		e.advance(ga.FromFitness(e.genomes, e.world.Fitness()))
	}
	return snap
}

// Snapshot returns the live world's state without advancing it
func (e *Engine) Snapshot() world.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.Snapshot()
}

// Train runs one full generation and returns its report, "min=F max=F avg=F"
func (e *Engine) Train() string {
	return e.TrainStats().String()
}

// TrainStats evaluates the current population in a fresh world, evolves it
// and returns the statistics of the evaluated generation.
func (e *Engine) TrainStats() ga.Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()

	pop, err := e.evaluator.EvaluatePopulation(e.genomes, e.rng.Int63())
	if err != nil {
		// genomes were validated when the engine was built
		panic(fmt.Sprintf("engine: evaluating generation %d: %v", e.generation, err))
	}
	return e.advance(pop)
}

func (e *Engine) advance(pop []*ga.Individual) ga.Statistics {
	next, stats := e.ga.Evolve(e.rng, pop)
	if len(next) != len(e.genomes) {
		panic(fmt.Sprintf("engine: population drifted from %d to %d", len(e.genomes), len(next)))
	}

	if champ := ga.Best(pop); e.best == nil || champ.Fitness > e.bestFitness {
		e.best = nn.CloneGenome(champ.Genome)
		e.bestFitness = champ.Fitness
	}

	e.genomes = next
	e.generation++
	e.lastStats = stats
	e.lastPop = pop

	w, err := e.evaluator.BuildWorld(e.genomes, e.rng.Int63())
	if err != nil {
		panic(fmt.Sprintf("engine: rebuilding world: %v", err))
	}
	e.world = w

	e.log.Debug("generation evolved",
		"generation", e.generation,
		"min", stats.Min,
		"max", stats.Max,
		"avg", stats.Avg,
	)
	return stats
}

// Generation returns the number of completed generations
func (e *Engine) Generation() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// Genomes returns a copy of the current population
func (e *Engine) Genomes() []nn.Genome {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]nn.Genome, len(e.genomes))
	for i, g := range e.genomes {
		out[i] = nn.CloneGenome(g)
	}
	return out
}

// Best returns the fittest genome evaluated so far and its fitness.
// Before the first generation it returns nil and 0.
func (e *Engine) Best() (nn.Genome, float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.best == nil {
		return nil, 0
	}
	return nn.CloneGenome(e.best), e.bestFitness
}

// LastStats returns the statistics of the most recent generation
func (e *Engine) LastStats() ga.Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastStats
}

// TopK returns copies of the k fittest individuals of the most recent
// generation, fittest first.
func (e *Engine) TopK(k int) []*ga.Individual {
	e.mu.Lock()
	defer e.mu.Unlock()
	top := ga.TopK(e.lastPop, k)
	out := make([]*ga.Individual, len(top))
	for i, ind := range top {
		out[i] = ind.Clone()
	}
	return out
}

// Evaluator returns the evaluator used for training windows
func (e *Engine) Evaluator() *eval.Evaluator {
	return e.evaluator
}

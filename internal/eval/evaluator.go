package eval

import (
	"context"
	"runtime"

	"collectorai/internal/config"
	"collectorai/internal/ga"
	"collectorai/internal/nn"
	"collectorai/internal/world"
)

// Evaluator runs evaluation windows and turns them into fitness
type Evaluator struct {
	cfg     *config.Config
	params  world.Params
	workers int
}

// NewEvaluator creates a new evaluator
func NewEvaluator(cfg *config.Config) *Evaluator {
	workers := cfg.Eval.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Evaluator{
		cfg:     cfg,
		params:  WorldParams(cfg),
		workers: workers,
	}
}

// WorldParams maps the configuration onto world build parameters
func WorldParams(cfg *config.Config) world.Params {
	return world.Params{
		Topology:      Topology(cfg),
		Waste:         cfg.World.Waste,
		CollectRadius: cfg.World.CollectRadius,
		FOVRange:      cfg.Vision.FOVRange,
		FOVAngle:      cfg.Vision.FOVAngle,
		Cells:         cfg.Vision.Cells,
		Limits: world.Limits{
			RotationMax: cfg.Kinematics.RotationMax,
			SpeedMin:    cfg.Kinematics.SpeedMin,
			SpeedMax:    cfg.Kinematics.SpeedMax,
			SpeedAccel:  cfg.Kinematics.SpeedAccel,
		},
		SpeedStart: cfg.Kinematics.SpeedStart,
	}
}

// Topology returns the controller shape for cfg
func Topology(cfg *config.Config) nn.Topology {
	return nn.Topology{
		Inputs:  cfg.ObsDim(),
		Hidden:  cfg.HiddenSize(),
		Outputs: config.Outputs,
	}
}

// GAParams maps the configuration onto genetic operator settings
func GAParams(cfg *config.Config) ga.Params {
	return ga.Params{
		Crossover:      ga.Crossover(cfg.GA.Crossover),
		CrossoverRate:  cfg.GA.CrossoverRate,
		MutationRate:   cfg.GA.MutationRate,
		MutationSigma:  cfg.GA.MutationSigma,
		ResetMutationP: cfg.GA.ResetMutationP,
		FitnessFloor:   cfg.GA.FitnessFloor,
		Elitism:        cfg.GA.Elitism,
	}
}

// Params returns the world build parameters
func (e *Evaluator) Params() world.Params {
	return e.params
}

// WindowLength returns the number of ticks in one evaluation window
func (e *Evaluator) WindowLength() int {
	return e.cfg.Eval.GenerationLength
}

// BuildWorld builds a world from genomes with the configured waste and physics
func (e *Evaluator) BuildWorld(genomes []nn.Genome, seed int64) (*world.World, error) {
	return world.Build(genomes, e.params, seed)
}

// EvaluatePopulation builds a world from genomes, runs one evaluation window
// and pairs every genome with the waste its agent collected.
func (e *Evaluator) EvaluatePopulation(genomes []nn.Genome, seed int64) ([]*ga.Individual, error) {
	w, err := e.BuildWorld(genomes, seed)
	if err != nil {
		return nil, err
	}
	if err := e.runWindow(context.Background(), w); err != nil {
		return nil, err
	}
	return ga.FromFitness(genomes, w.Fitness()), nil
}

func (e *Evaluator) runWindow(ctx context.Context, w *world.World) error {
	for tick := 0; tick < e.cfg.Eval.GenerationLength; tick++ {
		if tick%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		w.Advance()
	}
	return nil
}

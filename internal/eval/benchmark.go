package eval

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"collectorai/internal/nn"
)

// EpisodeStats is one champion-only run on a fixed seed
type EpisodeStats struct {
	Seed      int64
	Collected int
}

// AggregatedStats holds statistics across multiple episodes
type AggregatedStats struct {
	CollectedMean float64
	CollectedStd  float64
	CollectedMin  float64
	CollectedMax  float64
	NumEpisodes   int
}

// Aggregate computes statistics from multiple episode stats
func Aggregate(episodes []EpisodeStats) AggregatedStats {
	if len(episodes) == 0 {
		return AggregatedStats{}
	}
	collected := make([]float64, len(episodes))
	for i, ep := range episodes {
		collected[i] = float64(ep.Collected)
	}
	mean, std := stat.PopMeanStdDev(collected, nil)
	return AggregatedStats{
		CollectedMean: mean,
		CollectedStd:  std,
		CollectedMin:  floats.Min(collected),
		CollectedMax:  floats.Max(collected),
		NumEpisodes:   len(episodes),
	}
}

// RobustnessScore computes the ranking score: mean - lambda * std
func (a AggregatedStats) RobustnessScore(lambda float64) float64 {
	return a.CollectedMean - lambda*a.CollectedStd
}

// RobustChampion keeps the benchmarked genome with the best robustness score
type RobustChampion struct {
	Lambda     float64
	Genome     nn.Genome
	Generation int
	Stats      AggregatedStats
	Score      float64
}

// Offer replaces the champion when agg scores strictly higher, or when there
// is none yet. It reports whether genome was kept.
func (c *RobustChampion) Offer(gen int, genome nn.Genome, agg AggregatedStats) bool {
	score := agg.RobustnessScore(c.Lambda)
	if c.Genome != nil && score <= c.Score {
		return false
	}
	c.Genome = nn.CloneGenome(genome)
	c.Generation = gen
	c.Stats = agg
	c.Score = score
	return true
}

// EvaluateGenome runs one window with genome as the only agent
func (e *Evaluator) EvaluateGenome(ctx context.Context, genome nn.Genome, seed int64) (EpisodeStats, error) {
	w, err := e.BuildWorld([]nn.Genome{genome}, seed)
	if err != nil {
		return EpisodeStats{}, err
	}
	if err := e.runWindow(ctx, w); err != nil {
		return EpisodeStats{}, err
	}
	return EpisodeStats{Seed: seed, Collected: w.Fitness()[0]}, nil
}

// Benchmark evaluates genome on every seed in parallel. Each seed gets its
// own world and generator, so results do not depend on scheduling.
func (e *Evaluator) Benchmark(ctx context.Context, genome nn.Genome, seeds []int64) (AggregatedStats, []EpisodeStats, error) {
	episodes := make([]EpisodeStats, len(seeds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, seed := range seeds {
		g.Go(func() error {
			ep, err := e.EvaluateGenome(ctx, genome, seed)
			if err != nil {
				return fmt.Errorf("benchmark seed %d: %w", seed, err)
			}
			episodes[i] = ep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return AggregatedStats{}, nil, err
	}
	return Aggregate(episodes), episodes, nil
}

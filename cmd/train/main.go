package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"collectorai/internal/config"
	"collectorai/internal/engine"
	"collectorai/internal/eval"
	"collectorai/internal/logging"
	"collectorai/internal/nn"
	"collectorai/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file (empty uses built-in defaults)")
	generations := flag.Int("generations", 1000, "number of generations to run")
	outDir := flag.String("out", "runs", "directory for the effective config snapshot")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.NewSlog(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, log, *generations, *outDir); err != nil {
		log.Error("training failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, generations int, outDir string) error {
	if err := cfg.WriteYAML(filepath.Join(outDir, "config.yaml")); err != nil {
		return fmt.Errorf("writing config snapshot: %w", err)
	}

	eng, err := engine.New(cfg, engine.WithLogger(log))
	if err != nil {
		return err
	}

	metrics, err := logging.NewLogger(cfg.Logging.CSVPath, cfg.Logging.JSONPath, log, cfg.Logging.EveryGenSummary)
	if err != nil {
		return err
	}
	defer metrics.Close()

	history, runID, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if history != nil {
		defer history.Close()
	}

	log.Info("training started",
		"agents", cfg.World.Agents,
		"waste", cfg.World.Waste,
		"obs_dim", cfg.ObsDim(),
		"hidden", cfg.HiddenSize(),
		"genome_size", eng.Evaluator().Params().Topology.GenomeSize(),
		"generation_length", cfg.Eval.GenerationLength,
		"seed", cfg.Seed,
	)

	robust := &eval.RobustChampion{Lambda: cfg.Eval.RobustnessLambda}
	startTime := time.Now()
	for i := 0; i < generations; i++ {
		if ctx.Err() != nil {
			log.Warn("training interrupted", "generation", eng.Generation())
			break
		}

		stats := eng.TrainStats()
		gen := eng.Generation()

		if err := metrics.LogGeneration(gen, stats); err != nil {
			return err
		}
		if cfg.Logging.TopK > 0 {
			metrics.LogTopK(gen, eng.TopK(cfg.Logging.TopK))
		}
		if history != nil {
			if err := history.RecordGeneration(ctx, runID, gen, stats); err != nil {
				return fmt.Errorf("recording generation %d: %w", gen, err)
			}
		}

		champion, fitness := eng.Best()

		if cfg.Eval.BenchmarkEvery > 0 && gen%cfg.Eval.BenchmarkEvery == 0 && len(cfg.Eval.BenchmarkSeeds) > 0 {
			if err := benchmark(ctx, log, cfg, eng.Evaluator(), metrics, robust, gen, champion); err != nil {
				return err
			}
		}

		if cfg.Logging.SaveChampionEvery > 0 && gen%cfg.Logging.SaveChampionEvery == 0 {
			saveChampion(ctx, log, cfg, history, runID, gen, champion, fitness)
		}

		if cfg.Logging.ReplayEvery > 0 && gen%cfg.Logging.ReplayEvery == 0 {
			saveReplay(log, eng.Evaluator(), cfg, gen, champion)
		}
	}

	champion, fitness := eng.Best()
	log.Info("training complete",
		"generations", eng.Generation(),
		"elapsed", time.Since(startTime).Round(time.Millisecond),
		"best_fitness", fitness,
	)
	saveFinal(ctx, log, cfg, history, runID, eng.Generation(), champion, fitness)
	return nil
}

// benchmark scores champion on the benchmark seeds and keeps it as the robust
// champion when it beats the previous one.
func benchmark(ctx context.Context, log *slog.Logger, cfg *config.Config, ev *eval.Evaluator, metrics *logging.Logger, robust *eval.RobustChampion, gen int, champion nn.Genome) error {
	if champion == nil {
		return nil
	}
	agg, _, err := ev.Benchmark(ctx, champion, cfg.Eval.BenchmarkSeeds)
	if err != nil {
		log.Warn("benchmark failed", "generation", gen, "err", err)
		return nil
	}
	if err := metrics.LogBenchmark(gen, agg, robust.Lambda); err != nil {
		return err
	}
	if !robust.Offer(gen, champion, agg) {
		return nil
	}
	path := filepath.Join(cfg.Logging.ChampionDir, "champion_robust.json")
	if err := logging.SaveChampion(path, robust.Genome, agg.CollectedMean, gen); err != nil {
		log.Warn("failed to save robust champion", "generation", gen, "err", err)
		return nil
	}
	log.Info("new robust champion", "generation", gen, "score", robust.Score)
	return nil
}

// saveFinal persists the run's champion. Writes outlive ctx so an
// interrupted run still keeps its result.
func saveFinal(ctx context.Context, log *slog.Logger, cfg *config.Config, history *store.SQLiteStore, runID string, gen int, champion nn.Genome, fitness float64) {
	if champion == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	path := filepath.Join(cfg.Logging.ChampionDir, "champion_final.json")
	if err := logging.SaveChampion(path, champion, fitness, gen); err != nil {
		log.Warn("failed to save final champion", "err", err)
	}
	if history != nil {
		if err := history.SaveChampion(ctx, runID, gen, fitness, champion); err != nil {
			log.Warn("failed to store final champion", "err", err)
		}
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*store.SQLiteStore, string, error) {
	if cfg.Store.Path == "" {
		return nil, "", nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		return nil, "", err
	}

	s := store.NewSQLiteStore(cfg.Store.Path)
	if err := s.Init(ctx); err != nil {
		return nil, "", fmt.Errorf("opening run store: %w", err)
	}
	snapshot, err := yaml.Marshal(cfg)
	if err != nil {
		s.Close()
		return nil, "", err
	}
	runID, err := s.StartRun(ctx, cfg.Seed, string(snapshot))
	if err != nil {
		s.Close()
		return nil, "", err
	}
	return s, runID, nil
}

func saveChampion(ctx context.Context, log *slog.Logger, cfg *config.Config, history *store.SQLiteStore, runID string, gen int, champion nn.Genome, fitness float64) {
	if champion == nil {
		return
	}
	if err := logging.SaveChampion(logging.ChampionPath(cfg.Logging.ChampionDir, gen), champion, fitness, gen); err != nil {
		log.Warn("failed to save champion", "generation", gen, "err", err)
	}
	if history != nil {
		if err := history.SaveChampion(ctx, runID, gen, fitness, champion); err != nil {
			log.Warn("failed to store champion", "generation", gen, "err", err)
		}
	}
}

func saveReplay(log *slog.Logger, ev *eval.Evaluator, cfg *config.Config, gen int, champion nn.Genome) {
	if champion == nil {
		return
	}
	path := filepath.Join(cfg.Logging.ChampionDir, fmt.Sprintf("replay_gen_%05d.json", gen))
	_, err := ev.SaveReplay(path, []nn.Genome{champion}, cfg.Seed+int64(gen))
	switch {
	case errors.Is(err, eval.ErrReplayMismatch):
		log.Warn("saved replay does not reproduce", "generation", gen, "path", path, "err", err)
	case err != nil:
		log.Warn("failed to save replay", "generation", gen, "err", err)
	}
}

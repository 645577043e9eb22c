package engine

import (
	"errors"
	"regexp"
	"sync"
	"testing"

	"collectorai/internal/config"
	"collectorai/internal/nn"
	"collectorai/internal/world"
)

var reportPattern = regexp.MustCompile(`^min=(-?[0-9]+\.[0-9]{2}) max=(-?[0-9]+\.[0-9]{2}) avg=(-?[0-9]+\.[0-9]{2})$`)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Seed = 42
	cfg.World.Agents = 8
	cfg.World.Waste = 30
	cfg.Eval.GenerationLength = 150
	return cfg
}

func mustNew(t *testing.T, cfg *config.Config, opts ...Option) *Engine {
	t.Helper()
	e, err := New(cfg, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.World.Agents = 0
	if _, err := New(cfg); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestNewWithDefaults(t *testing.T) {
	e := mustNew(t, nil)
	if got := len(e.Genomes()); got != 40 {
		t.Fatalf("default population %d, want 40", got)
	}
	snap := e.Snapshot()
	if len(snap.Agents) != 40 || len(snap.Waste) != 60 || snap.Tick != 0 {
		t.Fatalf("unexpected initial snapshot: %d agents, %d waste, tick %d", len(snap.Agents), len(snap.Waste), snap.Tick)
	}
}

func TestWithGenomesValidates(t *testing.T) {
	cfg := testConfig()
	if _, err := New(cfg, WithGenomes(nil)); !errors.Is(err, world.ErrNoAgents) {
		t.Fatalf("expected ErrNoAgents, got %v", err)
	}
	if _, err := New(cfg, WithGenomes([]nn.Genome{{1, 2}})); !errors.Is(err, nn.ErrGenomeLength) {
		t.Fatalf("expected ErrGenomeLength, got %v", err)
	}
}

func TestWithGenomesCopiesInput(t *testing.T) {
	cfg := testConfig()
	seed := mustNew(t, cfg).Genomes()[:1]
	e := mustNew(t, cfg, WithGenomes(seed))

	seed[0][0] = 99
	if e.Genomes()[0][0] == 99 {
		t.Fatal("engine shares storage with the caller's genome")
	}
	if got := len(e.Snapshot().Agents); got != 1 {
		t.Fatalf("expected one agent, got %d", got)
	}
}

func TestStepKeepsWorldBounded(t *testing.T) {
	cfg := testConfig()
	e := mustNew(t, cfg)
	for i := 1; i <= 500; i++ {
		snap := e.Step()
		if snap.Tick != i {
			t.Fatalf("tick %d, want %d", snap.Tick, i)
		}
		if len(snap.Agents) != cfg.World.Agents || len(snap.Waste) != cfg.World.Waste {
			t.Fatalf("counts changed at tick %d", i)
		}
		for _, a := range snap.Agents {
			if a.X < 0 || a.X >= 1 || a.Y < 0 || a.Y >= 1 {
				t.Fatalf("agent left the unit square at tick %d: (%v, %v)", i, a.X, a.Y)
			}
		}
	}
	if e.Generation() != 0 {
		t.Fatal("stepping without auto-evolve must not start a new generation")
	}
}

func TestTrainReportFormat(t *testing.T) {
	e := mustNew(t, testConfig())
	report := e.Train()
	if !reportPattern.MatchString(report) {
		t.Fatalf("report %q does not match min=F max=F avg=F", report)
	}
	if e.Generation() != 1 {
		t.Fatalf("generation %d after one train", e.Generation())
	}
	if got := len(e.Genomes()); got != 8 {
		t.Fatalf("population drifted to %d", got)
	}
	if e.LastStats().String() != report {
		t.Fatalf("LastStats %q differs from report %q", e.LastStats().String(), report)
	}
}

func TestTrainIdenticalFitnessReport(t *testing.T) {
	cfg := testConfig()
	cfg.World.Agents = 1
	e := mustNew(t, cfg)

	m := reportPattern.FindStringSubmatch(e.Train())
	if m == nil {
		t.Fatal("report did not match")
	}
	if m[1] != m[2] || m[2] != m[3] {
		t.Fatalf("single agent should report min=max=avg, got %v", m[1:])
	}
}

func TestTrainIsDeterministic(t *testing.T) {
	a := mustNew(t, testConfig())
	b := mustNew(t, testConfig())
	for gen := 0; gen < 3; gen++ {
		ra, rb := a.Train(), b.Train()
		if ra != rb {
			t.Fatalf("generation %d: %q vs %q", gen, ra, rb)
		}
	}
	ga, gb := a.Genomes(), b.Genomes()
	for i := range ga {
		for j := range ga[i] {
			if ga[i][j] != gb[i][j] {
				t.Fatalf("genome %d gene %d differs", i, j)
			}
		}
	}
	sa, sb := a.Step(), b.Step()
	for i := range sa.Agents {
		if sa.Agents[i] != sb.Agents[i] {
			t.Fatalf("live worlds diverged at agent %d", i)
		}
	}
}

func TestBestTracksChampion(t *testing.T) {
	e := mustNew(t, testConfig())
	if g, f := e.Best(); g != nil || f != 0 {
		t.Fatal("Best before training should be empty")
	}
	var maxSeen float64
	for i := 0; i < 3; i++ {
		if s := e.TrainStats(); s.Max > maxSeen {
			maxSeen = s.Max
		}
	}
	g, f := e.Best()
	if g == nil {
		t.Fatal("no champion after training")
	}
	if f != maxSeen {
		t.Fatalf("champion fitness %v, best generation max %v", f, maxSeen)
	}
}

func TestTopKReturnsCopiesOfFittest(t *testing.T) {
	e := mustNew(t, testConfig())
	if top := e.TopK(3); len(top) != 0 {
		t.Fatalf("top k before training: %d individuals", len(top))
	}

	stats := e.TrainStats()
	top := e.TopK(3)
	if len(top) != 3 {
		t.Fatalf("expected 3 individuals, got %d", len(top))
	}
	if top[0].Fitness != stats.Max {
		t.Fatalf("fittest %v, generation max %v", top[0].Fitness, stats.Max)
	}
	for i := 1; i < len(top); i++ {
		if top[i].Fitness > top[i-1].Fitness {
			t.Fatalf("top k not sorted: %v before %v", top[i-1].Fitness, top[i].Fitness)
		}
	}

	top[0].Genome[0] += 100
	top[0].Fitness = -1
	if again := e.TopK(1); again[0].Fitness != stats.Max || again[0].Genome[0] == top[0].Genome[0] {
		t.Fatal("TopK shares state with the engine")
	}
	if got := len(e.TopK(100)); got != testConfig().World.Agents {
		t.Fatalf("k above population size returned %d", got)
	}
}

func TestAutoEvolve(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.AutoEvolve = true
	cfg.Eval.GenerationLength = 50
	e := mustNew(t, cfg)

	for i := 0; i < 50; i++ {
		e.Step()
	}
	if e.Generation() != 1 {
		t.Fatalf("generation %d after a full window", e.Generation())
	}
	if snap := e.Step(); snap.Tick != 1 {
		t.Fatalf("live world not rebuilt: tick %d", snap.Tick)
	}
	if got := len(e.Genomes()); got != cfg.World.Agents {
		t.Fatalf("population drifted to %d", got)
	}
}

func TestConcurrentUse(t *testing.T) {
	cfg := testConfig()
	cfg.Eval.GenerationLength = 30
	e := mustNew(t, cfg)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			e.Step()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 3; i++ {
			e.Train()
		}
	}()
	wg.Wait()

	if e.Generation() != 3 {
		t.Fatalf("generation %d, want 3", e.Generation())
	}
}

func TestWithWorldSeedMatchesReplay(t *testing.T) {
	cfg := testConfig()
	cfg.Eval.GenerationLength = 80
	base := mustNew(t, cfg)
	replay, err := base.Evaluator().RecordReplay(base.Genomes()[:2], 5)
	if err != nil {
		t.Fatal(err)
	}

	e := mustNew(t, cfg, WithGenomes(replay.Genomes), WithWorldSeed(replay.Seed))
	var snap world.Snapshot
	for i := 0; i < replay.Ticks; i++ {
		snap = e.Step()
	}

	w, err := base.Evaluator().Playback(replay)
	if err != nil {
		t.Fatal(err)
	}
	replay.PlaybackStep(w, replay.Ticks)
	want := w.Snapshot()
	for i := range want.Agents {
		if snap.Agents[i] != want.Agents[i] {
			t.Fatalf("agent %d: engine %+v, playback %+v", i, snap.Agents[i], want.Agents[i])
		}
	}
}

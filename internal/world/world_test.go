package world

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"collectorai/internal/nn"
)

func testParams() Params {
	return Params{
		Topology:      nn.Topology{Inputs: 9, Hidden: 18, Outputs: 2},
		Waste:         60,
		CollectRadius: 0.01,
		FOVRange:      0.25,
		FOVAngle:      testFOV,
		Cells:         9,
		Limits:        testLimits,
		SpeedStart:    0.002,
	}
}

func randomGenomes(n int, p Params, seed int64) []nn.Genome {
	rng := rand.New(rand.NewSource(seed))
	gs := make([]nn.Genome, n)
	for i := range gs {
		gs[i] = nn.RandomGenome(p.Topology.GenomeSize(), rng)
	}
	return gs
}

func TestBuildErrors(t *testing.T) {
	p := testParams()
	good := randomGenomes(3, p, 1)

	noWaste := testParams()
	noWaste.Waste = 0

	mismatch := testParams()
	mismatch.Cells = 5

	badLimits := testParams()
	badLimits.Limits.SpeedMin = 1

	tests := []struct {
		name    string
		genomes []nn.Genome
		params  Params
		want    error
	}{
		{"no agents", nil, p, ErrNoAgents},
		{"no waste", good, noWaste, ErrNoWaste},
		{"short genome", []nn.Genome{good[0][:10]}, p, nn.ErrGenomeLength},
		{"eye and controller disagree", good, mismatch, ErrSensorMismatch},
		{"bad limits", good, badLimits, ErrLimits},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Build(tt.genomes, tt.params, 1)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if w != nil {
				t.Fatal("expected nil world on error")
			}
		})
	}
}

func TestSingleAgentCollectsWasteUnderIt(t *testing.T) {
	p := testParams()
	p.Waste = 1
	w, err := Build(randomGenomes(1, p, 3), p, 99)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	agent := w.Agents()[0]
	w.waste[0].Pos = agent.Pos
	before := w.waste[0].Pos

	w.Step()

	if agent.Fitness != 1 {
		t.Fatalf("fitness = %d, want 1", agent.Fitness)
	}
	if w.waste[0].Pos == before {
		t.Fatal("collected waste was not relocated")
	}
	if !inUnit(w.waste[0].Pos) {
		t.Fatalf("relocated waste outside unit square: %+v", w.waste[0].Pos)
	}
}

func TestStepInvariants(t *testing.T) {
	p := testParams()
	w, err := Build(randomGenomes(20, p, 5), p, 5)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	prev := w.Fitness()
	total := 0
	for tick := 0; tick < 1000; tick++ {
		snap := w.Step()

		if len(snap.Agents) != 20 || len(snap.Waste) != p.Waste {
			t.Fatalf("tick %d: counts changed: %d agents, %d waste", tick, len(snap.Agents), len(snap.Waste))
		}
		for i, a := range snap.Agents {
			if a.X < 0 || a.X >= 1 || a.Y < 0 || a.Y >= 1 {
				t.Fatalf("tick %d: agent %d at (%v, %v)", tick, i, a.X, a.Y)
			}
			if a.Rotation < 0 || a.Rotation >= 2*math.Pi {
				t.Fatalf("tick %d: agent %d rotation %v", tick, i, a.Rotation)
			}
		}
		for i, ws := range snap.Waste {
			if ws.X < 0 || ws.X >= 1 || ws.Y < 0 || ws.Y >= 1 {
				t.Fatalf("tick %d: waste %d at (%v, %v)", tick, i, ws.X, ws.Y)
			}
		}

		cur := w.Fitness()
		for i := range cur {
			if d := cur[i] - prev[i]; d < 0 || d > 1 {
				t.Fatalf("tick %d: agent %d fitness went %d -> %d", tick, i, prev[i], cur[i])
			}
			total += cur[i] - prev[i]
		}
		prev = cur
	}
	if snapTick := w.Snapshot().Tick; snapTick != 1000 {
		t.Fatalf("tick = %d, want 1000", snapTick)
	}
	t.Logf("collected %d waste in 1000 ticks", total)
}

func TestBuildIsDeterministic(t *testing.T) {
	p := testParams()
	genomes := randomGenomes(10, p, 11)

	run := func() ([]int, Snapshot) {
		w, err := Build(genomes, p, 1234)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		for i := 0; i < 300; i++ {
			w.Advance()
		}
		return w.Fitness(), w.Snapshot()
	}

	f1, s1 := run()
	f2, s2 := run()
	for i := range f1 {
		if f1[i] != f2[i] {
			t.Fatalf("agent %d fitness differs: %d vs %d", i, f1[i], f2[i])
		}
		if s1.Agents[i] != s2.Agents[i] {
			t.Fatalf("agent %d pose differs: %+v vs %+v", i, s1.Agents[i], s2.Agents[i])
		}
	}
	for i := range s1.Waste {
		if s1.Waste[i] != s2.Waste[i] {
			t.Fatalf("waste %d differs: %+v vs %+v", i, s1.Waste[i], s2.Waste[i])
		}
	}
}

func TestGenomesRoundTripThroughWorld(t *testing.T) {
	p := testParams()
	genomes := randomGenomes(4, p, 8)
	w, err := Build(genomes, p, 8)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i, g := range w.Genomes() {
		for j := range g {
			if g[j] != genomes[i][j] {
				t.Fatalf("agent %d weight %d: %v != %v", i, j, g[j], genomes[i][j])
			}
		}
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	p := testParams()
	w, err := Build(randomGenomes(2, p, 2), p, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	snap := w.Snapshot()
	snap.Agents[0].X = 42
	snap.Waste[0].X = 42
	if w.Agents()[0].Pos.X == 42 || w.Waste()[0].Pos.X == 42 {
		t.Fatal("snapshot mutation leaked into the world")
	}
}

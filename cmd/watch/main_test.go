package main

import (
	"math"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"collectorai/internal/config"
	"collectorai/internal/engine"
)

func simScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	screen.SetSize(40, 12)
	return screen
}

func testViewer(t *testing.T, autoEvolve bool) *viewer {
	t.Helper()
	cfg := config.Default()
	cfg.World.Agents = 4
	cfg.World.Waste = 10
	cfg.Eval.GenerationLength = 20
	cfg.Engine.AutoEvolve = autoEvolve
	eng, err := engine.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	screen := simScreen(t)
	t.Cleanup(screen.Fini)
	return newViewer(eng, screen)
}

func TestTickShowsAutoEvolvedGeneration(t *testing.T) {
	v := testViewer(t, true)
	initial := v.status

	for i := 0; i < 19; i++ {
		v.tick()
	}
	if v.gen != 0 || v.status != initial {
		t.Fatalf("status changed before the window ended: gen %d %q", v.gen, v.status)
	}

	v.tick()
	if v.gen != 1 {
		t.Fatalf("gen = %d after a full window", v.gen)
	}
	if want := v.eng.LastStats().String(); v.status != want {
		t.Fatalf("status %q, want %q", v.status, want)
	}

	report := v.status
	v.tick()
	if v.status != report {
		t.Fatalf("status replaced mid-window: %q", v.status)
	}
}

func TestTickRespectsPause(t *testing.T) {
	v := testViewer(t, false)
	v.paused = true
	v.tick()
	if v.snap.Tick != 0 {
		t.Fatalf("paused viewer advanced to tick %d", v.snap.Tick)
	}
	v.paused = false
	v.tick()
	if v.snap.Tick != 1 {
		t.Fatalf("tick = %d", v.snap.Tick)
	}
}

func TestPollEventsStopsAfterFini(t *testing.T) {
	screen := simScreen(t)
	ch := make(chan tcell.Event, 100)
	done := make(chan struct{})
	go func() {
		pollEvents(screen, ch)
		close(done)
	}()

	screen.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	screen.Fini()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pollEvents still running after Fini")
	}
}

func TestRunQuitsOnKey(t *testing.T) {
	v := testViewer(t, false)
	done := make(chan struct{})
	go func() {
		v.run(time.Millisecond)
		close(done)
	}()

	v.screen.(tcell.SimulationScreen).InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return on q")
	}
}

func TestArrow(t *testing.T) {
	tests := []struct {
		heading float64
		want    rune
	}{
		{0, '→'},
		{math.Pi / 2, '↓'},
		{math.Pi, '←'},
		{-math.Pi / 2, '↑'},
		{2 * math.Pi, '→'},
	}
	for _, tt := range tests {
		if got := arrow(tt.heading); got != tt.want {
			t.Errorf("arrow(%v) = %q, want %q", tt.heading, got, tt.want)
		}
	}
}

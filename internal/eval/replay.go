package eval

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"collectorai/internal/nn"
	"collectorai/internal/world"
)

// ErrReplayMismatch is returned when playback does not reproduce a replay
var ErrReplayMismatch = errors.New("playback diverged from replay")

// Replay stores what is needed to rerun one evaluation window: worlds are
// deterministic given their genomes and seed.
type Replay struct {
	Seed      int64       `json:"seed"`
	Ticks     int         `json:"ticks"`
	Genomes   []nn.Genome `json:"genomes"`
	Collected []int       `json:"collected"`
}

// RecordReplay runs one window for genomes on seed and records the outcome
func (e *Evaluator) RecordReplay(genomes []nn.Genome, seed int64) (*Replay, error) {
	w, err := e.BuildWorld(genomes, seed)
	if err != nil {
		return nil, err
	}
	for i := 0; i < e.cfg.Eval.GenerationLength; i++ {
		w.Advance()
	}

	r := &Replay{
		Seed:      seed,
		Ticks:     w.Tick(),
		Genomes:   make([]nn.Genome, len(genomes)),
		Collected: w.Fitness(),
	}
	for i, g := range genomes {
		r.Genomes[i] = nn.CloneGenome(g)
	}
	return r, nil
}

// Playback recreates the replay's world at tick zero
func (e *Evaluator) Playback(r *Replay) (*world.World, error) {
	return e.BuildWorld(r.Genomes, r.Seed)
}

// PlaybackStep runs w up to step ticks of the replay
func (r *Replay) PlaybackStep(w *world.World, step int) {
	if step > r.Ticks {
		step = r.Ticks
	}
	for w.Tick() < step {
		w.Advance()
	}
}

// Verify plays r back in full and checks every agent collects the recorded amount
func (e *Evaluator) Verify(r *Replay) error {
	w, err := e.Playback(r)
	if err != nil {
		return err
	}
	r.PlaybackStep(w, r.Ticks)

	got := w.Fitness()
	for i := range got {
		if i >= len(r.Collected) || got[i] != r.Collected[i] {
			return fmt.Errorf("%w: agent %d", ErrReplayMismatch, i)
		}
	}
	return nil
}

// Save writes the replay to a file
func (r *Replay) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SaveReplay records genomes on seed, writes the replay to path and checks
// the written file plays back to the recorded outcome. The replay is
// returned together with any ErrReplayMismatch so callers can keep it.
func (e *Evaluator) SaveReplay(path string, genomes []nn.Genome, seed int64) (*Replay, error) {
	r, err := e.RecordReplay(genomes, seed)
	if err != nil {
		return nil, err
	}
	if err := r.Save(path); err != nil {
		return nil, err
	}
	saved, err := LoadReplay(path)
	if err != nil {
		return nil, err
	}
	if err := e.Verify(saved); err != nil {
		return r, fmt.Errorf("replay %s: %w", path, err)
	}
	return r, nil
}

// LoadReplay loads a replay from a file
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Replay
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing replay %s: %w", path, err)
	}
	return &r, nil
}

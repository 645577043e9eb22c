package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"collectorai/internal/nn"
)

// ErrEmptyChampion is returned when a champion file holds no genome
var ErrEmptyChampion = errors.New("champion file has no genome")

// Champion is the exported best genome of a run
type Champion struct {
	Generation int       `json:"generation"`
	Fitness    float64   `json:"fitness"`
	Genome     nn.Genome `json:"genome"`
}

// ChampionPath returns the file name used for generation gen inside dir
func ChampionPath(dir string, gen int) string {
	return filepath.Join(dir, fmt.Sprintf("champion_gen_%05d.json", gen))
}

// SaveChampion saves the champion genome to a file
func SaveChampion(path string, genome nn.Genome, fitness float64, gen int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(Champion{
		Generation: gen,
		Fitness:    fitness,
		Genome:     genome,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadChampion loads a champion saved by SaveChampion
func LoadChampion(path string) (Champion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Champion{}, err
	}

	var c Champion
	if err := json.Unmarshal(data, &c); err != nil {
		return Champion{}, fmt.Errorf("parsing champion %s: %w", path, err)
	}
	if len(c.Genome) == 0 {
		return Champion{}, fmt.Errorf("%s: %w", path, ErrEmptyChampion)
	}
	return c, nil
}

// Package config loads the simulation and training configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Outputs is the number of controller outputs: rotation delta and speed delta.
const Outputs = 2

// Config is the root configuration structure
type Config struct {
	Seed       int64            `yaml:"seed"`
	World      WorldConfig      `yaml:"world"`
	Vision     VisionConfig     `yaml:"vision"`
	NN         NNConfig         `yaml:"nn"`
	Kinematics KinematicsConfig `yaml:"kinematics"`
	GA         GAConfig         `yaml:"ga"`
	Eval       EvalConfig       `yaml:"eval"`
	Engine     EngineConfig     `yaml:"engine"`
	Logging    LogConfig        `yaml:"logging"`
	Store      StoreConfig      `yaml:"store"`
}

// WorldConfig defines population and waste counts
type WorldConfig struct {
	Agents        int     `yaml:"agents"`
	Waste         int     `yaml:"waste"`
	CollectRadius float64 `yaml:"collect_radius"`
}

// VisionConfig defines the eye of every collector
type VisionConfig struct {
	FOVRange float64 `yaml:"fov_range"` // fraction of the world width
	FOVAngle float64 `yaml:"fov_angle"` // radians, centred on heading
	Cells    int     `yaml:"cells"`
}

// NNConfig defines the controller hidden layer
type NNConfig struct {
	Hidden int `yaml:"hidden"` // 0 means 2*cells
}

// KinematicsConfig bounds per-tick motion
type KinematicsConfig struct {
	RotationMax float64 `yaml:"rotation_max"`
	SpeedMin    float64 `yaml:"speed_min"`
	SpeedMax    float64 `yaml:"speed_max"`
	SpeedAccel  float64 `yaml:"speed_accel"`
	SpeedStart  float64 `yaml:"speed_start"`
}

// GAConfig defines genetic algorithm parameters
type GAConfig struct {
	Crossover      string  `yaml:"crossover"` // uniform|single_point
	CrossoverRate  float64 `yaml:"crossover_rate"`
	MutationRate   float64 `yaml:"mutation_rate"`
	MutationSigma  float64 `yaml:"mutation_sigma"`
	ResetMutationP float64 `yaml:"reset_mutation_p"`
	FitnessFloor   float64 `yaml:"fitness_floor"`
	Elitism        bool    `yaml:"elitism"`
}

// EvalConfig defines the evaluation window and benchmark suite
type EvalConfig struct {
	GenerationLength int     `yaml:"generation_length"`
	BenchmarkEvery   int     `yaml:"benchmark_every"`
	BenchmarkSeeds   []int64 `yaml:"benchmark_seeds"`
	Workers          int     `yaml:"workers"`
	RobustnessLambda float64 `yaml:"robustness_lambda"` // benchmark score = mean - lambda*std
}

// EngineConfig toggles live-world behaviour
type EngineConfig struct {
	AutoEvolve bool `yaml:"auto_evolve"`
}

// LogConfig defines logging parameters
type LogConfig struct {
	Level             string `yaml:"level"`  // debug|info|warn|error
	Format            string `yaml:"format"` // text|json
	EveryGenSummary   bool   `yaml:"every_gen_summary"`
	CSVPath           string `yaml:"csv_path"`
	JSONPath          string `yaml:"json_path"`
	SaveChampionEvery int    `yaml:"save_champion_every"`
	ChampionDir       string `yaml:"champion_dir"`
	ReplayEvery       int    `yaml:"replay_every"` // 0 disables champion replays
	TopK              int    `yaml:"top_k"`        // 0 disables the top-k line
}

// StoreConfig points at the SQLite run history; empty path disables it
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load reads a YAML config file over the embedded defaults and validates it.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine refuses to build.
func (c *Config) Validate() error {
	switch {
	case c.World.Agents < 1:
		return fmt.Errorf("%w: world.agents must be positive, got %d", ErrInvalid, c.World.Agents)
	case c.World.Waste < 1:
		return fmt.Errorf("%w: world.waste must be positive, got %d", ErrInvalid, c.World.Waste)
	case c.World.CollectRadius <= 0:
		return fmt.Errorf("%w: world.collect_radius must be positive", ErrInvalid)
	case c.Vision.Cells < 1:
		return fmt.Errorf("%w: vision.cells must be positive, got %d", ErrInvalid, c.Vision.Cells)
	case c.Vision.FOVRange <= 0 || c.Vision.FOVAngle <= 0:
		return fmt.Errorf("%w: vision range and angle must be positive", ErrInvalid)
	case c.Vision.FOVAngle > 2*math.Pi:
		return fmt.Errorf("%w: vision.fov_angle must not exceed a full circle, got %g", ErrInvalid, c.Vision.FOVAngle)
	case c.NN.Hidden < 0:
		return fmt.Errorf("%w: nn.hidden must not be negative", ErrInvalid)
	case c.Kinematics.SpeedMin < 0 || c.Kinematics.SpeedMin > c.Kinematics.SpeedMax:
		return fmt.Errorf("%w: need 0 <= speed_min <= speed_max", ErrInvalid)
	case c.Kinematics.RotationMax < 0 || c.Kinematics.SpeedAccel < 0:
		return fmt.Errorf("%w: rotation_max and speed_accel must not be negative", ErrInvalid)
	case c.Eval.GenerationLength < 1:
		return fmt.Errorf("%w: eval.generation_length must be positive", ErrInvalid)
	case c.Eval.RobustnessLambda < 0:
		return fmt.Errorf("%w: eval.robustness_lambda must not be negative", ErrInvalid)
	case c.Logging.TopK < 0:
		return fmt.Errorf("%w: logging.top_k must not be negative", ErrInvalid)
	}
	switch c.GA.Crossover {
	case "", "uniform", "single_point":
	default:
		return fmt.Errorf("%w: ga.crossover must be uniform or single_point, got %q", ErrInvalid, c.GA.Crossover)
	}
	probs := []struct {
		name string
		p    float64
	}{
		{"ga.crossover_rate", c.GA.CrossoverRate},
		{"ga.mutation_rate", c.GA.MutationRate},
		{"ga.reset_mutation_p", c.GA.ResetMutationP},
	}
	for _, pr := range probs {
		if pr.p < 0 || pr.p > 1 {
			return fmt.Errorf("%w: %s must be in [0,1], got %g", ErrInvalid, pr.name, pr.p)
		}
	}
	if c.GA.MutationSigma < 0 || c.GA.FitnessFloor < 0 {
		return fmt.Errorf("%w: mutation_sigma and fitness_floor must not be negative", ErrInvalid)
	}
	return nil
}

// ObsDim returns the sensor vector length
func (c *Config) ObsDim() int {
	return c.Vision.Cells
}

// HiddenSize returns the controller hidden layer width
func (c *Config) HiddenSize() int {
	if c.NN.Hidden > 0 {
		return c.NN.Hidden
	}
	return 2 * c.Vision.Cells
}

// WriteYAML saves the effective configuration.
func (c *Config) WriteYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

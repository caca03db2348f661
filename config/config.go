// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Network shape constants. The vision vector is 8 rays with two values
// each (obstacle distance, food flag) plus one-hot head and tail
// directions; the output is one of three relative actions.
const (
	NumInputs  = 8*2 + 4 + 4
	NumOutputs = 3
)

// Config holds all run parameters. Immutable after Load.
type Config struct {
	Board       BoardConfig       `yaml:"board"`
	Population  PopulationConfig  `yaml:"population"`
	Neural      NeuralConfig      `yaml:"neural"`
	Mutation    MutationConfig    `yaml:"mutation"`
	Fitness     FitnessConfig     `yaml:"fitness"`
	Game        GameConfig        `yaml:"game"`
	Sim         SimConfig         `yaml:"sim"`
	Viz         VizConfig         `yaml:"viz"`
	Persistence PersistenceConfig `yaml:"persistence"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// BoardConfig holds board dimensions.
type BoardConfig struct {
	Size int `yaml:"size"` // Square board edge length in cells
}

// PopulationConfig holds generation-level parameters.
type PopulationConfig struct {
	Size               int     `yaml:"size"`
	EliteCount         int     `yaml:"elite_count"`
	TournamentFraction float64 `yaml:"tournament_fraction"` // Fraction of non-elite slots bred by tournament
	TournamentSize     int     `yaml:"tournament_size"`
	RandomFraction     float64 `yaml:"random_fraction"` // Fraction of non-elite slots seeded fresh
}

// NeuralConfig holds network topology parameters.
type NeuralConfig struct {
	HiddenLayers []int `yaml:"hidden_layers"` // Sizes of hidden layers, e.g. [16, 8]
}

// MutationConfig holds mutation parameters.
type MutationConfig struct {
	Rate      float64 `yaml:"rate"`      // Per-weight mutation probability
	Magnitude float64 `yaml:"magnitude"` // Delta drawn uniformly from [-magnitude, magnitude)
}

// FitnessConfig holds fitness weighting. Defaults keep score strictly
// dominant over steps for any reachable step count.
type FitnessConfig struct {
	ScoreWeight float64 `yaml:"score_weight"`
	StepWeight  float64 `yaml:"step_weight"`
}

// GameConfig holds per-game parameters.
type GameConfig struct {
	StarvationThreshold int `yaml:"starvation_threshold"` // 0 = board area
	InitialLength       int `yaml:"initial_length"`
}

// SimConfig holds simulation scheduling parameters.
type SimConfig struct {
	Workers int `yaml:"workers"` // 0 = GOMAXPROCS
}

// VizConfig holds terminal rendering parameters.
type VizConfig struct {
	LowDetail    bool `yaml:"low_detail"`
	FrameEveryMS int  `yaml:"frame_every_ms"`
}

// PersistenceConfig holds best-network persistence settings.
type PersistenceConfig struct {
	SaveBest bool   `yaml:"save_best"`
	SavePath string `yaml:"save_path"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	Topology            []int // [NumInputs, hidden..., NumOutputs]
	StarvationThreshold int   // Effective threshold (board area when unset)
	Workers             int   // Effective worker count
}

// Load loads configuration from a YAML file, merging it over the
// embedded defaults. An empty path uses the defaults alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize computes derived values and validates the configuration.
// Load calls it automatically; programmatically built configs must call
// it before use.
func (c *Config) Finalize() error {
	c.computeDerived()
	return c.validate()
}

func (c *Config) computeDerived() {
	topo := make([]int, 0, len(c.Neural.HiddenLayers)+2)
	topo = append(topo, NumInputs)
	topo = append(topo, c.Neural.HiddenLayers...)
	topo = append(topo, NumOutputs)
	c.Derived.Topology = topo

	c.Derived.StarvationThreshold = c.Game.StarvationThreshold
	if c.Derived.StarvationThreshold == 0 {
		c.Derived.StarvationThreshold = c.Board.Size * c.Board.Size
	}

	c.Derived.Workers = c.Sim.Workers
	if c.Derived.Workers <= 0 {
		c.Derived.Workers = runtime.GOMAXPROCS(0)
	}
}

func (c *Config) validate() error {
	if c.Board.Size < 5 {
		return fmt.Errorf("board.size must be at least 5, got %d", c.Board.Size)
	}
	if c.Population.Size <= 0 {
		return fmt.Errorf("population.size must be positive, got %d", c.Population.Size)
	}
	if c.Population.EliteCount < 0 || c.Population.EliteCount > c.Population.Size {
		return fmt.Errorf("population.elite_count %d out of range [0, %d]",
			c.Population.EliteCount, c.Population.Size)
	}
	if c.Population.TournamentFraction < 0 || c.Population.TournamentFraction > 1 {
		return fmt.Errorf("population.tournament_fraction must be in [0,1], got %v",
			c.Population.TournamentFraction)
	}
	if c.Population.RandomFraction < 0 || c.Population.RandomFraction > 1 {
		return fmt.Errorf("population.random_fraction must be in [0,1], got %v",
			c.Population.RandomFraction)
	}
	if c.Population.TournamentFraction+c.Population.RandomFraction > 1 {
		return fmt.Errorf("tournament_fraction + random_fraction must not exceed 1")
	}
	if c.Population.TournamentSize <= 0 {
		return fmt.Errorf("population.tournament_size must be positive, got %d",
			c.Population.TournamentSize)
	}
	for i, h := range c.Neural.HiddenLayers {
		if h <= 0 {
			return fmt.Errorf("neural.hidden_layers[%d] must be positive, got %d", i, h)
		}
	}
	if c.Mutation.Rate < 0 || c.Mutation.Rate > 1 {
		return fmt.Errorf("mutation.rate must be in [0,1], got %v", c.Mutation.Rate)
	}
	if c.Mutation.Magnitude < 0 {
		return fmt.Errorf("mutation.magnitude must be non-negative, got %v", c.Mutation.Magnitude)
	}
	if c.Fitness.ScoreWeight <= 0 {
		return fmt.Errorf("fitness.score_weight must be positive, got %v", c.Fitness.ScoreWeight)
	}
	if c.Fitness.StepWeight < 0 {
		return fmt.Errorf("fitness.step_weight must be non-negative, got %v", c.Fitness.StepWeight)
	}
	if c.Game.InitialLength < 1 || c.Game.InitialLength >= c.Board.Size/2 {
		return fmt.Errorf("game.initial_length %d out of range [1, %d)",
			c.Game.InitialLength, c.Board.Size/2)
	}
	if c.Game.StarvationThreshold < 0 {
		return fmt.Errorf("game.starvation_threshold must be non-negative, got %d",
			c.Game.StarvationThreshold)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel    = "gp"
	DefaultNoise    = 0.01
	DefaultMaxEvals = 600
	DefaultRestarts = 1
	DefaultSnapshot = "dynlearn_data.bin"
)

type Config struct {
	Model     string     `yaml:"model"`
	StateDim  int        `yaml:"state_dim"`
	ActionDim int        `yaml:"action_dim"`
	PredDim   int        `yaml:"pred_dim"`
	Snapshot  string     `yaml:"snapshot"`
	GP        GPConfig   `yaml:"gp"`
	Mean      MeanConfig `yaml:"mean"`
}

type GPConfig struct {
	Noise    float64 `yaml:"noise"`
	MaxEvals int     `yaml:"max_evals"`
	Restarts int     `yaml:"restarts"`
}

type MeanConfig struct {
	MaxEvals int `yaml:"max_evals"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:    DefaultModel,
		Snapshot: DefaultSnapshot,
		GP: GPConfig{
			Noise:    DefaultNoise,
			MaxEvals: DefaultMaxEvals,
			Restarts: DefaultRestarts,
		},
		Mean: MeanConfig{
			MaxEvals: 4000,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Model != "gp" && c.Model != "mean" {
		return fmt.Errorf("unknown model type: %s", c.Model)
	}
	if c.StateDim < 0 || c.ActionDim < 0 {
		return fmt.Errorf("negative dimensions: state %d, action %d", c.StateDim, c.ActionDim)
	}
	if c.StateDim+c.ActionDim == 0 {
		return fmt.Errorf("state_dim + action_dim must be positive")
	}
	if c.PredDim <= 0 {
		return fmt.Errorf("pred_dim must be positive, got %d", c.PredDim)
	}
	if c.GP.Noise < 0 {
		return fmt.Errorf("gp noise must be non-negative, got %f", c.GP.Noise)
	}
	return nil
}

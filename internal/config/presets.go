package config

// Presets are ready-made dimension sets for common benchmark systems.
var Presets = map[string]*Config{
	"pendulum": {
		Model: "gp", StateDim: 3, ActionDim: 1, PredDim: 3,
	},
	"cartpole": {
		Model: "gp", StateDim: 4, ActionDim: 1, PredDim: 4,
	},
	"double_pendulum": {
		Model: "gp", StateDim: 4, ActionDim: 2, PredDim: 4,
	},
	"linear": {
		Model: "mean", StateDim: 1, ActionDim: 1, PredDim: 1,
	},
}

func GetPreset(name string) *Config {
	base, ok := Presets[name]
	if !ok {
		return nil
	}

	cfg := DefaultConfig()
	cfg.Model = base.Model
	cfg.StateDim = base.StateDim
	cfg.ActionDim = base.ActionDim
	cfg.PredDim = base.PredDim
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}

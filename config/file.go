package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileLayout mirrors the globals. Decoding into a copy of the current
// values leaves keys absent from the file at their defaults.
type fileLayout struct {
	Window Config       `yaml:"window"`
	Sim    SimConfig    `yaml:"sim"`
	Player PlayerConfig `yaml:"player"`
	Net    NetConfig    `yaml:"net"`
	Level  LevelConfig  `yaml:"level"`
	Log    LogConfig    `yaml:"log"`
	Debug  DebugConfig  `yaml:"debug"`
}

// Load overlays a YAML file onto the global configuration. A missing file
// is not an error. Nothing is applied when the file fails to parse or
// validate.
func Load(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse overlays YAML bytes onto the global configuration.
func Parse(data []byte) error {
	f := fileLayout{
		Window: *C,
		Sim:    Sim,
		Player: Player,
		Net:    Net,
		Level:  Level,
		Log:    Log,
		Debug:  Debug,
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if err := f.Sim.Validate(); err != nil {
		return err
	}

	window := f.Window
	C = &window
	Sim = f.Sim
	Player = f.Player
	Net = f.Net
	Level = f.Level
	Log = f.Log
	Debug = f.Debug
	return nil
}

// Validate rejects settings that would stall the loop or the resolver.
func (s SimConfig) Validate() error {
	switch {
	case s.Resolution <= 0:
		return fmt.Errorf("sim.resolution must be positive, got %v", s.Resolution)
	case s.Clearance < 0:
		return fmt.Errorf("sim.clearance must not be negative, got %v", s.Clearance)
	case s.MinRate <= 0:
		return fmt.Errorf("sim.min_rate must be positive, got %v", s.MinRate)
	case s.DefaultTPS <= 0:
		return fmt.Errorf("sim.default_tps must be positive, got %v", s.DefaultTPS)
	case s.IntegralDecay < 0 || s.IntegralDecay > 1:
		return fmt.Errorf("sim.integral_decay must be within [0, 1], got %v", s.IntegralDecay)
	case s.TelemetryWindow <= 0:
		return fmt.Errorf("sim.telemetry_window must be positive, got %v", s.TelemetryWindow)
	case s.HistorySize <= 0:
		return fmt.Errorf("sim.history_size must be positive, got %v", s.HistorySize)
	}
	return nil
}

// Reset restores every global to its default.
func Reset() {
	setDefaults()
}

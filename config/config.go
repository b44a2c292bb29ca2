package config

import (
	"image/color"
	"time"

	"github.com/automoto/battleboxes/shared/physics"
)

// Config contains window and presentation settings
type Config struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Title  string  `yaml:"title"`
	Scale  float64 `yaml:"scale"` // pixels per world unit
}

// SimConfig contains the prediction loop and collision resolver settings
type SimConfig struct {
	// Swept collision resolver. The server overrides the first two in SessionInit.
	Resolution    float64 `yaml:"resolution"` // sub-steps per world unit
	Clearance     float64 `yaml:"clearance"`
	VerticalSlack float64 `yaml:"vertical_slack"`

	// Tick-rate controller
	KP            float64 `yaml:"kp"`
	KI            float64 `yaml:"ki"`
	KD            float64 `yaml:"kd"`
	IntegralDecay float64 `yaml:"integral_decay"`
	MinRate       float64 `yaml:"min_rate"` // steps per second floor

	DefaultTPS         float64       `yaml:"default_tps"`
	TelemetryWindow    time.Duration `yaml:"telemetry_window"`
	HiddenStepInterval time.Duration `yaml:"hidden_step_interval"` // pacing while the window is unfocused and ahead

	// Rendering of remote and corrected state
	InterpolationDelay time.Duration `yaml:"interpolation_delay"`
	CorrectionDuration time.Duration `yaml:"correction_duration"`

	HistorySize int `yaml:"history_size"` // step reports kept for prediction error
}

// PlayerConfig contains the locally controlled body settings
type PlayerConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	// Used until the server sends its own, and in offline mode.
	Properties physics.MovementProperties `yaml:"properties"`
}

// NetConfig contains server connection settings
type NetConfig struct {
	Address    string `yaml:"address"`
	Version    string `yaml:"version"`
	PlayerName string `yaml:"player_name"`

	ReportBuffer int `yaml:"report_buffer"` // queued step reports before dropping
}

// LevelConfig contains level discovery and TMX naming settings
type LevelConfig struct {
	Dir              string        `yaml:"dir"`
	CollisionLayer   string        `yaml:"collision_layer"`
	SpawnGroup       string        `yaml:"spawn_group"`
	FrictionProperty string        `yaml:"friction_property"`
	HotReload        bool          `yaml:"hot_reload"`
	ReloadDebounce   time.Duration `yaml:"reload_debounce"`
}

// LogConfig contains logger settings
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"` // empty logs to stderr only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DebugConfig contains debug/testing command-line options
type DebugConfig struct {
	Overlay   bool   `yaml:"overlay"` // draw collision polygons and telemetry
	Offline   bool   `yaml:"offline"` // run a local session without a server
	PprofAddr string `yaml:"pprof_addr"`

	ObstacleColor color.RGBA `yaml:"-"`
	HullColor     color.RGBA `yaml:"-"`
	RemoteColor   color.RGBA `yaml:"-"`
	TextColor     color.RGBA `yaml:"-"`
}

var C *Config
var Sim SimConfig
var Player PlayerConfig
var Net NetConfig
var Level LevelConfig
var Log LogConfig
var Debug DebugConfig

func init() {
	setDefaults()
}

func setDefaults() {
	C = &Config{
		Width:  960,
		Height: 540,
		Title:  "Battleboxes",
		Scale:  32,
	}

	Sim = SimConfig{
		Resolution:    20,
		Clearance:     0.001,
		VerticalSlack: 10,

		KP:            4,
		KI:            0.2,
		KD:            8,
		IntegralDecay: 0.9,
		MinRate:       2,

		DefaultTPS:         30,
		TelemetryWindow:    time.Second,
		HiddenStepInterval: time.Second,

		InterpolationDelay: 100 * time.Millisecond,
		CorrectionDuration: 150 * time.Millisecond,

		HistorySize: 64,
	}

	Player = PlayerConfig{
		Width:  0.75,
		Height: 0.75,
		Properties: physics.MovementProperties{
			Gravity:       0.02,
			MovePower:     0.05,
			JumpPower:     0.35,
			WallJumpPower: 1.5,
			AirMovePower:  0.015,
			SneakDrag:     0.6,
			Drag:          0.7,
			AirDrag:       0.98,
			WallDrag:      0.8,
			Grip:          1,
		},
	}

	Net = NetConfig{
		Address:      "localhost:7373",
		Version:      "0.1.0",
		PlayerName:   "player",
		ReportBuffer: 64,
	}

	Level = LevelConfig{
		Dir:              "assets/levels",
		CollisionLayer:   "collision",
		SpawnGroup:       "PlayerSpawn",
		FrictionProperty: "friction",
		HotReload:        false,
		ReloadDebounce:   200 * time.Millisecond,
	}

	Log = LogConfig{
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
	}

	Debug = DebugConfig{
		Overlay:       false,
		Offline:       false,
		ObstacleColor: color.RGBA{R: 90, G: 110, B: 140, A: 255},
		HullColor:     color.RGBA{R: 120, G: 230, B: 120, A: 255},
		RemoteColor:   color.RGBA{R: 230, G: 160, B: 60, A: 255},
		TextColor:     color.RGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

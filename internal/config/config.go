package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Spawn   SpawnConfig   `toml:"spawn"`
	Tuning  TuningConfig  `toml:"tuning"`
	Logging LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	BindAddress     string   `toml:"bind_address"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	Seed            int64    `toml:"seed"`
}

// Duration accepts "5s"-style strings in TOML.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

type SpawnConfig struct {
	Enabled        bool    `toml:"enabled"`
	MinInterval    float64 `toml:"min_interval"`
	MaxInterval    float64 `toml:"max_interval"`
	ThiefChance    float64 `toml:"thief_chance"`
	LittererChance float64 `toml:"litterer_chance"`
	MaxCustomers   int     `toml:"max_customers"`
	BanDuration    float64 `toml:"ban_duration"`
}

// TuningConfig exposes the navigation thresholds that were tuned by eye.
// Distances are in tiles, durations in seconds.
type TuningConfig struct {
	StuckRecomputeAfter float64 `toml:"stuck_recompute_after"`
	StuckEpsilonTiles   float64 `toml:"stuck_epsilon_tiles"`
	RecomputeTiles      float64 `toml:"recompute_tiles"`
	WaypointTiles       float64 `toml:"waypoint_tiles"`
	PhaseTiles          float64 `toml:"phase_tiles"`
	RadiusFloorFraction float64 `toml:"radius_floor_fraction"`
}

type LoggingConfig struct {
	Sinks    []string `toml:"sinks"`
	Level    string   `toml:"level"` // debug, info, warn, error
	JSONPath string   `toml:"json_path"`
}

// Load reads a TOML file over the defaults. A missing path returns the
// defaults untouched.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			BindAddress:     "0.0.0.0:8080",
			ShutdownTimeout: Duration(5 * time.Second),
			Seed:            1,
		},
		Spawn: SpawnConfig{
			Enabled:        true,
			MinInterval:    2.0,
			MaxInterval:    6.0,
			ThiefChance:    0.15,
			LittererChance: 0.25,
			MaxCustomers:   8,
			BanDuration:    10.0,
		},
		Tuning: TuningConfig{
			StuckRecomputeAfter: 0.2,
			StuckEpsilonTiles:   0.1,
			RecomputeTiles:      2.0,
			WaypointTiles:       0.5,
			PhaseTiles:          0.3,
			RadiusFloorFraction: 0.4,
		},
		Logging: LoggingConfig{
			Sinks: []string{"console"},
			Level: "info",
		},
	}
}

// Package config provides configuration loading and access for the world generator
// and the diffusion simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// World size limits accepted by generation.
const (
	MinWorldSize = 2
	MaxWorldSize = 400
)

// Seed limits. The covering layer is generated from seed+1, so the upper bound
// leaves room for that without leaving the 32-bit range.
const (
	MinSeed = math.MinInt32
	MaxSeed = math.MaxInt32 - 1
)

// Noise backends.
const (
	BackendPerlin  = "perlin"
	BackendSimplex = "simplex"
)

// Diffusion update orders.
const (
	OrderSnapshot = "snapshot"
	OrderCascade  = "cascade"
)

// Config holds all configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Noise     NoiseConfig     `yaml:"noise"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Diffusion DiffusionConfig `yaml:"diffusion"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Tune      TuneConfig      `yaml:"tune"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the grid dimensions and the generation seed.
type WorldConfig struct {
	Width  int   `yaml:"width"`
	Height int   `yaml:"height"`
	Seed   int64 `yaml:"seed"`
}

// NoiseConfig holds multi-octave noise parameters.
type NoiseConfig struct {
	Backend     string  `yaml:"backend"`     // perlin or simplex
	Octaves     int     `yaml:"octaves"`     // Number of summed octaves
	Scale       float64 `yaml:"scale"`       // Divides cell coordinates before sampling
	Persistence float64 `yaml:"persistence"` // Amplitude multiplier per octave
	Lacunarity  float64 `yaml:"lacunarity"`  // Frequency multiplier per octave
	OffsetX     float64 `yaml:"offset_x"`    // Fixed offset added to every octave
	OffsetY     float64 `yaml:"offset_y"`
}

// TerrainConfig holds classification thresholds.
type TerrainConfig struct {
	WaterBelow  float64 `yaml:"water_below"`  // height < this is water
	RockFrom    float64 `yaml:"rock_from"`    // height >= this is rock
	CoveringMin float64 `yaml:"covering_min"` // covering density lower bound (exclusive)
	CoveringMax float64 `yaml:"covering_max"` // covering density upper bound (exclusive)
}

// DiffusionConfig holds temperature diffusion parameters.
type DiffusionConfig struct {
	UpdateIntervalMS   int     `yaml:"update_interval_ms"`  // Minimum wall-clock gap between ticks
	TransferRate       float64 `yaml:"transfer_rate"`       // Fraction of a positive difference moved per neighbor
	Epsilon            float64 `yaml:"epsilon"`             // Change below this puts a node to sleep
	Order              string  `yaml:"order"`               // snapshot or cascade
	InitialTemperature float64 `yaml:"initial_temperature"` // Starting temperature of every monitor
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // Ticks per stats window
	PerfWindow  int `yaml:"perf_window"`  // Samples kept by the perf collector
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig holds run history storage settings.
type StoreConfig struct {
	DSN string `yaml:"dsn"` // Postgres DSN; empty keeps history in memory
}

// TuneConfig holds noise parameter tuning targets.
type TuneConfig struct {
	TargetWater float64 `yaml:"target_water"`
	TargetLand  float64 `yaml:"target_land"`
	TargetRock  float64 `yaml:"target_rock"`
	Seeds       int     `yaml:"seeds"`
	MaxEvals    int     `yaml:"max_evals"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	UpdateInterval time.Duration // Diffusion.UpdateIntervalMS as a duration
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
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
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks that every value is inside its accepted range.
func (c *Config) Validate() error {
	if c.World.Width < MinWorldSize || c.World.Width > MaxWorldSize {
		return fmt.Errorf("world.width %d outside [%d,%d]", c.World.Width, MinWorldSize, MaxWorldSize)
	}
	if c.World.Height < MinWorldSize || c.World.Height > MaxWorldSize {
		return fmt.Errorf("world.height %d outside [%d,%d]", c.World.Height, MinWorldSize, MaxWorldSize)
	}
	if c.World.Seed < MinSeed || c.World.Seed > MaxSeed {
		return fmt.Errorf("world.seed %d outside [%d,%d]", c.World.Seed, MinSeed, MaxSeed)
	}

	switch c.Noise.Backend {
	case BackendPerlin, BackendSimplex:
	default:
		return fmt.Errorf("noise.backend %q is not one of %q, %q", c.Noise.Backend, BackendPerlin, BackendSimplex)
	}
	if c.Noise.Octaves < 1 || c.Noise.Octaves > 10 {
		return fmt.Errorf("noise.octaves %d outside [1,10]", c.Noise.Octaves)
	}
	if c.Noise.Scale < 0.0001 || c.Noise.Scale > 10000 {
		return fmt.Errorf("noise.scale %g outside [0.0001,10000]", c.Noise.Scale)
	}

	if !(c.Terrain.WaterBelow > 0 && c.Terrain.WaterBelow <= c.Terrain.RockFrom && c.Terrain.RockFrom <= 1) {
		return fmt.Errorf("terrain thresholds must satisfy 0 < water_below (%g) <= rock_from (%g) <= 1",
			c.Terrain.WaterBelow, c.Terrain.RockFrom)
	}
	if c.Terrain.CoveringMin > c.Terrain.CoveringMax {
		return fmt.Errorf("terrain.covering_min %g above covering_max %g", c.Terrain.CoveringMin, c.Terrain.CoveringMax)
	}

	if c.Diffusion.UpdateIntervalMS < 0 {
		return fmt.Errorf("diffusion.update_interval_ms %d is negative", c.Diffusion.UpdateIntervalMS)
	}
	if c.Diffusion.TransferRate <= 0 || c.Diffusion.TransferRate > 0.5 {
		return fmt.Errorf("diffusion.transfer_rate %g outside (0,0.5]", c.Diffusion.TransferRate)
	}
	if c.Diffusion.Epsilon < 0 {
		return fmt.Errorf("diffusion.epsilon %g is negative", c.Diffusion.Epsilon)
	}
	switch c.Diffusion.Order {
	case OrderSnapshot, OrderCascade:
	default:
		return fmt.Errorf("diffusion.order %q is not one of %q, %q", c.Diffusion.Order, OrderSnapshot, OrderCascade)
	}

	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.UpdateInterval = time.Duration(c.Diffusion.UpdateIntervalMS) * time.Millisecond
	if c.Telemetry.StatsWindow < 1 {
		c.Telemetry.StatsWindow = 1
	}
	if c.Telemetry.PerfWindow < 1 {
		c.Telemetry.PerfWindow = 60
	}
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

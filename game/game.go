// Package game ties terrain generation, the monitor network and the diffusion
// engine into one world that external consumers query and tick.
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/thermoscape/components"
	"github.com/pthm-cable/thermoscape/config"
	"github.com/pthm-cable/thermoscape/layers"
	"github.com/pthm-cable/thermoscape/store"
	"github.com/pthm-cable/thermoscape/systems"
	"github.com/pthm-cable/thermoscape/telemetry"
)

// ErrInvalidParams is returned by Generate for out-of-range parameters.
var ErrInvalidParams = errors.New("invalid generation parameters")

// ErrNotGenerated is returned by operations that need a generated world.
var ErrNotGenerated = errors.New("world not generated")

// Params selects the world to generate.
type Params struct {
	Width  int   `json:"width"`
	Height int   `json:"height"`
	Seed   int64 `json:"seed"`
}

// Validate checks the parameters against the accepted ranges.
func (p Params) Validate() error {
	if p.Width < config.MinWorldSize || p.Width > config.MaxWorldSize {
		return fmt.Errorf("%w: width %d outside [%d,%d]", ErrInvalidParams, p.Width, config.MinWorldSize, config.MaxWorldSize)
	}
	if p.Height < config.MinWorldSize || p.Height > config.MaxWorldSize {
		return fmt.Errorf("%w: height %d outside [%d,%d]", ErrInvalidParams, p.Height, config.MinWorldSize, config.MaxWorldSize)
	}
	if p.Seed < config.MinSeed || p.Seed > config.MaxSeed {
		return fmt.Errorf("%w: seed %d outside [%d,%d]", ErrInvalidParams, p.Seed, int64(config.MinSeed), int64(config.MaxSeed))
	}
	return nil
}

// Options configures telemetry and output for a game.
type Options struct {
	LogStats      bool                        // Log window stats and bookmarks via slog
	StatsWindow   int                         // Ticks per stats window (0 = use config)
	OutputDir     string                      // CSV and config output (empty = disabled)
	SnapshotDir   string                      // Snapshot on bookmark (empty = disabled)
	StatsCallback func(telemetry.WindowStats) // Called on every flushed window
	Store         store.Repository            // Run history (nil = disabled)
}

// Game holds one generated world and its simulation state. It is not safe
// for concurrent use.
type Game struct {
	cfg    *config.Config
	opts   Options
	noise  *systems.NoiseField
	phases *systems.PhaseRegistry

	// Generated state, replaced wholesale by Generate
	params     Params
	generated  bool
	terrain    *systems.Terrain
	zoning     *systems.ZoneSet
	landmass   *systems.ZoneSet
	network    *systems.MonitorNetwork
	engine     *systems.DiffusionEngine
	layerStore *layers.Store

	// Scene entities, one per cell
	world       *ecs.World
	tileMap     *ecs.Map1[components.Tile]
	coveringMap *ecs.Map[components.Covering]
	sensorMap   *ecs.Map[components.Sensor]
	tileFilter  *ecs.Filter1[components.Tile]
	entities    []ecs.Entity

	// Run state
	tick    int32
	started time.Time
	runID   uint64

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	genPerf       *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	events        *telemetry.EventLog
	outputManager *telemetry.OutputManager
}

// New creates a game without a world. Call Generate before ticking.
func New(cfg *config.Config, opts Options) (*Game, error) {
	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	if opts.StatsWindow <= 0 {
		opts.StatsWindow = cfg.Telemetry.StatsWindow
	}

	return &Game{
		cfg:           cfg,
		opts:          opts,
		noise:         systems.NewNoiseField(cfg.Noise),
		phases:        systems.NewPhaseRegistry(),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		genPerf:       telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		bookmarks:     telemetry.NewBookmarkDetector(10),
		events:        telemetry.NewEventLog(256),
		outputManager: om,
	}, nil
}

// Close flushes and closes output files.
func (g *Game) Close() error {
	return g.outputManager.Close()
}

// Config returns the configuration the game was built with.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// Generated reports whether a world exists.
func (g *Game) Generated() bool {
	return g.generated
}

// Params returns the parameters of the current world.
func (g *Game) Params() Params {
	return g.params
}

// Tick returns the number of diffusion ticks since generation.
func (g *Game) Tick() int32 {
	return g.tick
}

// Terrain returns the current terrain, or nil before Generate.
func (g *Game) Terrain() *systems.Terrain {
	return g.terrain
}

// Engine returns the current diffusion engine, or nil before Generate.
func (g *Game) Engine() *systems.DiffusionEngine {
	return g.engine
}

// Network returns the current monitor network, or nil before Generate.
func (g *Game) Network() *systems.MonitorNetwork {
	return g.network
}

// Phases returns the pipeline phase registry.
func (g *Game) Phases() *systems.PhaseRegistry {
	return g.phases
}

// TileTypeAt returns the tile at p.
func (g *Game) TileTypeAt(p components.Point) (components.TileType, bool) {
	if !g.generated {
		return 0, false
	}
	return g.terrain.At(p)
}

// HasCovering reports whether the land cell at p carries grass.
func (g *Game) HasCovering(p components.Point) bool {
	if !g.generated || !g.terrain.In(p) {
		return false
	}
	return g.coveringMap.Has(g.entities[g.terrain.Index(p)])
}

// NodeAt returns the monitor at p. Rock cells have none.
func (g *Game) NodeAt(p components.Point) (*components.Monitor, bool) {
	if !g.generated {
		return nil, false
	}
	return g.network.NodeAt(p)
}

// ZonesOf returns the zones of the current world under mode.
func (g *Game) ZonesOf(mode systems.ZoneMode) []systems.Zone {
	zs := g.ZoneSet(mode)
	if zs == nil {
		return nil
	}
	return zs.Zones
}

// ZoneSet returns the full analysis for mode, or nil before Generate.
func (g *Game) ZoneSet(mode systems.ZoneMode) *systems.ZoneSet {
	if !g.generated {
		return nil
	}
	if mode == systems.ZoneModeLandmass {
		return g.landmass
	}
	return g.zoning
}

// Layers returns the effect layer store of the current world.
func (g *Game) Layers() *layers.Store {
	return g.layerStore
}

// Events returns recent telemetry events, oldest first.
func (g *Game) Events() []telemetry.Event {
	return g.events.Recent()
}

// PerfStats returns tick timing over the perf window.
func (g *Game) PerfStats() telemetry.PerfStats {
	return g.perfCollector.Stats()
}

// GenerationPerf returns phase timing of recent generations.
func (g *Game) GenerationPerf() telemetry.PerfStats {
	return g.genPerf.Stats()
}

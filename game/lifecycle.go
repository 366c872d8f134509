package game

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/thermoscape/components"
	"github.com/pthm-cable/thermoscape/layers"
	"github.com/pthm-cable/thermoscape/systems"
	"github.com/pthm-cable/thermoscape/telemetry"
)

// generation is everything Generate builds before it is swapped into the game.
type generation struct {
	terrain  *systems.Terrain
	zoning   *systems.ZoneSet
	landmass *systems.ZoneSet
	network  *systems.MonitorNetwork
	engine   *systems.DiffusionEngine
}

// Generate builds a new world for p, replacing any existing one. Invalid
// parameters leave the current world untouched.
func (g *Game) Generate(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}

	start := time.Now()
	gen := g.buildGeneration(p)
	g.install(p, gen)

	g.events.Record(telemetry.NewGenerateEvent(p.Seed))
	g.logGeneration(time.Since(start))
	g.recordRun()

	if err := g.outputManager.WriteZones(g.zoneRows()); err != nil {
		slog.Error("failed to write zones", "error", err)
	}
	return nil
}

// buildGeneration runs the generation pipeline with per-phase timing.
func (g *Game) buildGeneration(p Params) generation {
	cfg := g.cfg
	var gen generation

	g.genPerf.StartTick()

	g.genPerf.StartPhase(telemetry.PhaseNoise)
	heights := g.noise.Generate(p.Seed, p.Width, p.Height)
	density := g.noise.Generate(p.Seed+1, p.Width, p.Height)

	g.genPerf.StartPhase(telemetry.PhaseClassify)
	gen.terrain = systems.ClassifyField(heights, p.Width, p.Height, systems.ThresholdsFromConfig(cfg.Terrain))
	gen.terrain.ApplyCoverings(density, cfg.Terrain.CoveringMin, cfg.Terrain.CoveringMax)

	g.genPerf.StartPhase(telemetry.PhaseZones)
	gen.zoning = systems.AnalyzeZones(gen.terrain, systems.ZoneModeZoning)
	gen.landmass = systems.AnalyzeZones(gen.terrain, systems.ZoneModeLandmass)

	g.genPerf.StartPhase(telemetry.PhaseNetwork)
	gen.network = systems.BuildMonitorNetwork(gen.terrain)
	gen.network.Fill(cfg.Diffusion.InitialTemperature)
	gen.engine = systems.NewDiffusionEngine(gen.network, gen.zoning, cfg.Diffusion)

	g.genPerf.EndTick()
	return gen
}

// install swaps a finished generation into the game and rebuilds everything
// derived from it: the ECS scene, the layer store and run telemetry.
func (g *Game) install(p Params, gen generation) {
	g.params = p
	g.terrain = gen.terrain
	g.zoning = gen.zoning
	g.landmass = gen.landmass
	g.network = gen.network
	g.engine = gen.engine

	g.buildScene()
	g.buildLayers()

	g.tick = 0
	g.started = time.Now()
	g.collector = telemetry.NewCollector(g.opts.StatsWindow, g.engine.TotalHeat())
	g.bookmarks = telemetry.NewBookmarkDetector(10)
	g.generated = true
}

// buildScene creates one entity per cell. Every entity carries a Tile; covered
// land adds a Covering and every non-rock cell a Sensor linking it to its
// monitor.
func (g *Game) buildScene() {
	t := g.terrain
	g.world = ecs.NewWorld()
	g.tileMap = ecs.NewMap1[components.Tile](g.world)
	g.coveringMap = ecs.NewMap[components.Covering](g.world)
	g.sensorMap = ecs.NewMap[components.Sensor](g.world)
	g.tileFilter = ecs.NewFilter1[components.Tile](g.world)
	g.entities = make([]ecs.Entity, len(t.Tiles))

	for i, typ := range t.Tiles {
		tile := components.Tile{Location: t.PointAt(i), Type: typ}
		e := g.tileMap.NewEntity(&tile)
		g.entities[i] = e

		if t.Coverings[i] {
			g.coveringMap.Add(e, &components.Covering{Density: t.Density[i]})
		}
		if node, ok := g.network.Index(tile.Location); ok {
			g.sensorMap.Add(e, &components.Sensor{Node: node})
		}
	}
}

// entityAt returns the scene entity of cell p.
func (g *Game) entityAt(p components.Point) (ecs.Entity, bool) {
	if !g.terrain.In(p) {
		return ecs.Entity{}, false
	}
	return g.entities[g.terrain.Index(p)], true
}

// buildLayers publishes the temperature layer per zoning zone and the tile
// and covering layers over the whole grid.
func (g *Game) buildLayers() {
	g.layerStore = layers.NewStore(g.terrain.W, g.terrain.H)

	zonePoints := make([][]components.Point, len(g.zoning.Zones))
	for i, z := range g.zoning.Zones {
		zonePoints[i] = z.Points
	}
	layers.Create(g.layerStore, components.LayerTemperature, zonePoints,
		layers.SourceFunc[components.Monitor](g.network.NodeAt))

	layers.Create(g.layerStore, components.LayerTiles, nil,
		layers.SourceFunc[components.Tile](func(p components.Point) (*components.Tile, bool) {
			e, ok := g.entityAt(p)
			if !ok {
				return nil, false
			}
			return g.tileMap.Get(e), true
		}))

	layers.Create(g.layerStore, components.LayerCoverings, nil,
		layers.SourceFunc[components.Covering](func(p components.Point) (*components.Covering, bool) {
			e, ok := g.entityAt(p)
			if !ok || !g.coveringMap.Has(e) {
				return nil, false
			}
			return g.coveringMap.Get(e), true
		}))
}

// SensorCount returns the number of scene entities linked to a monitor.
func (g *Game) SensorCount() int {
	if !g.generated {
		return 0
	}
	n := 0
	query := g.tileFilter.Query()
	for query.Next() {
		if g.sensorMap.Has(query.Entity()) {
			n++
		}
	}
	return n
}

// zoneRows summarizes both zone analyses for zones.csv.
func (g *Game) zoneRows() []telemetry.ZoneRow {
	var rows []telemetry.ZoneRow
	for _, zs := range []*systems.ZoneSet{g.zoning, g.landmass} {
		for _, z := range zs.Zones {
			row := telemetry.ZoneRow{
				Mode:  zs.Mode.String(),
				ID:    z.ID,
				Cells: z.Len(),
			}
			if z.Len() > 0 {
				row.SeedX, row.SeedY = z.Points[0].X, z.Points[0].Y
			}
			for _, p := range z.Points {
				if _, ok := g.network.Index(p); ok {
					row.Monitors++
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// Snapshot captures the current world and monitor temperatures.
func (g *Game) Snapshot(bookmark *telemetry.Bookmark) (*telemetry.Snapshot, error) {
	if !g.generated {
		return nil, ErrNotGenerated
	}

	s := &telemetry.Snapshot{
		Version:      telemetry.SnapshotVersion,
		Seed:         g.params.Seed,
		Width:        g.params.Width,
		Height:       g.params.Height,
		NoiseBackend: g.noise.Backend,
		Order:        g.engine.Order,
		Tick:         g.tick,
		Monitors:     make([]telemetry.MonitorState, 0, g.network.Len()),
		Bookmark:     bookmark,
	}
	for i := range g.network.Nodes {
		m := &g.network.Nodes[i]
		s.Monitors = append(s.Monitors, telemetry.MonitorState{
			X:           m.Location.X,
			Y:           m.Location.Y,
			Temperature: m.Temperature,
		})
	}
	return s, nil
}

// Restore regenerates the snapshot's world and reapplies its temperatures.
// Terrain is rebuilt from the seed, so the snapshot must come from the same
// noise backend.
func (g *Game) Restore(s *telemetry.Snapshot) error {
	if s.NoiseBackend != g.noise.Backend {
		return fmt.Errorf("snapshot uses noise backend %q, game uses %q", s.NoiseBackend, g.noise.Backend)
	}
	p := Params{Width: s.Width, Height: s.Height, Seed: s.Seed}
	if err := p.Validate(); err != nil {
		return err
	}

	gen := g.buildGeneration(p)
	for _, ms := range s.Monitors {
		m, ok := gen.network.NodeAt(components.Pt(ms.X, ms.Y))
		if !ok {
			return fmt.Errorf("snapshot monitor at (%d,%d) has no cell in the regenerated world", ms.X, ms.Y)
		}
		m.Set(ms.Temperature)
	}

	g.install(p, gen)
	g.tick = s.Tick
	g.recordRun()
	g.events.Record(telemetry.NewRestoreEvent(s.Tick, s.Seed))
	slog.Info("world restored", "seed", s.Seed, "tick", s.Tick, "monitors", len(s.Monitors))
	return nil
}

// saveSnapshot writes a snapshot into the snapshot directory and the output
// directory, whichever are enabled.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	snapshot, err := g.Snapshot(bookmark)
	if err != nil {
		slog.Error("failed to create snapshot", "error", err)
		return
	}

	if g.opts.SnapshotDir != "" {
		path, err := telemetry.SaveSnapshot(snapshot, g.opts.SnapshotDir)
		if err != nil {
			slog.Error("failed to save snapshot", "error", err)
		} else {
			slog.Info("snapshot saved", "path", path, "tick", g.tick)
		}
	}
	if path, err := g.outputManager.WriteSnapshot(snapshot); err != nil {
		slog.Error("failed to write snapshot", "error", err)
	} else if path != "" {
		slog.Debug("snapshot written", "path", path, "tick", g.tick)
	}
}

package game

import (
	"context"
	"log/slog"

	"github.com/pthm-cable/thermoscape/store"
	"github.com/pthm-cable/thermoscape/telemetry"
)

// RunRecord summarizes the current world for the run store.
func (g *Game) RunRecord() store.RunRecord {
	if !g.generated {
		return store.RunRecord{}
	}
	counts := g.terrain.Counts()
	return store.RunRecord{
		Seed:         g.params.Seed,
		Width:        g.params.Width,
		Height:       g.params.Height,
		NoiseBackend: g.noise.Backend,
		Order:        g.engine.Order,
		Zones:        g.zoning.Count(),
		Landmasses:   g.landmass.Count(),
		Water:        counts.Water,
		Land:         counts.Land,
		Rock:         counts.Rock,
		Covered:      counts.Covered,
		Monitors:     g.network.Len(),
	}
}

// RunID returns the store id of the current world, or 0 when not recorded.
func (g *Game) RunID() uint64 {
	return g.runID
}

// recordRun saves the freshly generated world to the run store.
func (g *Game) recordRun() {
	g.runID = 0
	if g.opts.Store == nil {
		return
	}
	run := g.RunRecord()
	if err := g.opts.Store.CreateRun(context.Background(), &run); err != nil {
		slog.Error("failed to record run", "error", err)
		return
	}
	g.runID = run.ID
}

// recordWindow appends a flushed window to the current run.
func (g *Game) recordWindow(stats telemetry.WindowStats) {
	if g.opts.Store == nil || g.runID == 0 {
		return
	}
	ticks := []store.TickRecord{store.TickFromStats(g.runID, stats)}
	if err := g.opts.Store.AppendTicks(context.Background(), ticks); err != nil {
		slog.Error("failed to record ticks", "run", g.runID, "error", err)
	}
}

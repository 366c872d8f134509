package game

import (
	"log/slog"
	"time"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	elapsed := time.Since(g.started).Seconds()
	stats := g.collector.Flush(g.tick, elapsed, g.network.Temperatures(), g.network.AwakeCount())
	perfStats := g.perfCollector.Stats()

	g.recordWindow(stats)
	if g.opts.StatsCallback != nil {
		g.opts.StatsCallback(stats)
	}

	if g.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTicks(stats); err != nil {
		slog.Error("failed to write ticks", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range g.bookmarks.Check(stats) {
		if g.opts.LogStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}

		// Save snapshot on bookmark
		if g.opts.SnapshotDir != "" || g.outputManager != nil {
			g.saveSnapshot(&bm)
		}
	}
}


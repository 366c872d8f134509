package game

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pthm-cable/thermoscape/systems"
	"github.com/pthm-cable/thermoscape/telemetry"
)

// logWriter is the destination for report output.
var logWriter io.Writer

// SetLogWriter sets the report output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted report line.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

// logGeneration records what the last Generate built and how long each phase took.
func (g *Game) logGeneration(elapsed time.Duration) {
	slog.Info("world generated",
		"seed", g.params.Seed,
		"width", g.params.Width,
		"height", g.params.Height,
		"tiles", g.terrain.Counts(),
		"elapsed", elapsed,
	)
	for _, zs := range []*systems.ZoneSet{g.zoning, g.landmass} {
		largest, _ := zs.Largest()
		slog.Info("zones analyzed",
			"mode", zs.Mode.String(),
			"count", zs.Count(),
			"covered", zs.Covered(),
			"largest", largest.Len(),
		)
	}
	slog.Info("network built",
		"monitors", g.network.Len(),
		"sensors", g.SensorCount(),
		"sweep_groups", g.engine.Zones(),
	)
	slog.Debug("generation perf", "perf", g.genPerf.Stats())
}

// LogWorldState writes a human-readable summary of the current world.
func (g *Game) LogWorldState() {
	if !g.generated {
		Logf("=== No world generated ===")
		return
	}

	counts := g.terrain.Counts()
	water, land, rock := counts.Ratios()
	ts := telemetry.ComputeTemperatureStats(g.network.Temperatures())

	Logf("=== World seed %d (%dx%d) @ tick %d ===", g.params.Seed, g.params.Width, g.params.Height, g.tick)
	Logf("Tiles:     water %5d (%4.1f%%)  land %5d (%4.1f%%)  rock %5d (%4.1f%%)  covered %d",
		counts.Water, water*100, counts.Land, land*100, counts.Rock, rock*100, counts.Covered)
	Logf("Zones:     zoning %d  landmass %d", g.zoning.Count(), g.landmass.Count())
	Logf("Monitors:  %d  awake %d", g.network.Len(), g.network.AwakeCount())
	Logf("Heat:      total %.3f  mean %.3f  std %.3f  min %.3f  max %.3f",
		ts.Total, ts.Mean, ts.Std, ts.Min, ts.Max)

	if g.perfCollector.Samples() > 0 {
		perf := g.perfCollector.Stats()
		Logf("Tick time: avg %s  max %s", perf.AvgTickDuration.Round(time.Microsecond), perf.MaxTickDuration.Round(time.Microsecond))
		for _, phase := range telemetry.Phases {
			avg, ok := perf.PhaseAvg[phase]
			if !ok {
				continue
			}
			Logf("  %-16s %10s  %5.1f%%", g.phases.GetName(phase), avg.Round(time.Microsecond), perf.PhasePct[phase])
		}
	}
	Logf("")
}

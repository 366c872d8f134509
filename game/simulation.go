package game

import (
	"fmt"
	"time"

	"github.com/pthm-cable/thermoscape/components"
	"github.com/pthm-cable/thermoscape/telemetry"
)

// MaybeTick runs one diffusion tick if the update interval has elapsed since
// the previous one. The first call after generation always ticks. Returns
// whether a tick ran.
func (g *Game) MaybeTick(now time.Time) bool {
	if !g.generated || !g.engine.IsReady(now) {
		return false
	}

	g.perfCollector.StartTick()
	g.perfCollector.StartPhase(telemetry.PhaseDiffusion)
	g.engine.MaybeTick(now)
	g.afterTick()
	return true
}

// Step runs one diffusion tick immediately, ignoring the update interval.
func (g *Game) Step() error {
	if !g.generated {
		return ErrNotGenerated
	}

	g.perfCollector.StartTick()
	g.perfCollector.StartPhase(telemetry.PhaseDiffusion)
	g.engine.Tick()
	g.afterTick()
	return nil
}

// Run steps n ticks back to back and returns the tick count afterwards.
func (g *Game) Run(n int) (int32, error) {
	for i := 0; i < n; i++ {
		if err := g.Step(); err != nil {
			return g.tick, err
		}
	}
	return g.tick, nil
}

// afterTick finishes the perf sample started by the caller and publishes the
// tick to telemetry. Layers hold live monitor pointers, so publishing needs
// no copy.
func (g *Game) afterTick() {
	g.perfCollector.StartPhase(telemetry.PhasePublish)
	g.tick++
	g.events.Record(telemetry.NewTickEvent(g.tick))
	g.flushTelemetry()
	g.perfCollector.EndTick()
}

// Inject adds amount to the monitor at p and wakes it. Heat injected this way
// is accounted for by the drift check.
func (g *Game) Inject(p components.Point, amount float64) error {
	if !g.generated {
		return ErrNotGenerated
	}
	if err := g.engine.Inject(p, amount); err != nil {
		return fmt.Errorf("inject at %v: %w", p, err)
	}
	g.collector.RecordInjection(amount)
	g.events.Record(telemetry.NewInjectEvent(g.tick, p, amount))
	return nil
}

package telemetry

// Collector accumulates events within windows of ticks and produces WindowStats.
type Collector struct {
	windowDurationTicks int32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	injections int
	injected   float64

	// Run-wide heat accounting
	baseline      float64
	injectedAccum float64
}

// NewCollector creates a new stats collector.
// windowTicks: how many ticks each stats window spans.
// baseline: total heat at the start of the run.
func NewCollector(windowTicks int, baseline float64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowDurationTicks: int32(windowTicks),
		baseline:            baseline,
	}
}

// RecordInjection records heat added from outside the simulation.
func (c *Collector) RecordInjection(amount float64) {
	c.injections++
	c.injected += amount
	c.injectedAccum += amount
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller provides the current tick, wall-clock seconds since the run
// started, the committed temperature of every monitor and the awake count.
func (c *Collector) Flush(currentTick int32, elapsedSec float64, temperatures []float64, awake int) WindowStats {
	ts := ComputeTemperatureStats(temperatures)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		ElapsedSec:      elapsedSec,

		Monitors: len(temperatures),
		Awake:    awake,

		Injections: c.injections,
		Injected:   c.injected,

		TempMean: ts.Mean,
		TempStd:  ts.Std,
		TempMin:  ts.Min,
		TempMax:  ts.Max,
		TempP10:  ts.P10,
		TempP50:  ts.P50,
		TempP90:  ts.P90,

		TotalHeat:     ts.Total,
		InjectedAccum: c.injectedAccum,
		Drift:         ts.Total - (c.baseline + c.injectedAccum),
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.injections = 0
	c.injected = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}

package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated temperature statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	ElapsedSec      float64 `csv:"elapsed"`

	// Network state at window end
	Monitors int `csv:"monitors"`
	Awake    int `csv:"awake"`

	// Events during window
	Injections int     `csv:"injections"`
	Injected   float64 `csv:"injected"`

	// Temperature distribution (sampled at window end)
	TempMean float64 `csv:"temp_mean"`
	TempStd  float64 `csv:"temp_std"`
	TempMin  float64 `csv:"temp_min"`
	TempMax  float64 `csv:"temp_max"`
	TempP10  float64 `csv:"temp_p10"`
	TempP50  float64 `csv:"temp_p50"`
	TempP90  float64 `csv:"temp_p90"`

	// Heat pools (for conservation validation)
	TotalHeat     float64 `csv:"total_heat"`     // Sum of committed temperatures
	InjectedAccum float64 `csv:"injected_accum"` // Cumulative heat added from outside
	Drift         float64 `csv:"drift"`          // TotalHeat minus expected total
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation between closest ranks
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// TemperatureStats summarizes one sample of node temperatures.
type TemperatureStats struct {
	Total         float64
	Mean, Std     float64
	Min, Max      float64
	P10, P50, P90 float64
}

// ComputeTemperatureStats calculates totals, moments and percentiles.
func ComputeTemperatureStats(values []float64) TemperatureStats {
	if len(values) == 0 {
		return TemperatureStats{}
	}

	var s TemperatureStats
	s.Total = floats.Sum(values)
	s.Mean, s.Std = stat.PopMeanStdDev(values, nil)
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s.P10 = Percentile(sorted, 0.10)
	s.P50 = Percentile(sorted, 0.50)
	s.P90 = Percentile(sorted, 0.90)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("elapsed", s.ElapsedSec),
		slog.Int("monitors", s.Monitors),
		slog.Int("awake", s.Awake),
		slog.Int("injections", s.Injections),
		slog.Float64("injected", s.Injected),
		slog.Float64("temp_mean", s.TempMean),
		slog.Float64("temp_std", s.TempStd),
		slog.Float64("temp_min", s.TempMin),
		slog.Float64("temp_max", s.TempMax),
		slog.Float64("temp_p50", s.TempP50),
		slog.Float64("total_heat", s.TotalHeat),
		slog.Float64("drift", s.Drift),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"elapsed", s.ElapsedSec,
		"monitors", s.Monitors,
		"awake", s.Awake,
		"injections", s.Injections,
		"injected", s.Injected,
		"temp_mean", s.TempMean,
		"temp_std", s.TempStd,
		"temp_min", s.TempMin,
		"temp_max", s.TempMax,
		"temp_p10", s.TempP10,
		"temp_p50", s.TempP50,
		"temp_p90", s.TempP90,
		"total_heat", s.TotalHeat,
		"injected_accum", s.InjectedAccum,
		"drift", s.Drift,
	)
}

package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeTemperatureStats(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	s := ComputeTemperatureStats(values)

	// Mean should be 0.55
	if math.Abs(s.Mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", s.Mean)
	}
	if math.Abs(s.Total-5.5) > 0.001 {
		t.Errorf("total = %v, want 5.5", s.Total)
	}
	if s.Min != 0.1 || s.Max != 1.0 {
		t.Errorf("min/max = %v/%v, want 0.1/1.0", s.Min, s.Max)
	}

	// Population standard deviation of 0.1..1.0
	if math.Abs(s.Std-0.2872) > 0.001 {
		t.Errorf("std = %v, want ~0.2872", s.Std)
	}

	// P10 should be around 0.19
	if math.Abs(s.P10-0.19) > 0.01 {
		t.Errorf("p10 = %v, want ~0.19", s.P10)
	}

	// P90 should be around 0.91
	if math.Abs(s.P90-0.91) > 0.01 {
		t.Errorf("p90 = %v, want ~0.91", s.P90)
	}
}

func TestComputeTemperatureStatsEmpty(t *testing.T) {
	if s := ComputeTemperatureStats(nil); s != (TemperatureStats{}) {
		t.Errorf("empty slice should return zero stats, got %+v", s)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(10, 100)
	if c.ShouldFlush(5) {
		t.Error("should not flush before the window ends")
	}
	if !c.ShouldFlush(10) {
		t.Error("should flush once the window ends")
	}

	c.RecordInjection(50)
	stats := c.Flush(10, 2.0, []float64{60, 40, 50}, 2)

	if stats.Injections != 1 || stats.Injected != 50 {
		t.Errorf("unexpected injection counters: %+v", stats)
	}
	if stats.TotalHeat != 150 || stats.Drift != 0 {
		t.Errorf("expected total 150 with no drift, got %v / %v", stats.TotalHeat, stats.Drift)
	}
	if stats.Monitors != 3 || stats.Awake != 2 {
		t.Errorf("unexpected network counts: %+v", stats)
	}

	// Counters reset, cumulative injection persists
	next := c.Flush(20, 4.0, []float64{60, 40, 50}, 0)
	if next.Injections != 0 || next.InjectedAccum != 50 {
		t.Errorf("expected reset window with accumulated 50, got %+v", next)
	}
	if next.WindowStartTick != 10 {
		t.Errorf("expected window start 10, got %d", next.WindowStartTick)
	}
}

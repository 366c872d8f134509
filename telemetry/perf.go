package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Phase names for generation and the simulation tick.
const (
	PhaseNoise     = "generate_noise"
	PhaseClassify  = "classify"
	PhaseZones     = "zones"
	PhaseNetwork   = "network"
	PhaseDiffusion = "diffusion"
	PhasePublish   = "publish"
)

// Phases lists every phase in run order.
var Phases = []string{
	PhaseNoise, PhaseClassify, PhaseZones, PhaseNetwork,
	PhaseDiffusion, PhasePublish,
}

// perfSample is the timing of one tick (or one generation pass).
type perfSample struct {
	total  time.Duration
	phases map[string]time.Duration
}

// PerfCollector keeps a ring of the most recent timed passes. A pass is
// bracketed by StartTick and EndTick; StartPhase closes the running phase and
// opens the next one.
type PerfCollector struct {
	ring  []perfSample
	next  int
	count int

	open      perfSample
	openStart time.Time
	phase     string
	phaseAt   time.Time
}

// NewPerfCollector creates a collector that averages over windowSize passes.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{ring: make([]perfSample, windowSize)}
}

// StartTick begins timing a new pass.
func (p *PerfCollector) StartTick() {
	p.openStart = time.Now()
	p.open = perfSample{phases: make(map[string]time.Duration, len(Phases))}
	p.phase = ""
}

// StartPhase charges elapsed time to the running phase and starts phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.phase = phase
	p.phaseAt = now
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase != "" {
		p.open.phases[p.phase] += now.Sub(p.phaseAt)
	}
}

// EndTick closes the pass and stores it, evicting the oldest when full.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.phase = ""
	p.open.total = now.Sub(p.openStart)

	p.ring[p.next] = p.open
	p.next = (p.next + 1) % len(p.ring)
	if p.count < len(p.ring) {
		p.count++
	}
}

// Samples returns the number of passes in the window.
func (p *PerfCollector) Samples() int {
	return p.count
}

// PerfStats holds aggregated timing over the window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration

	PhaseAvg map[string]time.Duration // mean time per pass
	PhasePct map[string]float64       // share of the mean pass, 0..100

	TicksPerSecond float64
}

// Stats aggregates the current window. An empty window yields zero
// durations and empty (non-nil) phase maps.
func (p *PerfCollector) Stats() PerfStats {
	out := PerfStats{
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}
	if p.count == 0 {
		return out
	}

	totals := make([]float64, p.count)
	perPhase := make(map[string][]float64)
	for i := 0; i < p.count; i++ {
		s := p.ring[i]
		totals[i] = float64(s.total)
		for name, d := range s.phases {
			perPhase[name] = append(perPhase[name], float64(d))
		}
	}

	mean := stat.Mean(totals, nil)
	out.AvgTickDuration = time.Duration(mean)
	out.MinTickDuration = time.Duration(floats.Min(totals))
	out.MaxTickDuration = time.Duration(floats.Max(totals))
	sort.Float64s(totals)
	out.P95TickDuration = time.Duration(stat.Quantile(0.95, stat.Empirical, totals, nil))
	if mean > 0 {
		out.TicksPerSecond = float64(time.Second) / mean
	}

	n := float64(p.count)
	for name, ds := range perPhase {
		// Passes that skipped a phase count as zero time for it
		avg := floats.Sum(ds) / n
		out.PhaseAvg[name] = time.Duration(avg)
		if mean > 0 {
			out.PhasePct[name] = avg / mean * 100
		}
	}
	return out
}

// LogStats logs the window at info level, skipping negligible phases.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"p95_tick_us", s.P95TickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	for _, phase := range Phases {
		if pct := s.PhasePct[phase]; pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	P95TickUS    int64   `csv:"p95_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	NoisePct     float64 `csv:"generate_noise_pct"`
	ClassifyPct  float64 `csv:"classify_pct"`
	ZonesPct     float64 `csv:"zones_pct"`
	NetworkPct   float64 `csv:"network_pct"`
	DiffusionPct float64 `csv:"diffusion_pct"`
	PublishPct   float64 `csv:"publish_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		P95TickUS:    s.P95TickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		NoisePct:     s.PhasePct[PhaseNoise],
		ClassifyPct:  s.PhasePct[PhaseClassify],
		ZonesPct:     s.PhasePct[PhaseZones],
		NetworkPct:   s.PhasePct[PhaseNetwork],
		DiffusionPct: s.PhasePct[PhaseDiffusion],
		PublishPct:   s.PhasePct[PhasePublish],
	}
}

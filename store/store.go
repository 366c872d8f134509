// Package store persists run history: one RunRecord per generated world and
// one TickRecord per flushed stats window.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/pthm-cable/thermoscape/telemetry"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// RunRecord describes one generated world.
type RunRecord struct {
	ID           uint64    `json:"id"`
	Seed         int64     `json:"seed"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	NoiseBackend string    `json:"noise_backend"`
	Order        string    `json:"order"`
	Zones        int       `json:"zones"`
	Landmasses   int       `json:"landmasses"`
	Water        int       `json:"water"`
	Land         int       `json:"land"`
	Rock         int       `json:"rock"`
	Covered      int       `json:"covered"`
	Monitors     int       `json:"monitors"`
	CreatedAt    time.Time `json:"created_at"`
}

// TickRecord is one stats window of a run.
type TickRecord struct {
	RunID     uint64  `json:"run_id"`
	Tick      int32   `json:"tick"`
	TotalHeat float64 `json:"total_heat"`
	Mean      float64 `json:"mean"`
	Std       float64 `json:"std"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Awake     int     `json:"awake"`
	Drift     float64 `json:"drift"`
}

// TickFromStats converts a flushed window into a record of run.
func TickFromStats(runID uint64, s telemetry.WindowStats) TickRecord {
	return TickRecord{
		RunID:     runID,
		Tick:      s.WindowEndTick,
		TotalHeat: s.TotalHeat,
		Mean:      s.TempMean,
		Std:       s.TempStd,
		Min:       s.TempMin,
		Max:       s.TempMax,
		Awake:     s.Awake,
		Drift:     s.Drift,
	}
}

// Repository stores runs and their tick history.
type Repository interface {
	// CreateRun saves run and assigns its ID.
	CreateRun(ctx context.Context, run *RunRecord) error
	GetRun(ctx context.Context, id uint64) (RunRecord, error)
	// ListRuns returns the most recent runs first. limit <= 0 returns all.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
	AppendTicks(ctx context.Context, ticks []TickRecord) error
	// ListTicks returns a run's ticks in tick order.
	ListTicks(ctx context.Context, runID uint64) ([]TickRecord, error)
}

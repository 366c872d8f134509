package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// runRow is the runs table.
type runRow struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Seed         int64  `gorm:"not null"`
	Width        int    `gorm:"not null"`
	Height       int    `gorm:"not null"`
	NoiseBackend string `gorm:"size:16;not null"`
	DiffOrder    string `gorm:"size:16;not null"`
	Zones        int
	Landmasses   int
	Water        int
	Land         int
	Rock         int
	Covered      int
	Monitors     int
	CreatedAt    time.Time `gorm:"not null;index"`
}

func (runRow) TableName() string { return "runs" }

// tickRow is the run_ticks table.
type tickRow struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	RunID     uint64 `gorm:"not null;index:idx_run_tick"`
	Tick      int32  `gorm:"not null;index:idx_run_tick"`
	TotalHeat float64
	Mean      float64
	Std       float64
	Min       float64
	Max       float64
	Awake     int
	Drift     float64
}

func (tickRow) TableName() string { return "run_ticks" }

// OpenPostgres connects to Postgres with the given DSN.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// Gorm is a Repository backed by a gorm database.
type Gorm struct {
	db *gorm.DB
}

// NewGorm wraps db. Call AutoMigrate before first use.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// AutoMigrate creates or updates the runs and run_ticks tables.
func (r *Gorm) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&runRow{}, &tickRow{}); err != nil {
		return fmt.Errorf("migrate run store: %w", err)
	}
	return nil
}

func (r *Gorm) CreateRun(ctx context.Context, run *RunRecord) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	row := runToRow(*run)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	run.ID = row.ID
	return nil
}

func (r *Gorm) GetRun(ctx context.Context, id uint64) (RunRecord, error) {
	var row runRow
	err := r.db.WithContext(ctx).First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RunRecord{}, fmt.Errorf("run %d: %w", id, ErrNotFound)
		}
		return RunRecord{}, fmt.Errorf("get run %d: %w", id, err)
	}
	return rowToRun(row), nil
}

func (r *Gorm) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows := []runRow{}
	query := r.db.WithContext(ctx).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "id"}, Desc: true}},
		})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	out := make([]RunRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToRun(row))
	}
	return out, nil
}

func (r *Gorm) AppendTicks(ctx context.Context, ticks []TickRecord) error {
	if len(ticks) == 0 {
		return nil
	}
	rows := make([]tickRow, 0, len(ticks))
	for _, t := range ticks {
		rows = append(rows, tickRow{
			RunID:     t.RunID,
			Tick:      t.Tick,
			TotalHeat: t.TotalHeat,
			Mean:      t.Mean,
			Std:       t.Std,
			Min:       t.Min,
			Max:       t.Max,
			Awake:     t.Awake,
			Drift:     t.Drift,
		})
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("append ticks: %w", err)
	}
	return nil
}

func (r *Gorm) ListTicks(ctx context.Context, runID uint64) ([]TickRecord, error) {
	if _, err := r.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows := []tickRow{}
	err := r.db.WithContext(ctx).
		Where(&tickRow{RunID: runID}).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "tick"}}},
		}).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list ticks of run %d: %w", runID, err)
	}

	out := make([]TickRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, TickRecord{
			RunID:     row.RunID,
			Tick:      row.Tick,
			TotalHeat: row.TotalHeat,
			Mean:      row.Mean,
			Std:       row.Std,
			Min:       row.Min,
			Max:       row.Max,
			Awake:     row.Awake,
			Drift:     row.Drift,
		})
	}
	return out, nil
}

func runToRow(r RunRecord) runRow {
	return runRow{
		ID:           r.ID,
		Seed:         r.Seed,
		Width:        r.Width,
		Height:       r.Height,
		NoiseBackend: r.NoiseBackend,
		DiffOrder:    r.Order,
		Zones:        r.Zones,
		Landmasses:   r.Landmasses,
		Water:        r.Water,
		Land:         r.Land,
		Rock:         r.Rock,
		Covered:      r.Covered,
		Monitors:     r.Monitors,
		CreatedAt:    r.CreatedAt,
	}
}

func rowToRun(row runRow) RunRecord {
	return RunRecord{
		ID:           row.ID,
		Seed:         row.Seed,
		Width:        row.Width,
		Height:       row.Height,
		NoiseBackend: row.NoiseBackend,
		Order:        row.DiffOrder,
		Zones:        row.Zones,
		Landmasses:   row.Landmasses,
		Water:        row.Water,
		Land:         row.Land,
		Rock:         row.Rock,
		Covered:      row.Covered,
		Monitors:     row.Monitors,
		CreatedAt:    row.CreatedAt,
	}
}

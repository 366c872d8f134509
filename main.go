package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pthm-cable/thermoscape/components"
	"github.com/pthm-cable/thermoscape/config"
	"github.com/pthm-cable/thermoscape/game"
	"github.com/pthm-cable/thermoscape/store"
	"github.com/pthm-cable/thermoscape/telemetry"
)

// injection is one -inject entry.
type injection struct {
	At     components.Point
	Amount float64
}

// parseInjections parses "x,y,amount" entries separated by ';'.
func parseInjections(s string) ([]injection, error) {
	var out []injection
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ",")
		if len(parts) != 3 {
			return nil, fmt.Errorf("injection %q: want x,y,amount", entry)
		}
		x, errX := strconv.Atoi(strings.TrimSpace(parts[0]))
		y, errY := strconv.Atoi(strings.TrimSpace(parts[1]))
		amount, errA := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if errX != nil || errY != nil || errA != nil {
			return nil, fmt.Errorf("injection %q: want x,y,amount", entry)
		}
		out = append(out, injection{At: components.Pt(x, y), Amount: amount})
	}
	return out, nil
}

// openStore connects the run store, or returns nil when dsn is empty.
func openStore(ctx context.Context, dsn string) (store.Repository, error) {
	if dsn == "" {
		return nil, nil
	}
	db, err := store.OpenPostgres(dsn)
	if err != nil {
		return nil, err
	}
	repo := store.NewGorm(db)
	if err := repo.AutoMigrate(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "World seed (0 = use config)")
	width := flag.Int("width", 0, "World width (0 = use config)")
	height := flag.Int("height", 0, "World height (0 = use config)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = run until every monitor sleeps)")
	realtime := flag.Bool("realtime", false, "Pace ticks by the configured update interval")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in ticks (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	restore := flag.String("restore", "", "Snapshot file to resume from")
	inject := flag.String("inject", "", "Heat to inject before the first tick: x,y,amount[;x,y,amount...]")
	dbDSN := flag.String("db-dsn", "", "Postgres DSN for run history (empty = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	game.SetLogWriter(os.Stderr)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	injections, err := parseInjections(*inject)
	if err != nil {
		slog.Error("invalid -inject", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Store.DSN
	if *dbDSN != "" {
		dsn = *dbDSN
	}
	ctx := context.Background()
	runs, err := openStore(ctx, dsn)
	if err != nil {
		slog.Error("failed to open run store", "error", err)
		os.Exit(1)
	}

	g, err := game.New(cfg, game.Options{
		LogStats:    *logStats,
		StatsWindow: *statsWindow,
		OutputDir:   *outputDir,
		SnapshotDir: *snapshotDir,
		Store:       runs,
	})
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}
	defer g.Close()

	if *restore != "" {
		snapshot, err := telemetry.LoadSnapshot(*restore)
		if err != nil {
			slog.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		}
		if err := g.Restore(snapshot); err != nil {
			slog.Error("failed to restore snapshot", "error", err)
			os.Exit(1)
		}
	} else {
		p := game.Params{Width: cfg.World.Width, Height: cfg.World.Height, Seed: cfg.World.Seed}
		if *width > 0 {
			p.Width = *width
		}
		if *height > 0 {
			p.Height = *height
		}
		if *seed != 0 {
			p.Seed = *seed
		}
		if err := g.Generate(p); err != nil {
			slog.Error("failed to generate world", "error", err)
			os.Exit(1)
		}
	}

	for _, inj := range injections {
		if err := g.Inject(inj.At, inj.Amount); err != nil {
			slog.Error("failed to inject heat", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("starting headless simulation",
		"seed", g.Params().Seed,
		"width", g.Params().Width,
		"height", g.Params().Height,
		"max_ticks", *maxTicks,
		"realtime", *realtime,
		"run_id", g.RunID(),
	)

	for {
		if *realtime {
			if !g.MaybeTick(time.Now()) {
				time.Sleep(time.Millisecond)
				continue
			}
		} else if err := g.Step(); err != nil {
			slog.Error("tick failed", "error", err)
			os.Exit(1)
		}

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			break
		}
		if *maxTicks == 0 && g.Network().AwakeCount() == 0 {
			slog.Info("network settled", "tick", g.Tick())
			break
		}
	}

	g.LogWorldState()
}

// Package main serves a generated world over HTTP and advances its heat
// diffusion in the background.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"

	"github.com/pthm-cable/thermoscape/config"
	"github.com/pthm-cable/thermoscape/game"
	httpapi "github.com/pthm-cable/thermoscape/server"
	"github.com/pthm-cable/thermoscape/store"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	addr := flag.String("addr", "", "Listen address (empty = use config)")
	dsn := flag.String("db-dsn", os.Getenv("THERMOSCAPE_DB_DSN"), "Postgres DSN for run history (empty = use config, then memory)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := config.Cfg()

	if *addr == "" {
		*addr = cfg.Server.Addr
	}
	if *dsn == "" {
		*dsn = cfg.Store.DSN
	}

	runs := mustBuildStore(*dsn)

	g, err := game.New(cfg, game.Options{Store: runs})
	if err != nil {
		log.Fatalf("create game: %v", err)
	}
	defer g.Close()

	if err := g.Generate(game.Params{Width: cfg.World.Width, Height: cfg.World.Height, Seed: cfg.World.Seed}); err != nil {
		log.Fatalf("generate world: %v", err)
	}

	h := httpapi.NewHandler(g, runs)

	period := cfg.Derived.UpdateInterval
	if period <= 0 {
		period = 10 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.RunTicker(ctx, period)

	s := server.Default(server.WithHostPorts(*addr))
	h.RegisterRoutes(s)

	slog.Info("thermoscape server listening", "addr", *addr, "seed", g.Params().Seed, "run_id", g.RunID())
	s.Spin()
}

// mustBuildStore opens Postgres when dsn is set and falls back to memory.
func mustBuildStore(dsn string) store.Repository {
	if dsn == "" {
		return store.NewMemory()
	}
	db, err := store.OpenPostgres(dsn)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	repo := store.NewGorm(db)
	if err := repo.AutoMigrate(context.Background()); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	return repo
}

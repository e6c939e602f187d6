// Command skyclock runs the seasonal sky clock and serves it over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/skyclock/internal/api"
	"github.com/talgya/skyclock/internal/config"
	"github.com/talgya/skyclock/internal/engine"
	"github.com/talgya/skyclock/internal/logging"
	"github.com/talgya/skyclock/internal/persistence"
)

func main() {
	config.ParseFlags()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if config.WriteConfig() {
		path, err := config.Write(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "write config:", err)
			os.Exit(1)
		}
		fmt.Println("Config written to", path)
		return
	}

	logger, logCloser := logging.Setup(cfg.Logging.Level, cfg.Logging.LogFile)
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.Context(ctx, logger)

	sky := cfg.Sky()
	slog.Info("skyclock starting",
		"world", cfg.World.Name,
		"seasons", sky.SeasonsEnabled,
		"seasonal_daytime", sky.SeasonalDaytime,
		"min_daytime", sky.MinDaytime,
		"cycle_ticks", humanize.Comma(sky.Calendar.CycleDuration()),
	)

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.World.DBPath), 0755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}
	db, err := persistence.Open(cfg.World.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.World.DBPath)

	// ── Load or Create World ──────────────────────────────────────────
	world, err := loadWorld(ctx, cfg, db)
	if err != nil {
		slog.Error("failed to load world", "error", err)
		os.Exit(1)
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(world.WorldTime())
	eng.Interval = cfg.World.TickInterval
	eng.SetSpeed(cfg.World.Speed)
	eng.AutosaveEvery = cfg.World.AutosaveDays * engine.TicksPerDay
	eng.OnTick = world.Tick
	eng.OnDay = world.Day
	eng.OnAutosave = func(tick int64) {
		if err := db.SaveWorldState(world); err != nil {
			slog.Error("autosave failed", "tick", tick, "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.AdminKey == "" {
		slog.Warn("SKYCLOCK_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		World:    world,
		Eng:      eng,
		DB:       db,
		Port:     cfg.API.Port,
		AdminKey: cfg.API.AdminKey,
		RelayKey: cfg.API.RelayKey,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	fmt.Printf("\n%s: %s, %s\n", world.Name, engine.SimTime(world.WorldTime()), world.Calendar())
	fmt.Printf("API: http://localhost:%d/api/v1/sky\n", cfg.API.Port)
	fmt.Println("Starting clock... (Ctrl+C to stop)")

	eng.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}

	slog.Info("final save...")
	if err := db.SaveWorldState(world); err != nil {
		slog.Error("final save failed", "error", err)
	}
	fmt.Println("Clock stopped. World state saved.")
}

// loadWorld restores the configured world from the database, or creates
// it at the configured starting sub-season.
func loadWorld(ctx context.Context, cfg *config.Config, db *persistence.DB) (*engine.World, error) {
	sky := cfg.Sky()

	last, ok, err := db.LastWorld()
	if err != nil {
		return nil, fmt.Errorf("read last world: %w", err)
	}
	if ok && last.Name != cfg.World.Name {
		slog.Warn("configured world differs from the last one run",
			"configured", cfg.World.Name, "last", last.Name, "last_saved", humanize.Time(last.SavedTime()))
	}

	rec, found, err := db.LoadWorld(cfg.World.Name)
	if err != nil {
		return nil, err
	}
	if found {
		if rec.SubSeasonDays != cfg.Seasons.SubSeasonDays {
			slog.Warn("sub-season length changed since last save; season position rescaled",
				"saved", rec.SubSeasonDays, "configured", cfg.Seasons.SubSeasonDays)
		}
		world := engine.NewWorld(ctx, rec.ID, rec.Name, sky, rec.WorldTime, rec.CycleTicks)
		events, err := db.RecentEvents(rec.ID, 1000)
		if err != nil {
			return nil, fmt.Errorf("load events: %w", err)
		}
		world.RestoreEvents(events)
		slog.Info("world restored",
			"world_id", world.ID,
			"sim_time", engine.SimTime(world.WorldTime()),
			"calendar", world.Calendar().String(),
			"events", len(events),
			"saved", humanize.Time(rec.SavedTime()),
		)
		return world, nil
	}

	start, err := cfg.StartingSubSeason()
	if err != nil {
		return nil, err
	}
	world := engine.NewWorld(ctx, "", cfg.World.Name, sky, 0, cfg.Calendar().StartOf(start))
	slog.Info("new world created", "world_id", world.ID, "calendar", world.Calendar().String())
	if err := db.SaveWorldState(world); err != nil {
		return nil, fmt.Errorf("initial save: %w", err)
	}
	return world, nil
}

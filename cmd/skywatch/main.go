// Command skywatch polls a running skyclock and logs the sky. With
// -set-sub-season or -speed it first adjusts the world through the admin
// endpoints.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talgya/skyclock/internal/logging"
	"github.com/talgya/skyclock/internal/watch"
)

func main() {
	apiURL := flag.String("api", envOrDefault("SKYCLOCK_API_URL", "http://localhost:8080"), "skyclock API base URL")
	interval := flag.Duration("interval", 10*time.Second, "Polling interval")
	setSubSeason := flag.String("set-sub-season", "", "Move the world to this sub-season before watching (needs SKYCLOCK_ADMIN_KEY)")
	speed := flag.Float64("speed", -1, "Set the clock speed multiplier before watching (needs SKYCLOCK_ADMIN_KEY)")
	once := flag.Bool("once", false, "Observe once and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	_, logCloser := logging.Setup(level, "")
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	observer := watch.NewObserver(*apiURL)
	slog.Info("waiting for skyclock API...", "api_url", *apiURL)
	if err := observer.WaitForAPI(ctx, 5*time.Minute); err != nil {
		slog.Error("skyclock API unavailable", "error", err)
		os.Exit(1)
	}

	if *setSubSeason != "" || *speed >= 0 {
		adminKey := os.Getenv("SKYCLOCK_ADMIN_KEY")
		if adminKey == "" {
			slog.Error("SKYCLOCK_ADMIN_KEY is required for -set-sub-season and -speed")
			os.Exit(1)
		}
		actor := watch.NewActor(*apiURL, adminKey)

		if *setSubSeason != "" {
			info, err := actor.SetSubSeason(ctx, *setSubSeason)
			if err != nil {
				slog.Error("set sub-season failed", "error", err)
				os.Exit(1)
			}
			slog.Info("sub-season set", "calendar", info.Calendar, "daytime", info.Daytime)
		}
		if *speed >= 0 {
			got, err := actor.SetSpeed(ctx, *speed)
			if err != nil {
				slog.Error("set speed failed", "error", err)
				os.Exit(1)
			}
			slog.Info("speed set", "speed", got)
		}
	}

	observe(ctx, observer)
	if *once {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			observe(ctx, observer)
		case <-ctx.Done():
			slog.Info("skywatch stopped")
			return
		}
	}
}

func observe(ctx context.Context, observer *watch.Observer) {
	snap, err := observer.Observe(ctx)
	if err != nil {
		slog.Error("observation failed", "error", err)
		return
	}
	slog.Info(snap.Summary(),
		"angle", snap.Sky.Angle,
		"skylight", snap.Sky.Skylight,
		"moon_phase", snap.Sky.MoonPhase,
	)
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

package watch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/talgya/skyclock/internal/api"
	"github.com/talgya/skyclock/internal/celestial"
	"github.com/talgya/skyclock/internal/engine"
	"github.com/talgya/skyclock/internal/season"
)

func startAPI(t *testing.T) (*httptest.Server, *engine.World) {
	t.Helper()
	sky := celestial.Sky{
		SeasonsEnabled:  true,
		SeasonalDaytime: true,
		MinDaytime:      6000,
		Calendar:        season.DefaultCalendar(),
	}
	world := engine.NewWorld(context.Background(), "", "Overworld", sky, 20000, 0)
	srv := &api.Server{
		World:    world,
		Eng:      engine.NewEngine(20000),
		AdminKey: "key",
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, world
}

func TestObserve(t *testing.T) {
	ts, world := startAPI(t)
	snap, err := NewObserver(ts.URL).Observe(context.Background())
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}

	if snap.Status.Name != "Overworld" || snap.Status.WorldID != world.ID {
		t.Errorf("status = %+v", snap.Status)
	}
	want := world.Sky()
	if snap.Sky.WorldTime != want.WorldTime || snap.Sky.NextSunrise != want.NextSunrise || snap.Sky.Phase != want.Phase.String() {
		t.Errorf("sky = %+v, want %+v", snap.Sky, want)
	}
	if snap.UntilSunrise() != want.NextSunrise-want.WorldTime {
		t.Errorf("UntilSunrise = %d", snap.UntilSunrise())
	}
	summary := snap.Summary()
	if !strings.Contains(summary, "Early Spring, 1st day") || !strings.Contains(summary, "sunrise in") {
		t.Errorf("summary = %q", summary)
	}
}

func TestObserveError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()
	if _, err := NewObserver(ts.URL).Observe(context.Background()); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("err = %v", err)
	}
}

func TestActorSetSubSeason(t *testing.T) {
	ts, world := startAPI(t)
	actor := NewActor(ts.URL, "key")

	info, err := actor.SetSubSeason(context.Background(), "early_winter")
	if err != nil {
		t.Fatalf("SetSubSeason: %v", err)
	}
	if info.SubSeason != "Early Winter" || info.Daytime != 6000 {
		t.Errorf("info = %+v", info)
	}
	if world.Calendar().SubSeason() != season.EarlyWinter {
		t.Error("world not updated")
	}

	if _, err := actor.SetSubSeason(context.Background(), "winterish"); err == nil {
		t.Error("expected error for unknown sub-season")
	}

	bad := NewActor(ts.URL, "nope")
	if _, err := bad.SetSubSeason(context.Background(), "mid spring"); err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("wrong key: %v", err)
	}
}

func TestActorSetSpeed(t *testing.T) {
	ts, _ := startAPI(t)
	got, err := NewActor(ts.URL, "key").SetSpeed(context.Background(), 3)
	if err != nil || got != 3 {
		t.Errorf("SetSpeed = %v, %v", got, err)
	}
	if _, err := NewActor(ts.URL, "key").SetSpeed(context.Background(), 5000); err == nil {
		t.Error("expected error for out of range speed")
	}
	if _, err := NewActor(ts.URL, "wrong").SetSpeed(context.Background(), 2); err == nil {
		t.Error("expected error for bad admin key")
	}
}

func TestWaitForAPI(t *testing.T) {
	ts, _ := startAPI(t)
	if err := NewObserver(ts.URL).WaitForAPI(context.Background(), time.Second); err != nil {
		t.Fatalf("WaitForAPI: %v", err)
	}

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	err := NewObserver(down.URL).WaitForAPI(context.Background(), 200*time.Millisecond)
	if err == nil {
		t.Error("expected timeout")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewObserver(down.URL).WaitForAPI(ctx, time.Minute); err == nil {
		t.Error("expected cancellation")
	}
}

package persistence

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/talgya/skyclock/internal/celestial"
	"github.com/talgya/skyclock/internal/engine"
	"github.com/talgya/skyclock/internal/season"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "skyclock.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testWorld() *engine.World {
	sky := celestial.Sky{
		SeasonsEnabled:  true,
		SeasonalDaytime: true,
		MinDaytime:      6000,
		Calendar:        season.Calendar{SubSeasonDays: 2},
	}
	return engine.NewWorld(context.Background(), "", "Overworld", sky, 0, 0)
}

func TestLoadWorldMissing(t *testing.T) {
	db := openTestDB(t)
	_, ok, err := db.LoadWorld("nowhere")
	if err != nil || ok {
		t.Fatalf("LoadWorld = %v, %v; want not found", ok, err)
	}
}

func TestSaveAndLoadWorld(t *testing.T) {
	db := openTestDB(t)
	w := testWorld()
	for tick := int64(1); tick <= 30000; tick++ {
		w.Tick(tick)
	}
	w.SetSubSeason(season.LateSummer)

	if err := db.SaveWorldState(w); err != nil {
		t.Fatalf("SaveWorldState: %v", err)
	}

	rec, ok, err := db.LoadWorld("Overworld")
	if err != nil || !ok {
		t.Fatalf("LoadWorld = %v, %v", ok, err)
	}
	if rec.ID != w.ID || rec.WorldTime != 30000 || rec.CycleTicks != w.CycleTicks() {
		t.Errorf("record = %+v", rec)
	}
	if rec.SubSeasonDays != 2 {
		t.Errorf("sub_season_days = %d", rec.SubSeasonDays)
	}
	if rec.SavedTime().IsZero() {
		t.Error("saved_at not set")
	}

	last, err := db.GetMeta("last_world")
	if err != nil || last != w.ID {
		t.Errorf("last_world = %q, %v", last, err)
	}
}

func TestSaveWorldStateAppendsOnlyNewEvents(t *testing.T) {
	db := openTestDB(t)
	w := testWorld()
	w.SetCycleTick(10)
	w.SetCycleTick(20)

	if err := db.SaveWorldState(w); err != nil {
		t.Fatal(err)
	}
	if len(w.UnsavedEvents()) != 0 {
		t.Fatal("events still unsaved after save")
	}

	w.SetCycleTick(30)
	if err := db.SaveWorldState(w); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveWorldState(w); err != nil {
		t.Fatal(err)
	}

	events, err := db.RecentEvents(w.ID, 100)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("stored %d events, want 3: %v", len(events), events)
	}
	for i, e := range events {
		if e.Seq != int64(i+1) || e.Category != engine.CategoryAdmin {
			t.Errorf("event %d = %+v", i, e)
		}
	}
}

func TestSaveEventsIdempotent(t *testing.T) {
	db := openTestDB(t)
	events := []engine.Event{
		{Seq: 1, Tick: 10, Description: "a", Category: engine.CategorySunrise},
		{Seq: 2, Tick: 20, Description: "b", Category: engine.CategorySeason},
	}
	if err := db.SaveEvents("w1", events); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveEvents("w1", events); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveEvents("w2", events[:1]); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveEvents("w1", nil); err != nil {
		t.Fatal(err)
	}

	got, err := db.RecentEvents("w1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Description != "a" || got[1].Description != "b" {
		t.Errorf("w1 events = %v", got)
	}

	latest, err := db.RecentEvents("w1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(latest) != 1 || latest[0].Seq != 2 {
		t.Errorf("RecentEvents(1) = %v", latest)
	}

	other, err := db.RecentEvents("w2", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 1 {
		t.Errorf("w2 events = %v", other)
	}
}

func TestLastWorld(t *testing.T) {
	db := openTestDB(t)
	if _, ok, err := db.LastWorld(); err != nil || ok {
		t.Fatalf("LastWorld on empty db = %v, %v", ok, err)
	}
	if _, err := db.GetMeta("last_world"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetMeta on missing key: %v", err)
	}

	over := testWorld()
	nether := engine.NewWorld(context.Background(), "", "Nether", over.SkyModel(), 500, 0)
	for _, w := range []*engine.World{over, nether} {
		if err := db.SaveWorldState(w); err != nil {
			t.Fatal(err)
		}
	}

	rec, ok, err := db.LastWorld()
	if err != nil || !ok {
		t.Fatalf("LastWorld = %v, %v", ok, err)
	}
	if rec.ID != nether.ID || rec.Name != "Nether" || rec.WorldTime != 500 {
		t.Errorf("last world = %+v", rec)
	}

	if err := db.SaveWorldState(over); err != nil {
		t.Fatal(err)
	}
	if rec, _, _ := db.LastWorld(); rec.Name != "Overworld" {
		t.Errorf("last world after resave = %q", rec.Name)
	}
}

func TestReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skyclock.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	w := testWorld()
	w.SetSubSeason(season.MidAutumn)
	if err := db.SaveWorldState(w); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rec, ok, err := db.LoadWorld("Overworld")
	if err != nil || !ok {
		t.Fatalf("LoadWorld after reopen = %v, %v", ok, err)
	}
	cal := season.Calendar{SubSeasonDays: rec.SubSeasonDays}
	if got := cal.At(rec.CycleTicks).SubSeason(); got != season.MidAutumn {
		t.Errorf("restored sub-season = %v", got)
	}
}

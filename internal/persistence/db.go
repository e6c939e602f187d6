// Package persistence provides SQLite-based world clock storage.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/skyclock/internal/engine"
)

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn *sqlx.DB
}

// WorldRecord is the saved clock of one world.
type WorldRecord struct {
	ID            string `db:"id"`
	Name          string `db:"name"`
	WorldTime     int64  `db:"world_time"`
	CycleTicks    int64  `db:"cycle_ticks"`
	SubSeasonDays int64  `db:"sub_season_days"`
	SavedAt       int64  `db:"saved_at"` // Unix milliseconds
}

// SavedTime returns when the record was written.
func (r WorldRecord) SavedTime() time.Time {
	return time.UnixMilli(r.SavedAt)
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS worlds (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		world_time INTEGER NOT NULL,
		cycle_ticks INTEGER NOT NULL,
		sub_season_days INTEGER NOT NULL,
		saved_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		world_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		UNIQUE (world_id, seq)
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_world_tick ON events(world_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveEvents appends events for a world. Events already stored under the
// same sequence number are skipped.
func (db *DB) SaveEvents(worldID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertEvents(tx, worldID, events); err != nil {
		return err
	}
	return tx.Commit()
}

func insertEvents(tx *sqlx.Tx, worldID string, events []engine.Event) error {
	stmt, err := tx.Preparex(`INSERT OR IGNORE INTO events
		(world_id, seq, tick, description, category) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(worldID, e.Seq, e.Tick, e.Description, e.Category); err != nil {
			return fmt.Errorf("insert event %d: %w", e.Seq, err)
		}
	}
	return nil
}

// GetMeta retrieves a metadata value. A missing key returns sql.ErrNoRows.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// SaveWorldState writes the world's clock and any events not yet saved.
func (db *DB) SaveWorldState(w *engine.World) error {
	unsaved := w.UnsavedEvents()
	cal := w.Calendar()

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO worlds
		(id, name, world_time, cycle_ticks, sub_season_days, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			world_time = excluded.world_time,
			cycle_ticks = excluded.cycle_ticks,
			sub_season_days = excluded.sub_season_days,
			saved_at = excluded.saved_at`,
		w.ID, w.Name, w.WorldTime(), cal.Ticks, cal.Calendar.SubSeasonDays, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save world: %w", err)
	}
	if err := insertEvents(tx, w.ID, unsaved); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if _, err := tx.Exec("INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		"last_world", w.ID); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if n := len(unsaved); n > 0 {
		w.MarkSaved(unsaved[n-1].Seq)
	}
	slog.Debug("world state saved", "world", w.Name, "world_time", w.WorldTime(), "events", len(unsaved))
	return nil
}

// LoadWorld returns the saved record for the named world. The boolean is
// false when no world of that name has been saved.
func (db *DB) LoadWorld(name string) (WorldRecord, bool, error) {
	return db.getWorld("name", name)
}

// LastWorld returns the record of the most recently saved world, whatever
// its name. The boolean is false when nothing has been saved yet.
func (db *DB) LastWorld() (WorldRecord, bool, error) {
	id, err := db.GetMeta("last_world")
	if errors.Is(err, sql.ErrNoRows) {
		return WorldRecord{}, false, nil
	}
	if err != nil {
		return WorldRecord{}, false, err
	}
	return db.getWorld("id", id)
}

func (db *DB) getWorld(column, value string) (WorldRecord, bool, error) {
	var rec WorldRecord
	err := db.conn.Get(&rec, `SELECT id, name, world_time, cycle_ticks, sub_season_days, saved_at
		FROM worlds WHERE `+column+` = ?`, value)
	if errors.Is(err, sql.ErrNoRows) {
		return WorldRecord{}, false, nil
	}
	if err != nil {
		return WorldRecord{}, false, err
	}
	return rec, true, nil
}

// RecentEvents returns up to limit of a world's most recent events, oldest
// first.
func (db *DB) RecentEvents(worldID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		`SELECT seq, tick, description, category FROM events
		WHERE world_id = ? ORDER BY seq DESC LIMIT ?`,
		worldID, limit,
	)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

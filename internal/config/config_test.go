package config

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/talgya/skyclock/internal/season"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "skyclock.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	sub, err := cfg.StartingSubSeason()
	if err != nil || sub != season.EarlySpring {
		t.Errorf("StartingSubSeason = %v, %v; want Early Spring", sub, err)
	}
	sky := cfg.Sky()
	if !sky.Seasonal() {
		t.Error("default sky should be seasonal")
	}
	if got := sky.Calendar.CycleDuration(); got != 12*5*season.DayDuration {
		t.Errorf("cycle duration = %d", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
seasons:
  min_daytime: 4000
  sub_season_days: 8
  starting_sub_season: late_autumn
world:
  name: Nether Test
  tick_interval: 10ms
api:
  port: 9090
`)
	t.Setenv("SKYCLOCK_ADMIN_KEY", "secret")

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Seasons.MinDaytime != 4000 || cfg.Seasons.SubSeasonDays != 8 {
		t.Errorf("seasons = %+v", cfg.Seasons)
	}
	if !cfg.Seasons.Enabled || !cfg.Seasons.SeasonalDaytime {
		t.Error("unset booleans should keep their defaults")
	}
	if cfg.World.Name != "Nether Test" || cfg.World.TickInterval != 10*time.Millisecond {
		t.Errorf("world = %+v", cfg.World)
	}
	if cfg.World.DBPath != Default().World.DBPath {
		t.Errorf("db_path = %q, want default", cfg.World.DBPath)
	}
	if cfg.API.Port != 9090 || cfg.API.AdminKey != "secret" {
		t.Errorf("api = %+v", cfg.API)
	}
	if sub, _ := cfg.StartingSubSeason(); sub != season.LateAutumn {
		t.Errorf("starting sub-season = %v", sub)
	}
}

func TestLoadUnknownKey(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"top level typo", "seasns:\n  enabled: false\n", `"seasons"`},
		{"nested typo", "seasons:\n  min_daytim: 3000\n", `"seasons.min_daytime"`},
		{"no suggestion", "world:\n  colour: blue\n", `unknown setting "world.colour"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %s", err, tt.want)
			}
		})
	}
}

func TestLoadSecretsNotReadFromYAML(t *testing.T) {
	_, err := load(writeConfig(t, "api:\n  admin_key: oops\n"))
	if err == nil || !strings.Contains(err.Error(), "api.admin_key") {
		t.Fatalf("expected unknown setting error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative min daytime", func(c *Config) { c.Seasons.MinDaytime = -1 }, "min_daytime"},
		{"min daytime above half day", func(c *Config) { c.Seasons.MinDaytime = 12001 }, "min_daytime"},
		{"zero sub-season days", func(c *Config) { c.Seasons.SubSeasonDays = 0 }, "sub_season_days"},
		{"bad sub-season", func(c *Config) { c.Seasons.StartingSubSeason = "monsoon" }, "starting_sub_season"},
		{"empty name", func(c *Config) { c.World.Name = "  " }, "world.name"},
		{"zero tick interval", func(c *Config) { c.World.TickInterval = 0 }, "tick_interval"},
		{"negative speed", func(c *Config) { c.World.Speed = -2 }, "speed"},
		{"port out of range", func(c *Config) { c.API.Port = 70000 }, "api.port"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateEdges(t *testing.T) {
	for _, d := range []int64{0, 12000} {
		cfg := Default()
		cfg.Seasons.MinDaytime = d
		if err := cfg.Validate(); err != nil {
			t.Errorf("min_daytime %d rejected: %v", d, err)
		}
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Seasons.MinDaytime = -5
	cfg.API.Port = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "min_daytime") || !strings.Contains(msg, "api.port") {
		t.Errorf("error %q should report both problems", msg)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Seasons.MinDaytime = 7500
	cfg.World.TickInterval = 25 * time.Millisecond
	cfg.API.AdminKey = "never-written"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "never-written") {
		t.Error("admin key written to disk")
	}

	loaded, err := load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Seasons.MinDaytime != 7500 || loaded.World.TickInterval != 25*time.Millisecond {
		t.Errorf("loaded = %+v", loaded)
	}
}

func setFlag(t *testing.T, name, value string) {
	t.Helper()
	old := flag.Lookup(name).Value.String()
	if err := flag.Set(name, value); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { flag.Set(name, old) })
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	setFlag(t, "config", writeConfig(t, "api:\n  port: 9090\nseasons:\n  min_daytime: 4000\n"))
	setFlag(t, "port", "7070")
	setFlag(t, "no-seasons", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Port != 7070 || cfg.Seasons.Enabled {
		t.Errorf("flags not applied: %+v %+v", cfg.API, cfg.Seasons)
	}
	if cfg.Seasons.MinDaytime != 4000 {
		t.Errorf("min_daytime = %d, want file value", cfg.Seasons.MinDaytime)
	}
}

func TestWriteToConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	setFlag(t, "config", path)
	setFlag(t, "write-config", "true")
	if !WriteConfig() {
		t.Fatal("WriteConfig = false")
	}

	cfg := Default()
	cfg.World.Name = "Written"
	got, err := Write(cfg)
	if err != nil || got != path {
		t.Fatalf("Write = %q, %v", got, err)
	}
	loaded, err := load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.World.Name != "Written" {
		t.Errorf("name = %q", loaded.World.Name)
	}
}

func TestWriteDefaultPath(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("config dir not redirectable through XDG_CONFIG_HOME")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	got, err := Write(Default())
	if err != nil {
		t.Fatal(err)
	}
	if got != DefaultPath() {
		t.Errorf("wrote %q, want %q", got, DefaultPath())
	}
	if _, err := os.Stat(got); err != nil {
		t.Error(err)
	}
}

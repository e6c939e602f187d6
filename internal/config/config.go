// Package config handles skyclock configuration loading and validation.
package config

import (
	"time"

	"github.com/talgya/skyclock/internal/celestial"
	"github.com/talgya/skyclock/internal/season"
)

// Config holds all service settings.
type Config struct {
	Seasons SeasonsConfig `yaml:"seasons"`
	World   WorldConfig   `yaml:"world"`
	API     APIConfig     `yaml:"api"`
	Logging LoggingConfig `yaml:"logging"`
}

// SeasonsConfig holds the season cycle and daylight settings.
type SeasonsConfig struct {
	Enabled           bool   `yaml:"enabled"`
	SeasonalDaytime   bool   `yaml:"seasonal_daytime"`
	MinDaytime        int64  `yaml:"min_daytime"`     // Shortest day in ticks, at the winter solstice
	SubSeasonDays     int64  `yaml:"sub_season_days"` // Days per sub-season
	StartingSubSeason string `yaml:"starting_sub_season"`
}

// WorldConfig holds the world clock and storage settings.
type WorldConfig struct {
	Name         string        `yaml:"name"`
	DBPath       string        `yaml:"db_path"`
	TickInterval time.Duration `yaml:"tick_interval"` // Real time per tick at speed 1
	Speed        float64       `yaml:"speed"`
	AutosaveDays int64         `yaml:"autosave_days"` // 0 disables periodic saves
}

// APIConfig holds HTTP API settings. Keys come from the environment only.
type APIConfig struct {
	Port     int    `yaml:"port"`
	AdminKey string `yaml:"-"`
	RelayKey string `yaml:"-"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Seasons: SeasonsConfig{
			Enabled:           true,
			SeasonalDaytime:   true,
			MinDaytime:        6000,
			SubSeasonDays:     season.DefaultSubSeasonDays,
			StartingSubSeason: season.EarlySpring.String(),
		},
		World: WorldConfig{
			Name:         "Overworld",
			DBPath:       "data/skyclock.db",
			TickInterval: 50 * time.Millisecond,
			Speed:        1,
			AutosaveDays: 1,
		},
		API: APIConfig{
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Calendar returns the season calendar described by the config.
func (c *Config) Calendar() season.Calendar {
	return season.Calendar{SubSeasonDays: c.Seasons.SubSeasonDays}
}

// StartingSubSeason parses the configured starting sub-season.
func (c *Config) StartingSubSeason() (season.SubSeason, error) {
	return season.ParseSubSeason(c.Seasons.StartingSubSeason)
}

// Sky returns the sky model for this configuration.
func (c *Config) Sky() celestial.Sky {
	return celestial.Sky{
		SeasonsEnabled:  c.Seasons.Enabled,
		SeasonalDaytime: c.Seasons.SeasonalDaytime,
		MinDaytime:      c.Seasons.MinDaytime,
		Calendar:        c.Calendar(),
	}
}

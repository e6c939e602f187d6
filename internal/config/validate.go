package config

import (
	"fmt"
	"strings"

	"cloudeng.io/errors"

	"github.com/talgya/skyclock/internal/season"
)

// Validate reports every invalid setting at once.
//
// The daylight model relies on min_daytime lying in [0, half a day]; this
// is the only place that range is enforced.
func (c *Config) Validate() error {
	var errs errors.M

	if c.Seasons.MinDaytime < 0 || c.Seasons.MinDaytime > season.DayDuration/2 {
		errs.Append(fmt.Errorf("seasons.min_daytime %d outside [0, %d]", c.Seasons.MinDaytime, season.DayDuration/2))
	}
	if c.Seasons.SubSeasonDays <= 0 {
		errs.Append(fmt.Errorf("seasons.sub_season_days must be positive, got %d", c.Seasons.SubSeasonDays))
	}
	if _, err := c.StartingSubSeason(); err != nil {
		errs.Append(fmt.Errorf("seasons.starting_sub_season: %w", err))
	}
	if strings.TrimSpace(c.World.Name) == "" {
		errs.Append(fmt.Errorf("world.name must not be empty"))
	}
	if c.World.TickInterval <= 0 {
		errs.Append(fmt.Errorf("world.tick_interval must be positive, got %v", c.World.TickInterval))
	}
	if c.World.Speed < 0 {
		errs.Append(fmt.Errorf("world.speed must not be negative, got %v", c.World.Speed))
	}
	if c.World.AutosaveDays < 0 {
		errs.Append(fmt.Errorf("world.autosave_days must not be negative, got %d", c.World.AutosaveDays))
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs.Append(fmt.Errorf("api.port %d outside 1-65535", c.API.Port))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs.Append(fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	return errs.Err()
}

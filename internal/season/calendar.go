package season

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// DayDuration is the number of ticks in one in-game day.
const DayDuration = 24000

// DefaultSubSeasonDays is the length of a sub-season when none is configured.
const DefaultSubSeasonDays = 5

// Calendar fixes the length of the cycle. All durations are in ticks and
// derive from SubSeasonDays, so the cycle always divides evenly into
// seasons and sub-seasons.
type Calendar struct {
	SubSeasonDays int64
}

// DefaultCalendar returns a calendar with DefaultSubSeasonDays per sub-season.
func DefaultCalendar() Calendar {
	return Calendar{SubSeasonDays: DefaultSubSeasonDays}
}

// DayDuration returns the ticks per day.
func (c Calendar) DayDuration() int64 { return DayDuration }

// SubSeasonDuration returns the ticks per sub-season.
func (c Calendar) SubSeasonDuration() int64 { return c.SubSeasonDays * DayDuration }

// SeasonDuration returns the ticks per season.
func (c Calendar) SeasonDuration() int64 { return c.SubSeasonDuration() * SubSeasonsPerSeason }

// CycleDuration returns the ticks per full year.
func (c Calendar) CycleDuration() int64 { return c.SeasonDuration() * SeasonsPerCycle }

// StartOf returns the cycle tick at which the sub-season begins.
func (c Calendar) StartOf(sub SubSeason) int64 {
	return int64(sub%SubSeasonsPerCycle) * c.SubSeasonDuration()
}

// SummerSolstice returns the cycle tick of the longest day (start of Summer).
func (c Calendar) SummerSolstice() int64 { return c.StartOf(EarlySummer) }

// WinterSolstice returns the cycle tick of the shortest day (start of Winter).
func (c Calendar) WinterSolstice() int64 { return c.StartOf(EarlyWinter) }

// At returns the calendar position for an absolute cycle tick count.
func (c Calendar) At(ticks int64) Time {
	return Time{Ticks: ticks, Calendar: c}
}

// Time is a snapshot of the season cycle counter.
type Time struct {
	Ticks    int64
	Calendar Calendar
}

// CycleTick returns the position within the current year.
func (t Time) CycleTick() int64 {
	return floorMod(t.Ticks, t.Calendar.CycleDuration())
}

// SubSeason returns the current sub-season.
func (t Time) SubSeason() SubSeason {
	return SubSeason(t.CycleTick() / t.Calendar.SubSeasonDuration())
}

// Season returns the current season.
func (t Time) Season() Season {
	return t.SubSeason().Season()
}

// Day returns the zero-based day within the current year.
func (t Time) Day() int64 {
	return t.CycleTick() / DayDuration
}

// DayOfSubSeason returns the one-based day within the current sub-season.
func (t Time) DayOfSubSeason() int64 {
	return t.Day()%t.Calendar.SubSeasonDays + 1
}

func (t Time) String() string {
	return fmt.Sprintf("%s, %s day", t.SubSeason(), humanize.Ordinal(int(t.DayOfSubSeason())))
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

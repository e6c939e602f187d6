package celestial

import (
	"math"

	"github.com/talgya/skyclock/internal/season"
)

// Celestial angle reference values: 0 is midday, 0.25 sunset, 0.5
// midnight and 0.75 the sun on the horizon before easing.
const (
	dayTicks   = season.DayDuration
	quarterDay = dayTicks / 4

	// zenithTime is local midday in normalized time, where the day window
	// never wraps past the end of the day.
	zenithTime = quarterDay * 2
)

// SunriseAngle is the eased angle of the sun as it clears the horizon at
// the start of the day (world time 0 without seasons). About 0.7845.
var SunriseAngle = easeHorizon(0.75)

// Phase is the section of the day a moment falls in. Each phase is a
// linear ramp of the angle with its own slope.
type Phase uint8

const (
	PhaseDay Phase = iota
	PhaseEvening
	PhaseMorning
)

func (p Phase) String() string {
	switch p {
	case PhaseDay:
		return "day"
	case PhaseEvening:
		return "evening"
	case PhaseMorning:
		return "morning"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// CelestialAngle returns the sky angle in [0, 1) at worldTime plus
// partialTick. The seasonal model is used only when both seasons and
// seasonal daytime are enabled; otherwise the fixed 12000-tick day applies
// and daytime is ignored.
func CelestialAngle(worldTime int64, partialTick float32, seasonsEnabled, seasonalDaytime bool, daytime int64) float32 {
	if seasonsEnabled && seasonalDaytime {
		return SeasonalAngle(worldTime, daytime)
	}
	return VanillaAngle(worldTime, partialTick)
}

// VanillaAngle is the non-seasonal angle with equal day and night.
func VanillaAngle(worldTime int64, partialTick float32) float32 {
	i := floorMod(worldTime, dayTicks)
	angle := (float32(i)+partialTick)/dayTicks - 0.25
	if angle < 0 {
		angle++
	}
	if angle > 1 {
		angle--
	}
	return easeHorizon(angle)
}

// SeasonalAngle is the angle for a day with daytime ticks of daylight
// centered on midday. A full day locks the sun at its zenith and an empty
// one locks the moon at its zenith. Sub-tick offsets are not applied.
func SeasonalAngle(worldTime, daytime int64) float32 {
	if daytime >= dayTicks {
		return 0
	}
	if daytime <= 0 {
		return 0.5
	}

	time := normalizedTime(worldTime)
	var angle float32
	switch PhaseAt(worldTime, daytime) {
	case PhaseDay:
		angle = dayRamp(time, daytime)
	case PhaseEvening:
		angle = nightRamp(time, daytime)
	case PhaseMorning:
		// Still yesterday's night in normalized time.
		angle = nightRamp(time+dayTicks, daytime)
	}
	if angle >= 1 {
		angle--
	}
	return easeHorizon(angle)
}

// PhaseAt reports which phase worldTime falls in for the given daytime.
// The day phase spans daytime ticks centered on midday, inclusive of both
// ends. With no daylight at all the day is split at midday into evening
// and morning; with a full day it is all day.
func PhaseAt(worldTime, daytime int64) Phase {
	time := normalizedTime(worldTime)
	half := daytime / 2
	switch {
	case daytime >= dayTicks:
		return PhaseDay
	case daytime <= 0:
		if time > zenithTime {
			return PhaseEvening
		}
		return PhaseMorning
	case time > zenithTime+half:
		return PhaseEvening
	case time < zenithTime-half:
		return PhaseMorning
	default:
		return PhaseDay
	}
}

// normalizedTime shifts world time so midday sits at zenithTime.
func normalizedTime(worldTime int64) int64 {
	return floorMod(worldTime+quarterDay, dayTicks)
}

func dayRamp(time, daytime int64) float32 {
	d := float32(daytime)
	return float32(time)/d/2 + 1 - quarterDay/d
}

func nightRamp(time, daytime int64) float32 {
	night := float32(zenithTime - daytime/2)
	return 0.25/night*float32(time) + 1.5 - quarterDay/night
}

// easeHorizon slows the angle near sunrise and sunset so the day starts
// and ends with the sun slightly above the horizon.
func easeHorizon(angle float32) float32 {
	f := 1 - float32((math.Cos(float64(angle)*math.Pi)+1)/2)
	return angle + (f-angle)/3
}

// Package celestial computes the seasonal length of daylight, the angle of
// the sun and moon in the sky, and the time of the next sunrise.
//
// Everything here is a pure function of its arguments. The season cycle
// tick and the configuration are always passed in; nothing is read from
// shared state, so one Sky value can serve any number of worlds and
// goroutines.
package celestial

import "math"

// DaytimeLength returns the number of daylight ticks in the day that
// contains cycleTick. The length follows a cosine over the cycle, from
// minDaytime at the winter solstice (start of Winter) to
// dayDuration-minDaytime at the summer solstice (start of Summer).
//
// minDaytime must lie in [0, dayDuration/2]; outside that range the result
// range is inverted but the call still succeeds.
func DaytimeLength(cycleTick, minDaytime, dayDuration, cycleDuration, seasonDuration int64) int64 {
	maxDaytime := dayDuration - minDaytime
	phase := cycleTick + seasonDuration*3
	if cycleDuration > 0 {
		// Reduce before scaling so the solstices land on cos(0) and cos(π).
		phase = floorMod(phase, cycleDuration)
	}
	halfCycle := float64(cycleDuration) / 2

	raw := (math.Cos(float64(phase)*math.Pi/halfCycle) + 1) / 2
	return int64(raw*float64(maxDaytime-minDaytime) + float64(minDaytime))
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

package celestial

import "math"

// maxSkylightSubtracted is the light reduction at full night.
const maxSkylightSubtracted = 11

// daylightThreshold is the light reduction below which it counts as day.
const daylightThreshold = 4

// moonPhases is the length of the lunar cycle in days.
const moonPhases = 8

// SkylightSubtracted returns how many light levels the sky loses at the
// given angle, from 0 around midday to 11 around midnight.
func SkylightSubtracted(angle float32) int {
	f := 1 - (float32(math.Cos(float64(angle)*2*math.Pi))*2 + 0.5)
	f = min(max(f, 0), 1)
	return int(f * maxSkylightSubtracted)
}

// IsDaytime reports whether the sky at angle is bright enough to count as day.
func IsDaytime(angle float32) bool {
	return SkylightSubtracted(angle) < daylightThreshold
}

// MoonPhase returns the moon phase, 0 (full) through 7, for worldTime.
func MoonPhase(worldTime int64) int {
	return int(floorMod(worldTime/dayTicks, moonPhases))
}

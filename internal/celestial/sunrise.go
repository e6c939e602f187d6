package celestial

// Offsets within a day of world time (not normalized time).
const (
	middayOffset   = quarterDay
	midnightOffset = quarterDay * 3
)

// AngleFunc evaluates the sky angle at a world time with no partial tick.
type AngleFunc func(worldTime int64) float32

// NextSunrise returns the first tick at or after worldTime (or after the
// following midnight, once today's sunrise has passed) at which the angle
// rises past SunriseAngle. The angle must increase monotonically from
// midnight to midday, which holds for every daytime in (0, dayTicks); if it
// does not, the result is some tick inside the searched range.
func NextSunrise(worldTime int64, angle AngleFunc) int64 {
	var left, right int64
	if current := angle(worldTime); current > 0.5 && current < SunriseAngle {
		left, right = untilMidday(worldTime)
	} else {
		left, right = fromMidnight(worldTime)
	}

	for delta := right - left; delta > 1; delta = right - left {
		if angle(left+delta/2) > SunriseAngle {
			right = left + (delta+1)/2
		} else {
			left += delta / 2
		}
	}
	return right
}

// untilMidday brackets the rest of the current night: from now to the next
// midday.
func untilMidday(worldTime int64) (left, right int64) {
	offset := floorMod(worldTime, dayTicks)
	right = worldTime - offset + middayOffset
	if offset > middayOffset {
		right += dayTicks
	}
	return worldTime, right
}

// fromMidnight brackets the next full morning: from the next midnight to
// the midday after it.
func fromMidnight(worldTime int64) (left, right int64) {
	offset := floorMod(worldTime, dayTicks)
	left = worldTime - offset + midnightOffset
	if offset > midnightOffset {
		left += dayTicks
	}
	return left, left + zenithTime
}

package celestial

import "github.com/talgya/skyclock/internal/season"

// ReferenceLatitude is the only latitude the daytime model evaluates.
const ReferenceLatitude = 0

// Sky is the configuration snapshot the sky model reads. It holds no
// state of its own; the world time and cycle tick are passed to every
// method.
type Sky struct {
	SeasonsEnabled  bool
	SeasonalDaytime bool
	MinDaytime      int64
	Calendar        season.Calendar
}

// Seasonal reports whether day length varies over the year.
func (s Sky) Seasonal() bool {
	return s.SeasonsEnabled && s.SeasonalDaytime
}

// Daytime returns the seasonal daylight length for the day containing
// cycleTick. The latitude is accepted for callers that track one but does
// not change the result.
func (s Sky) Daytime(cycleTick int64, latitude float64) int64 {
	return DaytimeLength(cycleTick, s.MinDaytime,
		s.Calendar.DayDuration(), s.Calendar.CycleDuration(), s.Calendar.SeasonDuration())
}

// EffectiveDaytime is the daylight length the angle model actually uses:
// the seasonal length, or half a day when seasonal daytime is off.
func (s Sky) EffectiveDaytime(cycleTick int64) int64 {
	if !s.Seasonal() {
		return dayTicks / 2
	}
	return s.Daytime(cycleTick, ReferenceLatitude)
}

// HasSunrise reports whether the day containing cycleTick has both a day
// and a night. With no daylight, or daylight all day long, the angle is
// locked and there is no sunrise to find.
func (s Sky) HasSunrise(cycleTick int64) bool {
	d := s.EffectiveDaytime(cycleTick)
	return d > 0 && d < dayTicks
}

// Angle returns the sky angle at worldTime for the season position cycleTick.
func (s Sky) Angle(worldTime int64, partialTick float32, cycleTick int64) float32 {
	if !s.Seasonal() {
		return VanillaAngle(worldTime, partialTick)
	}
	return SeasonalAngle(worldTime, s.Daytime(cycleTick, ReferenceLatitude))
}

// AngleFunc returns the angle as a function of world time with the day
// length held at its value for cycleTick.
func (s Sky) AngleFunc(cycleTick int64) AngleFunc {
	if !s.Seasonal() {
		return func(worldTime int64) float32 { return VanillaAngle(worldTime, 0) }
	}
	daytime := s.Daytime(cycleTick, ReferenceLatitude)
	return func(worldTime int64) float32 { return SeasonalAngle(worldTime, daytime) }
}

// NextSunrise returns the next sunrise tick after worldTime with the day
// length held at its value for cycleTick.
func (s Sky) NextSunrise(worldTime, cycleTick int64) int64 {
	return NextSunrise(worldTime, s.AngleFunc(cycleTick))
}

// PhaseAt returns the phase of the day at worldTime.
func (s Sky) PhaseAt(worldTime, cycleTick int64) Phase {
	return PhaseAt(worldTime, s.EffectiveDaytime(cycleTick))
}

// State is everything a renderer or scheduler needs about the sky at one
// moment.
type State struct {
	WorldTime   int64   `json:"world_time"`
	CycleTick   int64   `json:"cycle_tick"`
	Daytime     int64   `json:"daytime"`
	Angle       float32 `json:"angle"`
	Phase       Phase   `json:"phase"`
	Skylight    int     `json:"skylight_subtracted"`
	IsDay       bool    `json:"is_day"`
	MoonPhase   int     `json:"moon_phase"`
	NextSunrise int64   `json:"next_sunrise"`
}

// State evaluates the sky at worldTime for the season position cycleTick.
func (s Sky) State(worldTime, cycleTick int64) State {
	angle := s.Angle(worldTime, 0, cycleTick)
	return State{
		WorldTime:   worldTime,
		CycleTick:   cycleTick,
		Daytime:     s.EffectiveDaytime(cycleTick),
		Angle:       angle,
		Phase:       s.PhaseAt(worldTime, cycleTick),
		Skylight:    SkylightSubtracted(angle),
		IsDay:       IsDaytime(angle),
		MoonPhase:   MoonPhase(worldTime),
		NextSunrise: s.NextSunrise(worldTime, cycleTick),
	}
}

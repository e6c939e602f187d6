// Package season models the repeating year: four seasons of three
// sub-seasons each, measured in world ticks.
package season

// Season is one quarter of the cycle.
type Season uint8

// Season constants, in cycle order.
const (
	Spring Season = iota
	Summer
	Autumn
	Winter
)

// SeasonsPerCycle is the number of seasons in one full year.
const SeasonsPerCycle = 4

// String returns a human-readable season name.
func (s Season) String() string {
	switch s {
	case Spring:
		return "Spring"
	case Summer:
		return "Summer"
	case Autumn:
		return "Autumn"
	case Winter:
		return "Winter"
	default:
		return "Unknown"
	}
}

// SubSeason is one third of a season.
type SubSeason uint8

// SubSeason constants, in cycle order.
const (
	EarlySpring SubSeason = iota
	MidSpring
	LateSpring
	EarlySummer
	MidSummer
	LateSummer
	EarlyAutumn
	MidAutumn
	LateAutumn
	EarlyWinter
	MidWinter
	LateWinter
)

// SubSeasonsPerSeason is the number of sub-seasons in each season.
const SubSeasonsPerSeason = 3

// SubSeasonsPerCycle is the number of sub-seasons in one full year.
const SubSeasonsPerCycle = SubSeasonsPerSeason * SeasonsPerCycle

var stageNames = [SubSeasonsPerSeason]string{"Early", "Mid", "Late"}

// Season returns the season this sub-season belongs to.
func (s SubSeason) Season() Season {
	return Season(s / SubSeasonsPerSeason)
}

// String returns the sub-season name, e.g. "Mid Summer".
func (s SubSeason) String() string {
	if s >= SubSeasonsPerCycle {
		return "Unknown"
	}
	return stageNames[s%SubSeasonsPerSeason] + " " + s.Season().String()
}

// SubSeasons returns all sub-seasons in cycle order.
func SubSeasons() []SubSeason {
	all := make([]SubSeason, SubSeasonsPerCycle)
	for i := range all {
		all[i] = SubSeason(i)
	}
	return all
}

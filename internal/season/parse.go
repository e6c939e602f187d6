package season

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ParseSubSeason resolves a sub-season name. Case, underscores, dashes and
// spaces are ignored ("mid_summer", "MidSummer", "mid summer"). A number in
// 1..12 selects by position. When nothing matches, the error names the
// closest sub-season if it is within a few edits.
func ParseSubSeason(name string) (SubSeason, error) {
	key := normalize(name)
	if key == "" {
		return 0, fmt.Errorf("empty sub-season name")
	}
	if n, err := strconv.Atoi(key); err == nil {
		if n < 1 || n > SubSeasonsPerCycle {
			return 0, fmt.Errorf("sub-season %d out of range 1-%d", n, SubSeasonsPerCycle)
		}
		return SubSeason(n - 1), nil
	}

	best, bestDist := SubSeason(0), -1
	for _, sub := range SubSeasons() {
		cand := normalize(sub.String())
		if cand == key {
			return sub, nil
		}
		dist := levenshtein.ComputeDistance(key, cand)
		if bestDist < 0 || dist < bestDist {
			best, bestDist = sub, dist
		}
	}
	if bestDist <= suggestLimit(len(key)) {
		return 0, fmt.Errorf("unknown sub-season %q (did you mean %q?)", name, best.String())
	}
	return 0, fmt.Errorf("unknown sub-season %q", name)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s SubSeason) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using ParseSubSeason.
func (s *SubSeason) UnmarshalText(text []byte) error {
	sub, err := ParseSubSeason(string(text))
	if err != nil {
		return err
	}
	*s = sub
	return nil
}

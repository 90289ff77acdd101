package features

import (
	"sort"
	"time"
)

// Appearance is one entity's presence in one game, the unit of the rest
// calculation. Entity is either a team abbreviation or a goalie id.
type Appearance struct {
	Entity string
	GameID string
	Date   time.Time
	Seq    int
}

// RestKey addresses a rest value: the game and the entity whose rest it is.
type RestKey struct {
	GameID string
	Entity string
}

// RestDays computes, for every appearance, the whole-day gap since the
// entity's previous appearance. An entity's first appearance has no prior
// reference and is filled with the ceiling, a start-of-season default; any
// larger gap (off-season, long injury) is clamped to the same ceiling so it
// cannot inflate the feature.
func RestDays(apps []Appearance, ceiling float64) map[RestKey]float64 {
	byEntity := make(map[string][]Appearance)
	for _, a := range apps {
		byEntity[a.Entity] = append(byEntity[a.Entity], a)
	}

	out := make(map[RestKey]float64, len(apps))
	for _, seq := range byEntity {
		sort.Slice(seq, func(i, j int) bool {
			if !seq[i].Date.Equal(seq[j].Date) {
				return seq[i].Date.Before(seq[j].Date)
			}
			return seq[i].Seq < seq[j].Seq
		})
		for i, a := range seq {
			rest := ceiling
			if i > 0 {
				gap := float64(int(a.Date.Sub(seq[i-1].Date).Hours() / 24))
				if gap < ceiling {
					rest = gap
				}
			}
			out[RestKey{GameID: a.GameID, Entity: a.Entity}] = rest
		}
	}
	return out
}

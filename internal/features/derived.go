package features

import (
	"math"

	"nhl_wp/pipeline/internal/models"
)

// GameSide identifies one team's side of one game.
type GameSide struct {
	GameID string
	IsHome bool
}

// TeamDerived holds the stats computed from goalie-level shot/save splits
// rather than supplied directly by the provider. A team's even-strength
// offense is measured through the opposing goalies: shots against the home
// goalies are shots taken by the away team, and vice versa.
type TeamDerived struct {
	Pdo                         float64
	EvenStrengthGoals           float64
	EvenStrengthShots           float64
	EvenStrengthShootingPercent float64
}

// DerivedTeamStats computes per-(game, side) derived stats for every game
// that has goalie observations. The returned count is the number of
// zero-denominator computations, surfaced for the quality report; those
// values come back NaN, never zero or infinite.
func DerivedTeamStats(goalies []models.GoalieGame) (map[GameSide]TeamDerived, int) {
	type split struct {
		shots, saves float64
	}
	splits := make(map[GameSide]split)
	for _, g := range goalies {
		key := GameSide{GameID: g.GameID, IsHome: g.IsHome}
		s := splits[key]
		// Sums skip missing values so a reliever with no recorded splits
		// does not poison the team total.
		if !math.IsNaN(g.EvenShotsAgainst) {
			s.shots += g.EvenShotsAgainst
		}
		if !math.IsNaN(g.EvenSaves) {
			s.saves += g.EvenSaves
		}
		splits[key] = s
	}

	out := make(map[GameSide]TeamDerived, len(splits))
	zeroDenoms := 0
	for key, own := range splits {
		opp := splits[GameSide{GameID: key.GameID, IsHome: !key.IsHome}]

		// The opposing side's goalies faced this side's shooters.
		esShots := opp.shots
		esGoals := opp.shots - opp.saves

		// This side's goalies faced the opposing shooters; their save rate
		// is this side's even-strength save percentage.
		oppShots := own.shots
		oppGoals := own.shots - own.saves

		shPct := math.NaN()
		if esShots > 0 {
			shPct = esGoals / esShots
		} else {
			zeroDenoms++
		}

		svPct := math.NaN()
		if oppShots > 0 {
			svPct = (oppShots - oppGoals) / oppShots
		} else {
			zeroDenoms++
		}

		out[key] = TeamDerived{
			Pdo:                         shPct + svPct, // NaN if either side is undefined
			EvenStrengthGoals:           esGoals,
			EvenStrengthShots:           esShots,
			EvenStrengthShootingPercent: shPct,
		}
	}
	return out, zeroDenoms
}

// shootingPercent is goals over shots, NaN when the team recorded no shots.
func shootingPercent(goals, shots float64) float64 {
	if math.IsNaN(goals) || math.IsNaN(shots) || shots == 0 {
		return math.NaN()
	}
	return goals / shots
}

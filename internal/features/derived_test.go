package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhl_wp/pipeline/internal/models"
)

func goalieLine(gameID string, isHome bool, goalieID string, evenShotsAgainst, evenSaves float64) models.GoalieGame {
	return models.GoalieGame{
		GameID:           gameID,
		Date:             day(0),
		GoalieID:         goalieID,
		IsHome:           isHome,
		EvenShotsAgainst: evenShotsAgainst,
		EvenSaves:        evenSaves,
	}
}

func TestDerivedTeamStats_Pdo(t *testing.T) {
	goalies := []models.GoalieGame{
		// Away goalie faced the home shooters: 30 even shots, 27 saved.
		goalieLine("g1", false, "away1", 30, 27),
		// Home goalie faced the away shooters: 25 even shots, 23 saved.
		goalieLine("g1", true, "home1", 25, 23),
	}

	derived, zeroDenoms := DerivedTeamStats(goalies)
	require.Zero(t, zeroDenoms)

	home := derived[GameSide{GameID: "g1", IsHome: true}]
	assert.InDelta(t, 3.0, home.EvenStrengthGoals, 1e-9)
	assert.InDelta(t, 30.0, home.EvenStrengthShots, 1e-9)
	assert.InDelta(t, 0.10, home.EvenStrengthShootingPercent, 1e-9)
	// Shooting 0.10 plus save 0.92.
	assert.InDelta(t, 1.02, home.Pdo, 1e-9)

	away := derived[GameSide{GameID: "g1", IsHome: false}]
	assert.InDelta(t, 2.0, away.EvenStrengthGoals, 1e-9)
	assert.InDelta(t, 25.0, away.EvenStrengthShots, 1e-9)
	// Shooting 2/25 plus save 27/30.
	assert.InDelta(t, 0.08+0.90, away.Pdo, 1e-9)
}

func TestDerivedTeamStats_RelieverSplitsSum(t *testing.T) {
	goalies := []models.GoalieGame{
		// Pulled starter plus reliever on the away side.
		goalieLine("g1", false, "reliever", 10, 9),
		goalieLine("g1", false, "starter", 20, 18),
		goalieLine("g1", true, "home1", 25, 23),
	}

	derived, _ := DerivedTeamStats(goalies)

	home := derived[GameSide{GameID: "g1", IsHome: true}]
	assert.InDelta(t, 30.0, home.EvenStrengthShots, 1e-9, "both away goalies' shots faced sum up")
	assert.InDelta(t, 3.0, home.EvenStrengthGoals, 1e-9)
}

func TestDerivedTeamStats_MissingSplitsSkipped(t *testing.T) {
	withNaN := goalieLine("g1", false, "backup", math.NaN(), math.NaN())
	goalies := []models.GoalieGame{
		goalieLine("g1", false, "starter", 30, 27),
		withNaN,
		goalieLine("g1", true, "home1", 25, 23),
	}

	derived, _ := DerivedTeamStats(goalies)
	home := derived[GameSide{GameID: "g1", IsHome: true}]
	assert.InDelta(t, 30.0, home.EvenStrengthShots, 1e-9, "NaN splits must not poison the sum")
}

func TestDerivedTeamStats_ZeroShots(t *testing.T) {
	goalies := []models.GoalieGame{
		goalieLine("g1", false, "away1", 0, 0),
		goalieLine("g1", true, "home1", 25, 23),
	}

	derived, zeroDenoms := DerivedTeamStats(goalies)

	home := derived[GameSide{GameID: "g1", IsHome: true}]
	assert.True(t, math.IsNaN(home.EvenStrengthShootingPercent), "zero shots yields NaN, never Inf")
	assert.True(t, math.IsNaN(home.Pdo), "undefined component makes the sum undefined")
	assert.Positive(t, zeroDenoms)
}

func TestShootingPercent(t *testing.T) {
	assert.InDelta(t, 0.1, shootingPercent(3, 30), 1e-9)
	assert.True(t, math.IsNaN(shootingPercent(0, 0)))
	assert.True(t, math.IsNaN(shootingPercent(math.NaN(), 30)))
}

package features

import (
	"database/sql"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhl_wp/pipeline/internal/models"
)

// testConfig keeps windows small so a handful of games produces complete rows.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TeamWindows = []int{2}
	cfg.GoalieWindows = []int{2}
	cfg.WinPctWindows = []int{2}
	return cfg
}

// seasonFixture builds n completed BOS-home games against BUF with fully
// populated team and goalie observations.
func seasonFixture(n int) ([]models.Game, []models.TeamGame, []models.GoalieGame) {
	var games []models.Game
	var teams []models.TeamGame
	var goalies []models.GoalieGame

	for i := 0; i < n; i++ {
		id := fmt.Sprintf("g%03d", i)
		homeWin := i%2 == 0
		games = append(games, models.Game{
			GameID:   id,
			Date:     day(i * 2),
			HomeTeam: "BOS",
			AwayTeam: "BUF",
			HomeWin:  sql.NullBool{Bool: homeWin, Valid: true},

			HomeGoalieID: "h1", HomeGoalieName: "Home Goalie",
			AwayGoalieID: "a1", AwayGoalieName: "Away Goalie",
		})
		teams = append(teams,
			teamObs(id, i, "BOS", true, float64(2+i%3)),
			teamObs(id, i, "BUF", false, float64(1+i%4)),
		)
		goalies = append(goalies,
			goalieObs(id, i, "a1", false, 28+float64(i%5)),
			goalieObs(id, i, "h1", true, 25+float64(i%3)),
		)
	}
	return games, teams, goalies
}

func teamObs(gameID string, dayIdx int, team string, isHome bool, goals float64) models.TeamGame {
	return models.TeamGame{
		GameID: gameID,
		Date:   day(dayIdx * 2),
		Team:   team,
		IsHome: isHome,

		Goals:                  goals,
		PIM:                    6,
		Shots:                  30 + goals,
		PowerPlayPercentage:    20,
		PowerPlayGoals:         1,
		PowerPlayOpportunities: 4,
		FaceOffWinPercentage:   50,
		Blocked:                12,
		Takeaways:              7,
		Giveaways:              9,
		Hits:                   22,
	}
}

func goalieObs(gameID string, dayIdx int, goalieID string, isHome bool, evenShots float64) models.GoalieGame {
	return models.GoalieGame{
		GameID:   gameID,
		Date:     day(dayIdx * 2),
		Team:     map[bool]string{true: "BOS", false: "BUF"}[isHome],
		IsHome:   isHome,
		GoalieID: goalieID,

		TimeOnIce:                  60,
		Shots:                      evenShots + 4,
		Saves:                      evenShots + 1,
		PowerPlaySaves:             2,
		ShortHandedSaves:           1,
		EvenSaves:                  evenShots - 2,
		ShortHandedShotsAgainst:    1,
		EvenShotsAgainst:           evenShots,
		PowerPlayShotsAgainst:      3,
		SavePercentage:             91.5,
		EvenStrengthSavePercentage: 92.0,
	}
}

func TestBuildEndToEnd(t *testing.T) {
	games, teams, goalies := seasonFixture(5)

	table, report, err := Build(testConfig(), games, teams, goalies)
	require.NoError(t, err)

	assert.Equal(t, 5, report.GamesIn)
	// The first two games lack a full pregame window and are dropped.
	assert.Equal(t, 3, report.RowsEmitted)
	assert.Equal(t, 2, report.RowsDropped)
	require.Len(t, table.Rows, 3)

	// Window of two has undefined skewness; those columns were imputed.
	assert.Positive(t, report.SkewImputed)
	for _, row := range table.Rows {
		for i, c := range table.Columns {
			if !math.IsNaN(row.Values[i]) {
				continue
			}
			t.Fatalf("row %s column %s is NaN in a complete table", row.GameID, c)
		}
	}

	// Rest columns: every game is two days after the previous one, except
	// each entity's debut.
	restIdx := table.ColumnIndex("home_team_rest")
	require.GreaterOrEqual(t, restIdx, 0)
	assert.Equal(t, 2.0, table.Rows[0].Values[restIdx])
}

func TestBuildDeterministicUnderShuffle(t *testing.T) {
	games, teams, goalies := seasonFixture(6)

	first, _, err := Build(testConfig(), games, teams, goalies)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	rng.Shuffle(len(games), func(i, j int) { games[i], games[j] = games[j], games[i] })
	rng.Shuffle(len(teams), func(i, j int) { teams[i], teams[j] = teams[j], teams[i] })

	second, _, err := Build(testConfig(), games, teams, goalies)
	require.NoError(t, err)

	assert.Equal(t, first.Columns, second.Columns)
	require.Len(t, second.Rows, len(first.Rows))
	for i := range first.Rows {
		assert.Equal(t, first.Rows[i].GameID, second.Rows[i].GameID)
		assert.Equal(t, first.Rows[i].Values, second.Rows[i].Values)
	}
}

func TestBuildIdempotent(t *testing.T) {
	games, teams, goalies := seasonFixture(5)

	first, reportA, err := Build(testConfig(), games, teams, goalies)
	require.NoError(t, err)
	second, reportB, err := Build(testConfig(), games, teams, goalies)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, reportA, reportB)
}

func TestBuildCausality(t *testing.T) {
	games, teams, goalies := seasonFixture(5)

	before, _, err := Build(testConfig(), games, teams, goalies)
	require.NoError(t, err)

	// Inflate the final game's own box score. Its pregame feature row must
	// not move: features see prior games only.
	for i := range teams {
		if teams[i].GameID == "g004" {
			teams[i].Goals = 99
			teams[i].Shots = 99
		}
	}

	after, _, err := Build(testConfig(), games, teams, goalies)
	require.NoError(t, err)

	lastBefore := before.Rows[len(before.Rows)-1]
	lastAfter := after.Rows[len(after.Rows)-1]
	require.Equal(t, "g004", lastBefore.GameID)
	assert.Equal(t, lastBefore.Values, lastAfter.Values, "a game's own stats must not leak into its own features")
}

func TestBuildPredictionDay(t *testing.T) {
	games, teams, goalies := seasonFixture(4)

	// A scheduled game with no observations yet.
	games = append(games, models.Game{
		GameID:   "g999",
		Date:     day(10),
		HomeTeam: "BOS",
		AwayTeam: "BUF",

		HomeGoalieID: "h1", HomeGoalieName: "Home Goalie",
		AwayGoalieID: "a1", AwayGoalieName: "Away Goalie",
	})

	cfg := testConfig()
	cfg.DropIncomplete = false

	table, _, err := Build(cfg, games, teams, goalies)
	require.NoError(t, err)

	var pending *models.FeatureRow
	for i := range table.Rows {
		if table.Rows[i].GameID == "g999" {
			pending = &table.Rows[i]
		}
	}
	require.NotNil(t, pending, "the scheduled game gets a feature row")
	assert.False(t, pending.HomeWin.Valid)

	// Its pregame averages come from completed history.
	avgIdx := table.ColumnIndex("teams_" + RollingName("goals", 2, "avg"))
	require.GreaterOrEqual(t, avgIdx, 0)
	assert.False(t, math.IsNaN(pending.Values[avgIdx]))

	// Goalie rest sees the upcoming appearance: four days since the last
	// completed game.
	restIdx := table.ColumnIndex("home_goalie_rest")
	require.GreaterOrEqual(t, restIdx, 0)
	assert.Equal(t, 4.0, pending.Values[restIdx])
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.TeamWindows = nil
	_, _, err := Build(cfg, nil, nil, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.DedupPolicy = "middle"
	_, _, err = Build(cfg, nil, nil, nil)
	assert.Error(t, err)
}

package features

import (
	"database/sql"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhl_wp/pipeline/internal/models"
)

// homeSeries builds n consecutive games with BOS at home, outcomes from wins.
func homeSeries(wins []bool) []models.Game {
	games := make([]models.Game, len(wins))
	for i, w := range wins {
		games[i] = models.Game{
			GameID:   fmt.Sprintf("g%03d", i),
			Date:     day(i),
			HomeTeam: "BOS",
			AwayTeam: "BUF",
			HomeWin:  sql.NullBool{Bool: w, Valid: true},
		}
	}
	return games
}

func TestRollingWinPct(t *testing.T) {
	// Three wins then a loss, window of three.
	games := homeSeries([]bool{true, true, true, false})

	table := RollingWinPct(games, []int{3})
	require.Equal(t, []string{"home_win_percent_3_avg", "away_win_percent_3_avg"}, table.Cols)

	// First three home games lack a full trailing window.
	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(table.ByGame[games[i].GameID][0]), "game %d", i)
	}

	// Fourth game sees the three preceding wins and not its own loss.
	assert.InDelta(t, 1.0, table.ByGame["g003"][0], 1e-9)

	// BUF's away column mirrors: three losses before the fourth game.
	assert.InDelta(t, 0.0, table.ByGame["g003"][1], 1e-9)
}

func TestRollingWinPctAwayPerspective(t *testing.T) {
	// A home loss is an away win for the visiting team.
	games := homeSeries([]bool{false, false, true})

	table := RollingWinPct(games, []int{2})

	// By game three BUF has two away wins behind it.
	assert.InDelta(t, 1.0, table.ByGame["g002"][1], 1e-9)
	assert.InDelta(t, 0.0, table.ByGame["g002"][0], 1e-9)
}

func TestRollingWinPctRolesAreSeparate(t *testing.T) {
	// BOS alternates home and away; its home window must only count home
	// appearances.
	games := []models.Game{
		{GameID: "g0", Date: day(0), HomeTeam: "BOS", AwayTeam: "BUF", HomeWin: sql.NullBool{Bool: true, Valid: true}},
		{GameID: "g1", Date: day(1), HomeTeam: "BUF", AwayTeam: "BOS", HomeWin: sql.NullBool{Bool: true, Valid: true}},
		{GameID: "g2", Date: day(2), HomeTeam: "BOS", AwayTeam: "BUF", HomeWin: sql.NullBool{Bool: false, Valid: true}},
		{GameID: "g3", Date: day(3), HomeTeam: "BOS", AwayTeam: "BUF", HomeWin: sql.NullBool{Bool: true, Valid: true}},
	}

	table := RollingWinPct(games, []int{2})

	// BOS home appearances: g0 (win), g2 (loss), g3. The away loss at g1
	// never enters the home window.
	assert.InDelta(t, 0.5, table.ByGame["g3"][0], 1e-9)
}

func TestRollingWinPctPendingGameExcluded(t *testing.T) {
	games := homeSeries([]bool{true, true})
	// Third game has no outcome yet; its own trailing window still fills
	// from completed history.
	games = append(games, models.Game{
		GameID: "g999", Date: day(2), HomeTeam: "BOS", AwayTeam: "BUF",
	})

	table := RollingWinPct(games, []int{2})

	assert.InDelta(t, 1.0, table.ByGame["g999"][0], 1e-9, "pending game gets a pregame win rate")
}

func TestRollingWinPctPendingGamePoisonsLaterWindows(t *testing.T) {
	games := homeSeries([]bool{true, true})
	games[0].HomeWin = sql.NullBool{} // unknown outcome
	games = append(games, models.Game{
		GameID: "g999", Date: day(2), HomeTeam: "BOS", AwayTeam: "BUF",
		HomeWin: sql.NullBool{Bool: true, Valid: true},
	})

	table := RollingWinPct(games, []int{2})

	assert.True(t, math.IsNaN(table.ByGame["g999"][0]), "a window containing an unknown outcome is undefined")
}

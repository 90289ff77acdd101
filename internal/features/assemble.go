package features

import (
	"math"
	"strings"

	"nhl_wp/pipeline/internal/models"
)

// Report summarizes data quality for one pipeline run so operators can judge
// whether drops come from ordinary cold starts or from upstream data loss.
// Missing data is never an error in this pipeline; it is counted here.
type Report struct {
	GamesIn          int
	RowsEmitted      int
	RowsDropped      int
	ZeroDenominators int
	SkewImputed      int
}

// assembleInput bundles the per-game tables merged into the final rows.
type assembleInput struct {
	games      []models.Game
	teamDiff   *GameTable
	goalieDiff *GameTable
	goalieRest map[RestKey]float64
	teamRest   map[RestKey]float64
	winPct     *GameTable
}

// restColumns in output order: goalie rest then team rest, home before away.
var restColumns = []string{
	"home_goalie_rest",
	"away_goalie_rest",
	"home_team_rest",
	"away_team_rest",
}

// assemble merges everything into one row per game. Column order is fixed:
// team diffs, goalie diffs, rest days, rolling win percentages. Skew columns
// are imputed to zero when missing; if any other feature is still missing
// after that, the row is dropped (insufficient history) unless
// dropIncomplete is off, as on a prediction-day run where pending games are
// wanted regardless.
func assemble(in assembleInput, dropIncomplete bool, report *Report) *models.FeatureTable {
	cols := make([]string, 0,
		len(in.teamDiff.Cols)+len(in.goalieDiff.Cols)+len(restColumns)+len(in.winPct.Cols))
	cols = append(cols, in.teamDiff.Cols...)
	cols = append(cols, in.goalieDiff.Cols...)
	cols = append(cols, restColumns...)
	cols = append(cols, in.winPct.Cols...)

	skewCol := make([]bool, len(cols))
	for i, c := range cols {
		skewCol[i] = strings.HasSuffix(c, "_skew")
	}

	table := &models.FeatureTable{Columns: cols}
	report.GamesIn = len(in.games)

	for _, g := range in.games {
		values := make([]float64, 0, len(cols))
		values = appendTable(values, in.teamDiff, g.GameID)
		values = appendTable(values, in.goalieDiff, g.GameID)
		values = append(values,
			restLookup(in.goalieRest, g.GameID, g.HomeGoalieID),
			restLookup(in.goalieRest, g.GameID, g.AwayGoalieID),
			restLookup(in.teamRest, g.GameID, g.HomeTeam),
			restLookup(in.teamRest, g.GameID, g.AwayTeam),
		)
		values = appendTable(values, in.winPct, g.GameID)

		complete := true
		for i, v := range values {
			if !math.IsNaN(v) {
				continue
			}
			if skewCol[i] {
				values[i] = 0
				report.SkewImputed++
				continue
			}
			complete = false
		}

		if !complete && dropIncomplete {
			report.RowsDropped++
			continue
		}

		table.Rows = append(table.Rows, models.FeatureRow{
			GameID:   g.GameID,
			Date:     g.Date,
			HomeTeam: g.HomeTeam,
			AwayTeam: g.AwayTeam,
			HomeWin:  g.HomeWin,
			Values:   values,
		})
		report.RowsEmitted++
	}
	return table
}

func appendTable(values []float64, t *GameTable, gameID string) []float64 {
	if row, ok := t.ByGame[gameID]; ok {
		return append(values, row...)
	}
	for range t.Cols {
		values = append(values, math.NaN())
	}
	return values
}

func restLookup(rest map[RestKey]float64, gameID, entity string) float64 {
	if entity == "" {
		return math.NaN()
	}
	if v, ok := rest[RestKey{GameID: gameID, Entity: entity}]; ok {
		return v
	}
	return math.NaN()
}

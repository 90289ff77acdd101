package features

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"nhl_wp/pipeline/internal/models"
)

// WinPctName is the deterministic column name for a rolling win-percentage
// feature. role is "home" or "away".
func WinPctName(role string, window int) string {
	return role + "_win_percent_" + strconv.Itoa(window) + "_avg"
}

// RollingWinPct computes trailing win rates per team and window, tracked
// separately for a team's home appearances and its away appearances: home
// and away performance differ systematically, so the two roles are never
// pooled. Each value is shifted by one within the team's role sequence so
// the game's own result is excluded.
func RollingWinPct(games []models.Game, windows []int) *GameTable {
	cols := make([]string, 0, 2*len(windows))
	for _, w := range windows {
		cols = append(cols, WinPctName("home", w), WinPctName("away", w))
	}

	t := &GameTable{Cols: cols, ByGame: make(map[string][]float64, len(games))}
	for _, g := range games {
		vals := make([]float64, len(cols))
		for i := range vals {
			vals[i] = math.NaN()
		}
		t.ByGame[g.GameID] = vals
	}

	for wi, w := range windows {
		fillRoleWinPct(t, games, w, 2*wi, true)
		fillRoleWinPct(t, games, w, 2*wi+1, false)
	}
	return t
}

// fillRoleWinPct fills one (window, role) column. The won indicator is from
// the tracked team's perspective: for away appearances a home-team loss
// counts as a win.
func fillRoleWinPct(t *GameTable, games []models.Game, window, colIdx int, homeRole bool) {
	byTeam := make(map[string][]int)
	for i, g := range games {
		team := g.AwayTeam
		if homeRole {
			team = g.HomeTeam
		}
		byTeam[team] = append(byTeam[team], i)
	}

	teams := make([]string, 0, len(byTeam))
	for team := range byTeam {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	for _, team := range teams {
		idx := byTeam[team]
		sort.Slice(idx, func(a, b int) bool {
			ga, gb := games[idx[a]], games[idx[b]]
			if !ga.Date.Equal(gb.Date) {
				return ga.Date.Before(gb.Date)
			}
			return ga.GameID < gb.GameID
		})

		won := make([]float64, len(idx))
		for p, gi := range idx {
			g := games[gi]
			switch {
			case !g.HomeWin.Valid:
				won[p] = math.NaN()
			case g.HomeWin.Bool == homeRole:
				won[p] = 1
			default:
				won[p] = 0
			}
		}

		// Trailing mean over the previous `window` appearances, excluding
		// the current one (shift-by-one within the role sequence).
		for p, gi := range idx {
			if p < window {
				continue
			}
			vals := won[p-window : p]
			if hasNaN(vals) {
				continue
			}
			t.ByGame[games[gi].GameID][colIdx] = stat.Mean(vals, nil)
		}
	}
}

func hasNaN(vals []float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

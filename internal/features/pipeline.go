package features

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"nhl_wp/pipeline/internal/models"
)

// Config is the feature-engineering surface: window lengths per entity kind,
// the stat columns eligible for rolling computation (fixed by the frame
// builders), rest ceilings and the tie-break policies that used to be
// implicit in the source ordering.
type Config struct {
	TeamWindows   []int
	GoalieWindows []int
	WinPctWindows []int

	GoalieRestCeiling float64
	TeamRestCeiling   float64

	DedupPolicy  string
	DiffZeroFill bool

	// DropIncomplete removes rows whose rolling history cannot fill every
	// configured window. Off for prediction-day runs, where a pending game
	// is wanted even if one window is still cold.
	DropIncomplete bool
}

// DefaultConfig mirrors the production windows: team windows from roughly a
// twentieth of a season up to a full 82-game season.
func DefaultConfig() Config {
	return Config{
		TeamWindows:       []int{3, 7, 14, 41, 82},
		GoalieWindows:     []int{3, 7, 14, 41, 82},
		WinPctWindows:     []int{10, 20, 41, 82},
		GoalieRestCeiling: 30,
		TeamRestCeiling:   7,
		DedupPolicy:       DedupKeepLast,
		DiffZeroFill:      true,
		DropIncomplete:    true,
	}
}

// Validate rejects configurations the engine cannot honor.
func (c Config) Validate() error {
	for _, set := range [][]int{c.TeamWindows, c.GoalieWindows, c.WinPctWindows} {
		if len(set) == 0 {
			return fmt.Errorf("at least one window length is required")
		}
		for _, w := range set {
			if w < 1 {
				return fmt.Errorf("invalid window length %d", w)
			}
		}
	}
	if c.GoalieRestCeiling <= 0 || c.TeamRestCeiling <= 0 {
		return fmt.Errorf("rest ceilings must be positive")
	}
	if c.DedupPolicy != DedupKeepLast && c.DedupPolicy != DedupKeepFirst {
		return fmt.Errorf("unknown goalie dedup policy %q", c.DedupPolicy)
	}
	return nil
}

// Build runs the full pipeline over an observation set and produces the
// model-ready feature table plus a quality report. It is pure with respect
// to its inputs and deterministic: the same observations always produce a
// byte-identical table, whatever order they arrive in.
//
// Games that have no team observations yet (a prediction-day schedule) get
// placeholder observations so that the shift discipline attaches their
// pregame features from completed history.
func Build(cfg Config, games []models.Game, teams []models.TeamGame, goalies []models.GoalieGame) (*models.FeatureTable, *Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	report := &Report{}

	games = sortedGames(games)

	// Derived stats come from completed observations only; placeholder rows
	// for pending games are appended afterwards.
	derived, zeroDenoms := DerivedTeamStats(goalies)
	report.ZeroDenominators = zeroDenoms
	for _, t := range teams {
		if !math.IsNaN(t.Shots) && t.Shots == 0 {
			report.ZeroDenominators++
		}
	}

	teams, goalies = withPending(games, teams, goalies)

	teamRolled := ShiftPregame(Rolling(TeamFrame(teams, derived), cfg.TeamWindows))
	goalieRolled := ShiftPregame(Rolling(GoalieFrame(goalies), cfg.GoalieWindows))
	goalieRolled = DedupPerSide(goalieRolled, cfg.DedupPolicy)

	table := assemble(assembleInput{
		games:      games,
		teamDiff:   Diff(teamRolled, "teams", cfg.DiffZeroFill),
		goalieDiff: Diff(goalieRolled, "goalies", cfg.DiffZeroFill),
		goalieRest: RestDays(goalieAppearances(goalies), cfg.GoalieRestCeiling),
		teamRest:   RestDays(teamAppearances(teams), cfg.TeamRestCeiling),
		winPct:     RollingWinPct(games, cfg.WinPctWindows),
	}, cfg.DropIncomplete, report)

	log.Info().
		Int("games", report.GamesIn).
		Int("rows", report.RowsEmitted).
		Int("dropped_insufficient_history", report.RowsDropped).
		Int("zero_denominators", report.ZeroDenominators).
		Dur("took", time.Since(start)).
		Msg("Feature table built")

	return table, report, nil
}

// sortedGames returns a date-ordered copy, game id as tie-break.
func sortedGames(games []models.Game) []models.Game {
	out := make([]models.Game, len(games))
	copy(out, games)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].GameID < out[j].GameID
	})
	return out
}

// withPending appends placeholder observations for games that have no team
// rows yet. Their stats are all missing; only identity, date and side
// matter, so the rolling shift lands each pregame feature on them and the
// rest calculator sees the upcoming appearance.
func withPending(games []models.Game, teams []models.TeamGame, goalies []models.GoalieGame) ([]models.TeamGame, []models.GoalieGame) {
	seen := make(map[string]bool, len(teams))
	for _, t := range teams {
		seen[t.GameID] = true
	}

	for _, g := range games {
		if seen[g.GameID] {
			continue
		}
		teams = append(teams,
			pendingTeamGame(g, g.HomeTeam, true),
			pendingTeamGame(g, g.AwayTeam, false),
		)
		if g.HomeGoalieID != "" {
			goalies = append(goalies, pendingGoalieGame(g, g.HomeGoalieID, g.HomeGoalieName, true))
		}
		if g.AwayGoalieID != "" {
			goalies = append(goalies, pendingGoalieGame(g, g.AwayGoalieID, g.AwayGoalieName, false))
		}
	}
	return teams, goalies
}

func pendingTeamGame(g models.Game, team string, isHome bool) models.TeamGame {
	nan := math.NaN()
	return models.TeamGame{
		GameID: g.GameID,
		Date:   g.Date,
		Team:   team,
		IsHome: isHome,

		Goals:                  nan,
		PIM:                    nan,
		Shots:                  nan,
		PowerPlayPercentage:    nan,
		PowerPlayGoals:         nan,
		PowerPlayOpportunities: nan,
		FaceOffWinPercentage:   nan,
		Blocked:                nan,
		Takeaways:              nan,
		Giveaways:              nan,
		Hits:                   nan,
	}
}

func pendingGoalieGame(g models.Game, goalieID, goalieName string, isHome bool) models.GoalieGame {
	nan := math.NaN()
	team := g.AwayTeam
	if isHome {
		team = g.HomeTeam
	}
	return models.GoalieGame{
		GameID:     g.GameID,
		Date:       g.Date,
		Team:       team,
		IsHome:     isHome,
		GoalieID:   goalieID,
		GoalieName: goalieName,

		TimeOnIce:                  nan,
		Shots:                      nan,
		Saves:                      nan,
		PowerPlaySaves:             nan,
		ShortHandedSaves:           nan,
		EvenSaves:                  nan,
		ShortHandedShotsAgainst:    nan,
		EvenShotsAgainst:           nan,
		PowerPlayShotsAgainst:      nan,
		SavePercentage:             nan,
		EvenStrengthSavePercentage: nan,
	}
}

func teamAppearances(teams []models.TeamGame) []Appearance {
	apps := make([]Appearance, 0, len(teams))
	for i, t := range teams {
		apps = append(apps, Appearance{Entity: t.Team, GameID: t.GameID, Date: t.Date, Seq: i})
	}
	return apps
}

func goalieAppearances(goalies []models.GoalieGame) []Appearance {
	apps := make([]Appearance, 0, len(goalies))
	for i, g := range goalies {
		apps = append(apps, Appearance{Entity: g.GoalieID, GameID: g.GameID, Date: g.Date, Seq: i})
	}
	return apps
}

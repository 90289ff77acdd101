package features

import (
	"math"
	"sort"
	"time"

	"nhl_wp/pipeline/internal/models"
)

// Row is one (game, entity) observation inside a Frame. Entity is a team
// abbreviation or a goalie id depending on the frame kind. Seq is the
// ingestion order and breaks ties between same-date entries so that the
// position-based windowing always has a total order.
type Row struct {
	GameID string
	Date   time.Time
	Entity string
	IsHome bool
	Seq    int
	Values []float64
}

// Frame is a column-ordered set of observation rows. Cols is fixed at
// construction; Values in every row aligns with it.
type Frame struct {
	Cols []string
	Rows []Row
}

// GameTable holds per-game feature vectors keyed by game id, used for the
// differenced and win-percentage outputs that have one row per game.
type GameTable struct {
	Cols   []string
	ByGame map[string][]float64
}

// Team stat columns eligible for rolling computation, in output order. The
// five derived columns are appended by the derived-stat calculator.
var TeamStatColumns = []string{
	"goals",
	"pim",
	"shots",
	"powerPlayPercentage",
	"powerPlayGoals",
	"powerPlayOpportunities",
	"faceOffWinPercentage",
	"blocked",
	"takeaways",
	"giveaways",
	"hits",
	"shootingPercent",
	"pdo",
	"evenStrengthGoals",
	"evenStrengthShots",
	"evenStrengthShootingPercent",
}

// Goalie stat columns eligible for rolling computation. Identifiers, names
// and the decision string are non-numeric and never enter a frame.
var GoalieStatColumns = []string{
	"timeOnIce",
	"shots",
	"saves",
	"powerPlaySaves",
	"shortHandedSaves",
	"evenSaves",
	"shortHandedShotsAgainst",
	"evenShotsAgainst",
	"powerPlayShotsAgainst",
	"savePercentage",
	"evenStrengthSavePercentage",
}

// TeamFrame builds the team observation frame. The derived map carries the
// per-(game, side) derived stats; a team row with no derived entry gets NaN
// for those columns.
func TeamFrame(teams []models.TeamGame, derived map[GameSide]TeamDerived) *Frame {
	f := &Frame{Cols: TeamStatColumns}
	for i, t := range teams {
		d, ok := derived[GameSide{GameID: t.GameID, IsHome: t.IsHome}]
		if !ok {
			d = TeamDerived{
				Pdo:                         math.NaN(),
				EvenStrengthGoals:           math.NaN(),
				EvenStrengthShots:           math.NaN(),
				EvenStrengthShootingPercent: math.NaN(),
			}
		}
		f.Rows = append(f.Rows, Row{
			GameID: t.GameID,
			Date:   t.Date,
			Entity: t.Team,
			IsHome: t.IsHome,
			Seq:    i,
			Values: []float64{
				t.Goals,
				t.PIM,
				t.Shots,
				t.PowerPlayPercentage,
				t.PowerPlayGoals,
				t.PowerPlayOpportunities,
				t.FaceOffWinPercentage,
				t.Blocked,
				t.Takeaways,
				t.Giveaways,
				t.Hits,
				shootingPercent(t.Goals, t.Shots),
				d.Pdo,
				d.EvenStrengthGoals,
				d.EvenStrengthShots,
				d.EvenStrengthShootingPercent,
			},
		})
	}
	return f
}

// GoalieFrame builds the goalie observation frame, keyed by goalie id.
func GoalieFrame(goalies []models.GoalieGame) *Frame {
	f := &Frame{Cols: GoalieStatColumns}
	for i, g := range goalies {
		f.Rows = append(f.Rows, Row{
			GameID: g.GameID,
			Date:   g.Date,
			Entity: g.GoalieID,
			IsHome: g.IsHome,
			Seq:    i,
			Values: []float64{
				g.TimeOnIce,
				g.Shots,
				g.Saves,
				g.PowerPlaySaves,
				g.ShortHandedSaves,
				g.EvenSaves,
				g.ShortHandedShotsAgainst,
				g.EvenShotsAgainst,
				g.PowerPlayShotsAgainst,
				g.SavePercentage,
				g.EvenStrengthSavePercentage,
			},
		})
	}
	return f
}

// group is the index of one entity's rows, in strict chronological order.
type group struct {
	entity string
	rows   []int
}

// groups partitions the frame by entity. Entities come back in sorted order
// and rows within an entity are sorted by (date, seq), which keeps every
// downstream computation independent of ingestion shuffling.
func (f *Frame) groups() []group {
	byEntity := make(map[string][]int)
	for i, r := range f.Rows {
		byEntity[r.Entity] = append(byEntity[r.Entity], i)
	}

	entities := make([]string, 0, len(byEntity))
	for e := range byEntity {
		entities = append(entities, e)
	}
	sort.Strings(entities)

	out := make([]group, 0, len(entities))
	for _, e := range entities {
		rows := byEntity[e]
		sort.Slice(rows, func(a, b int) bool {
			ra, rb := f.Rows[rows[a]], f.Rows[rows[b]]
			if !ra.Date.Equal(rb.Date) {
				return ra.Date.Before(rb.Date)
			}
			return ra.Seq < rb.Seq
		})
		out = append(out, group{entity: e, rows: rows})
	}
	return out
}

package models

import (
	"database/sql"
	"time"
)

// TeamGame represents one team's box score for one NHL game. A completed
// game always has exactly two of these, one home and one away, sharing the
// same game id and date.
//
// Stat fields are float64 with NaN standing in for "not recorded" so that
// downstream rolling arithmetic can propagate missingness without special
// casing. The repository maps NaN to NULL on write.
type TeamGame struct {
	ID      int          `db:"id"`
	GameID  string       `db:"game_id"`
	Date    time.Time    `db:"game_date"`
	Team    string       `db:"team"`
	IsHome  bool         `db:"is_home_team"`
	HomeWin sql.NullBool `db:"home_team_win"`

	Goals                  float64 `db:"goals"`
	PIM                    float64 `db:"pim"`
	Shots                  float64 `db:"shots"`
	PowerPlayPercentage    float64 `db:"power_play_percentage"`
	PowerPlayGoals         float64 `db:"power_play_goals"`
	PowerPlayOpportunities float64 `db:"power_play_opportunities"`
	FaceOffWinPercentage   float64 `db:"face_off_win_percentage"`
	Blocked                float64 `db:"blocked"`
	Takeaways              float64 `db:"takeaways"`
	Giveaways              float64 `db:"giveaways"`
	Hits                   float64 `db:"hits"`

	StartingGoalieID   string `db:"starting_goalie_id"`
	StartingGoalieName string `db:"starting_goalie_name"`

	CreatedAt time.Time `db:"created_at"`
}

// TeamGameInput is the provider-native shape of a team box score. The
// statsapi live feed delivers the two percentage stats as strings and may
// omit any stat entirely, so all stat fields are optional here.
type TeamGameInput struct {
	GameID   string `json:"gamePk"`
	DateTime string `json:"dateTime"` // ISO 8601
	Team     string `json:"team"`
	IsHome   bool   `json:"isHomeTeam"`
	HomeWin  *bool  `json:"homeTeamWin,omitempty"`

	Goals                  *float64 `json:"goals,omitempty"`
	PIM                    *float64 `json:"pim,omitempty"`
	Shots                  *float64 `json:"shots,omitempty"`
	PowerPlayPercentage    string   `json:"powerPlayPercentage"`
	PowerPlayGoals         *float64 `json:"powerPlayGoals,omitempty"`
	PowerPlayOpportunities *float64 `json:"powerPlayOpportunities,omitempty"`
	FaceOffWinPercentage   string   `json:"faceOffWinPercentage"`
	Blocked                *float64 `json:"blocked,omitempty"`
	Takeaways              *float64 `json:"takeaways,omitempty"`
	Giveaways              *float64 `json:"giveaways,omitempty"`
	Hits                   *float64 `json:"hits,omitempty"`

	StartingGoalieID   string `json:"startingGoalieId"`
	StartingGoalieName string `json:"startingGoalieName"`
}

// ToTeamGame converts the provider payload to the normalized model. Missing
// stats become NaN; a missing join key (game id, date, team) is a hard
// MalformedObservation error that excludes the record.
func (ti *TeamGameInput) ToTeamGame() (*TeamGame, error) {
	date, err := RequireKeys(ti.GameID, ti.DateTime, ti.Team)
	if err != nil {
		return nil, err
	}

	tg := &TeamGame{
		GameID: ti.GameID,
		Date:   date,
		Team:   ti.Team,
		IsHome: ti.IsHome,

		Goals:                  FloatOrNaN(ti.Goals),
		PIM:                    FloatOrNaN(ti.PIM),
		Shots:                  FloatOrNaN(ti.Shots),
		PowerPlayPercentage:    ParsePercent(ti.PowerPlayPercentage),
		PowerPlayGoals:         FloatOrNaN(ti.PowerPlayGoals),
		PowerPlayOpportunities: FloatOrNaN(ti.PowerPlayOpportunities),
		FaceOffWinPercentage:   ParsePercent(ti.FaceOffWinPercentage),
		Blocked:                FloatOrNaN(ti.Blocked),
		Takeaways:              FloatOrNaN(ti.Takeaways),
		Giveaways:              FloatOrNaN(ti.Giveaways),
		Hits:                   FloatOrNaN(ti.Hits),

		StartingGoalieID:   ti.StartingGoalieID,
		StartingGoalieName: ti.StartingGoalieName,
	}

	if ti.HomeWin != nil {
		tg.HomeWin = sql.NullBool{Bool: *ti.HomeWin, Valid: true}
	}

	return tg, nil
}

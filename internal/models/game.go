package models

import (
	"database/sql"
	"time"
)

// Game represents one NHL game outcome row. It is produced independently of
// the team and goalie observations but keys against them by game id.
type Game struct {
	ID     int       `db:"id"`
	GameID string    `db:"game_id"`
	Date   time.Time `db:"game_date"`

	HomeTeam string `db:"home_team"`
	AwayTeam string `db:"away_team"`

	// HomeWin is null until the game is final.
	HomeWin sql.NullBool `db:"home_team_win"`

	HomeGoalieID   string `db:"home_goalie_id"`
	HomeGoalieName string `db:"home_goalie_name"`
	AwayGoalieID   string `db:"away_goalie_id"`
	AwayGoalieName string `db:"away_goalie_name"`

	CreatedAt time.Time `db:"created_at"`
}

// GameInput is the provider-native game header.
type GameInput struct {
	GameID   string `json:"gamePk"`
	DateTime string `json:"dateTime"`

	HomeTeam string `json:"homeTeam"`
	AwayTeam string `json:"awayTeam"`
	HomeWin  *bool  `json:"homeTeamWin,omitempty"`

	HomeGoalieID   string `json:"homeGoalieId"`
	HomeGoalieName string `json:"homeGoalieName"`
	AwayGoalieID   string `json:"awayGoalieId"`
	AwayGoalieName string `json:"awayGoalieName"`
}

// ToGame converts the provider payload to the normalized model.
func (gi *GameInput) ToGame() (*Game, error) {
	date, err := RequireKeys(gi.GameID, gi.DateTime, gi.HomeTeam)
	if err != nil {
		return nil, err
	}
	if gi.AwayTeam == "" {
		return nil, ErrMalformedObservation
	}

	g := &Game{
		GameID:         gi.GameID,
		Date:           date,
		HomeTeam:       gi.HomeTeam,
		AwayTeam:       gi.AwayTeam,
		HomeGoalieID:   gi.HomeGoalieID,
		HomeGoalieName: gi.HomeGoalieName,
		AwayGoalieID:   gi.AwayGoalieID,
		AwayGoalieName: gi.AwayGoalieName,
	}
	if gi.HomeWin != nil {
		g.HomeWin = sql.NullBool{Bool: *gi.HomeWin, Valid: true}
	}
	return g, nil
}

// IsFinal reports whether the outcome is known.
func (g *Game) IsFinal() bool {
	return g.HomeWin.Valid
}

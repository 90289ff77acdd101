package models

import (
	"time"
)

// GoalieGame represents one goalie's line for one game. A team usually has a
// single goalie per game but relief appearances produce more than one row.
// Seq preserves the provider's list order within the game feed: the feed
// lists the goalie who finished the game first and the starter last, so
// ordering is meaningful and must survive ingestion.
type GoalieGame struct {
	ID     int       `db:"id"`
	GameID string    `db:"game_id"`
	Date   time.Time `db:"game_date"`
	Team   string    `db:"team"`
	IsHome bool      `db:"is_home_team"`

	GoalieID   string `db:"goalie_id"`
	GoalieName string `db:"goalie_name"`
	Seq        int    `db:"feed_seq"`

	TimeOnIce                  float64 `db:"time_on_ice"` // minutes
	Shots                      float64 `db:"shots"`
	Saves                      float64 `db:"saves"`
	PowerPlaySaves             float64 `db:"power_play_saves"`
	ShortHandedSaves           float64 `db:"short_handed_saves"`
	EvenSaves                  float64 `db:"even_saves"`
	ShortHandedShotsAgainst    float64 `db:"short_handed_shots_against"`
	EvenShotsAgainst           float64 `db:"even_shots_against"`
	PowerPlayShotsAgainst      float64 `db:"power_play_shots_against"`
	SavePercentage             float64 `db:"save_percentage"`
	EvenStrengthSavePercentage float64 `db:"even_strength_save_percentage"`

	// Decision is "W", "L" or empty. Non-numeric, so excluded from rolling
	// computation.
	Decision string `db:"decision"`

	CreatedAt time.Time `db:"created_at"`
}

// GoalieGameInput is the provider-native goalie line. TimeOnIce arrives as an
// "MM:SS" clock string; a goalie who dressed but recorded nothing can have
// every stat absent.
type GoalieGameInput struct {
	GameID   string `json:"gamePk"`
	DateTime string `json:"dateTime"`
	Team     string `json:"team"`
	IsHome   bool   `json:"isHomeTeam"`

	GoalieID   string `json:"goalieId"`
	GoalieName string `json:"goalieName"`

	TimeOnIce                  string   `json:"timeOnIce"`
	Shots                      *float64 `json:"shots,omitempty"`
	Saves                      *float64 `json:"saves,omitempty"`
	PowerPlaySaves             *float64 `json:"powerPlaySaves,omitempty"`
	ShortHandedSaves           *float64 `json:"shortHandedSaves,omitempty"`
	EvenSaves                  *float64 `json:"evenSaves,omitempty"`
	ShortHandedShotsAgainst    *float64 `json:"shortHandedShotsAgainst,omitempty"`
	EvenShotsAgainst           *float64 `json:"evenShotsAgainst,omitempty"`
	PowerPlayShotsAgainst      *float64 `json:"powerPlayShotsAgainst,omitempty"`
	SavePercentage             *float64 `json:"savePercentage,omitempty"`
	EvenStrengthSavePercentage *float64 `json:"evenStrengthSavePercentage,omitempty"`
	Decision                   string   `json:"decision"`
}

// ToGoalieGame converts the provider payload to the normalized model. The
// seq argument is the goalie's position in the provider's list for the game.
func (gi *GoalieGameInput) ToGoalieGame(seq int) (*GoalieGame, error) {
	date, err := RequireKeys(gi.GameID, gi.DateTime, gi.GoalieID)
	if err != nil {
		return nil, err
	}

	return &GoalieGame{
		GameID:     gi.GameID,
		Date:       date,
		Team:       gi.Team,
		IsHome:     gi.IsHome,
		GoalieID:   gi.GoalieID,
		GoalieName: gi.GoalieName,
		Seq:        seq,

		TimeOnIce:                  ParseClockMinutes(gi.TimeOnIce),
		Shots:                      FloatOrNaN(gi.Shots),
		Saves:                      FloatOrNaN(gi.Saves),
		PowerPlaySaves:             FloatOrNaN(gi.PowerPlaySaves),
		ShortHandedSaves:           FloatOrNaN(gi.ShortHandedSaves),
		EvenSaves:                  FloatOrNaN(gi.EvenSaves),
		ShortHandedShotsAgainst:    FloatOrNaN(gi.ShortHandedShotsAgainst),
		EvenShotsAgainst:           FloatOrNaN(gi.EvenShotsAgainst),
		PowerPlayShotsAgainst:      FloatOrNaN(gi.PowerPlayShotsAgainst),
		SavePercentage:             FloatOrNaN(gi.SavePercentage),
		EvenStrengthSavePercentage: FloatOrNaN(gi.EvenStrengthSavePercentage),
		Decision:                   gi.Decision,
	}, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"nhl_wp/pipeline/internal/models"

	"github.com/rs/zerolog/log"
)

// GoalieGameRepository handles goalie box-score database operations
type GoalieGameRepository struct {
	db *Database
}

// Upsert inserts or updates one goalie's line for one game
func (r *GoalieGameRepository) Upsert(ctx context.Context, gg *models.GoalieGame) error {
	query := `
		INSERT INTO goalie_games (
			game_id, game_date, team, is_home_team,
			goalie_id, goalie_name, feed_seq,
			time_on_ice, shots, saves,
			power_play_saves, short_handed_saves, even_saves,
			short_handed_shots_against, even_shots_against, power_play_shots_against,
			save_percentage, even_strength_save_percentage, decision
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (game_id, goalie_id) DO UPDATE SET
			game_date = EXCLUDED.game_date,
			team = EXCLUDED.team,
			is_home_team = EXCLUDED.is_home_team,
			goalie_name = EXCLUDED.goalie_name,
			feed_seq = EXCLUDED.feed_seq,
			time_on_ice = EXCLUDED.time_on_ice,
			shots = EXCLUDED.shots,
			saves = EXCLUDED.saves,
			power_play_saves = EXCLUDED.power_play_saves,
			short_handed_saves = EXCLUDED.short_handed_saves,
			even_saves = EXCLUDED.even_saves,
			short_handed_shots_against = EXCLUDED.short_handed_shots_against,
			even_shots_against = EXCLUDED.even_shots_against,
			power_play_shots_against = EXCLUDED.power_play_shots_against,
			save_percentage = EXCLUDED.save_percentage,
			even_strength_save_percentage = EXCLUDED.even_strength_save_percentage,
			decision = EXCLUDED.decision
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		gg.GameID, gg.Date, gg.Team, gg.IsHome,
		gg.GoalieID, gg.GoalieName, gg.Seq,
		nullFloat(gg.TimeOnIce), nullFloat(gg.Shots), nullFloat(gg.Saves),
		nullFloat(gg.PowerPlaySaves), nullFloat(gg.ShortHandedSaves), nullFloat(gg.EvenSaves),
		nullFloat(gg.ShortHandedShotsAgainst), nullFloat(gg.EvenShotsAgainst), nullFloat(gg.PowerPlayShotsAgainst),
		nullFloat(gg.SavePercentage), nullFloat(gg.EvenStrengthSavePercentage), gg.Decision,
	).Scan(&gg.ID, &gg.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert goalie game: %w", err)
	}

	log.Debug().
		Str("game_id", gg.GameID).
		Str("goalie_id", gg.GoalieID).
		Msg("Goalie game saved")

	return nil
}

// ListAll returns every goalie observation. Feed order within a game is
// preserved through feed_seq; downstream dedup depends on it.
func (r *GoalieGameRepository) ListAll(ctx context.Context) ([]models.GoalieGame, error) {
	query := `
		SELECT id, game_id, game_date, team, is_home_team,
			goalie_id, goalie_name, feed_seq,
			time_on_ice, shots, saves,
			power_play_saves, short_handed_saves, even_saves,
			short_handed_shots_against, even_shots_against, power_play_shots_against,
			save_percentage, even_strength_save_percentage, decision
		FROM goalie_games
		ORDER BY game_date, game_id, feed_seq, id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list goalie games: %w", err)
	}
	defer rows.Close()

	var out []models.GoalieGame
	seq := 0
	for rows.Next() {
		var gg models.GoalieGame
		var toi, shots, saves, ppSaves, shSaves, evSaves, shAgainst, evAgainst, ppAgainst, svPct, esSvPct sql.NullFloat64
		var feedSeq int

		err := rows.Scan(
			&gg.ID, &gg.GameID, &gg.Date, &gg.Team, &gg.IsHome,
			&gg.GoalieID, &gg.GoalieName, &feedSeq,
			&toi, &shots, &saves,
			&ppSaves, &shSaves, &evSaves,
			&shAgainst, &evAgainst, &ppAgainst,
			&svPct, &esSvPct, &gg.Decision,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goalie game: %w", err)
		}

		// Reassign a global ingestion sequence from the stable query order
		// so rebuilds over the same store stay byte-identical.
		gg.Seq = seq
		seq++

		gg.TimeOnIce = floatOrNaN(toi)
		gg.Shots = floatOrNaN(shots)
		gg.Saves = floatOrNaN(saves)
		gg.PowerPlaySaves = floatOrNaN(ppSaves)
		gg.ShortHandedSaves = floatOrNaN(shSaves)
		gg.EvenSaves = floatOrNaN(evSaves)
		gg.ShortHandedShotsAgainst = floatOrNaN(shAgainst)
		gg.EvenShotsAgainst = floatOrNaN(evAgainst)
		gg.PowerPlayShotsAgainst = floatOrNaN(ppAgainst)
		gg.SavePercentage = floatOrNaN(svPct)
		gg.EvenStrengthSavePercentage = floatOrNaN(esSvPct)

		out = append(out, gg)
	}

	return out, rows.Err()
}

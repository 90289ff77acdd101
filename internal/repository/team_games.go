package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"nhl_wp/pipeline/internal/models"

	"github.com/rs/zerolog/log"
)

// TeamGameRepository handles team box-score database operations
type TeamGameRepository struct {
	db *Database
}

// Upsert inserts or updates one team's box score for one game
func (r *TeamGameRepository) Upsert(ctx context.Context, tg *models.TeamGame) error {
	query := `
		INSERT INTO team_games (
			game_id, game_date, team, is_home_team, home_team_win,
			goals, pim, shots,
			power_play_percentage, power_play_goals, power_play_opportunities,
			face_off_win_percentage, blocked, takeaways, giveaways, hits,
			starting_goalie_id, starting_goalie_name
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (game_id, team) DO UPDATE SET
			game_date = EXCLUDED.game_date,
			is_home_team = EXCLUDED.is_home_team,
			home_team_win = EXCLUDED.home_team_win,
			goals = EXCLUDED.goals,
			pim = EXCLUDED.pim,
			shots = EXCLUDED.shots,
			power_play_percentage = EXCLUDED.power_play_percentage,
			power_play_goals = EXCLUDED.power_play_goals,
			power_play_opportunities = EXCLUDED.power_play_opportunities,
			face_off_win_percentage = EXCLUDED.face_off_win_percentage,
			blocked = EXCLUDED.blocked,
			takeaways = EXCLUDED.takeaways,
			giveaways = EXCLUDED.giveaways,
			hits = EXCLUDED.hits,
			starting_goalie_id = EXCLUDED.starting_goalie_id,
			starting_goalie_name = EXCLUDED.starting_goalie_name
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		tg.GameID, tg.Date, tg.Team, tg.IsHome, tg.HomeWin,
		nullFloat(tg.Goals), nullFloat(tg.PIM), nullFloat(tg.Shots),
		nullFloat(tg.PowerPlayPercentage), nullFloat(tg.PowerPlayGoals), nullFloat(tg.PowerPlayOpportunities),
		nullFloat(tg.FaceOffWinPercentage), nullFloat(tg.Blocked), nullFloat(tg.Takeaways),
		nullFloat(tg.Giveaways), nullFloat(tg.Hits),
		tg.StartingGoalieID, tg.StartingGoalieName,
	).Scan(&tg.ID, &tg.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert team game: %w", err)
	}

	log.Debug().
		Str("game_id", tg.GameID).
		Str("team", tg.Team).
		Msg("Team game saved")

	return nil
}

// ListAll returns every team observation in ingestion order
func (r *TeamGameRepository) ListAll(ctx context.Context) ([]models.TeamGame, error) {
	query := `
		SELECT id, game_id, game_date, team, is_home_team, home_team_win,
			goals, pim, shots,
			power_play_percentage, power_play_goals, power_play_opportunities,
			face_off_win_percentage, blocked, takeaways, giveaways, hits,
			starting_goalie_id, starting_goalie_name, created_at
		FROM team_games
		ORDER BY game_date, game_id, id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list team games: %w", err)
	}
	defer rows.Close()

	var out []models.TeamGame
	for rows.Next() {
		var tg models.TeamGame
		var goals, pim, shots, ppPct, ppGoals, ppOpps, foPct, blocked, take, give, hits sql.NullFloat64

		err := rows.Scan(
			&tg.ID, &tg.GameID, &tg.Date, &tg.Team, &tg.IsHome, &tg.HomeWin,
			&goals, &pim, &shots,
			&ppPct, &ppGoals, &ppOpps,
			&foPct, &blocked, &take, &give, &hits,
			&tg.StartingGoalieID, &tg.StartingGoalieName, &tg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team game: %w", err)
		}

		tg.Goals = floatOrNaN(goals)
		tg.PIM = floatOrNaN(pim)
		tg.Shots = floatOrNaN(shots)
		tg.PowerPlayPercentage = floatOrNaN(ppPct)
		tg.PowerPlayGoals = floatOrNaN(ppGoals)
		tg.PowerPlayOpportunities = floatOrNaN(ppOpps)
		tg.FaceOffWinPercentage = floatOrNaN(foPct)
		tg.Blocked = floatOrNaN(blocked)
		tg.Takeaways = floatOrNaN(take)
		tg.Giveaways = floatOrNaN(give)
		tg.Hits = floatOrNaN(hits)

		out = append(out, tg)
	}

	return out, rows.Err()
}

// nullFloat maps the pipeline's NaN missing marker to SQL NULL
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// floatOrNaN maps SQL NULL back to the pipeline's NaN missing marker
func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

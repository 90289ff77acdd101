package repository

import (
	"context"
	"errors"
	"fmt"

	"nhl_wp/pipeline/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// GameRepository handles game outcome database operations
type GameRepository struct {
	db *Database
}

// Upsert inserts or updates a game outcome row
func (r *GameRepository) Upsert(ctx context.Context, g *models.Game) error {
	query := `
		INSERT INTO games (
			game_id, game_date, home_team, away_team, home_team_win,
			home_goalie_id, home_goalie_name, away_goalie_id, away_goalie_name
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (game_id) DO UPDATE SET
			game_date = EXCLUDED.game_date,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			home_team_win = EXCLUDED.home_team_win,
			home_goalie_id = EXCLUDED.home_goalie_id,
			home_goalie_name = EXCLUDED.home_goalie_name,
			away_goalie_id = EXCLUDED.away_goalie_id,
			away_goalie_name = EXCLUDED.away_goalie_name
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		g.GameID, g.Date, g.HomeTeam, g.AwayTeam, g.HomeWin,
		g.HomeGoalieID, g.HomeGoalieName, g.AwayGoalieID, g.AwayGoalieName,
	).Scan(&g.ID, &g.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert game: %w", err)
	}

	log.Debug().
		Str("game_id", g.GameID).
		Str("home", g.HomeTeam).
		Str("away", g.AwayTeam).
		Msg("Game saved")

	return nil
}

// GetByGameID returns a single game by its provider game id
func (r *GameRepository) GetByGameID(ctx context.Context, gameID string) (*models.Game, error) {
	query := `
		SELECT id, game_id, game_date, home_team, away_team, home_team_win,
			home_goalie_id, home_goalie_name, away_goalie_id, away_goalie_name, created_at
		FROM games
		WHERE game_id = $1
	`

	var g models.Game
	err := r.db.Pool.QueryRow(ctx, query, gameID).Scan(
		&g.ID, &g.GameID, &g.Date, &g.HomeTeam, &g.AwayTeam, &g.HomeWin,
		&g.HomeGoalieID, &g.HomeGoalieName, &g.AwayGoalieID, &g.AwayGoalieName, &g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("game %s not found: %w", gameID, err)
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return &g, nil
}

// ListAll returns every game ordered by date
func (r *GameRepository) ListAll(ctx context.Context) ([]models.Game, error) {
	query := `
		SELECT id, game_id, game_date, home_team, away_team, home_team_win,
			home_goalie_id, home_goalie_name, away_goalie_id, away_goalie_name, created_at
		FROM games
		ORDER BY game_date, game_id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var out []models.Game
	for rows.Next() {
		var g models.Game
		err := rows.Scan(
			&g.ID, &g.GameID, &g.Date, &g.HomeTeam, &g.AwayTeam, &g.HomeWin,
			&g.HomeGoalieID, &g.HomeGoalieName, &g.AwayGoalieID, &g.AwayGoalieName, &g.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		out = append(out, g)
	}

	return out, rows.Err()
}

// GameIDs returns the set of game ids already in the store, used to decide
// which of a season's games still need fetching.
func (r *GameRepository) GameIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT game_id FROM games`)
	if err != nil {
		return nil, fmt.Errorf("failed to list game ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan game id: %w", err)
		}
		ids[id] = true
	}

	return ids, rows.Err()
}

// ListPending returns games whose outcome is still unknown, ordered by date.
// These are candidates for the update pass once the provider marks them Final.
func (r *GameRepository) ListPending(ctx context.Context) ([]models.Game, error) {
	query := `
		SELECT id, game_id, game_date, home_team, away_team, home_team_win,
			home_goalie_id, home_goalie_name, away_goalie_id, away_goalie_name, created_at
		FROM games
		WHERE home_team_win IS NULL
		ORDER BY game_date, game_id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending games: %w", err)
	}
	defer rows.Close()

	var out []models.Game
	for rows.Next() {
		var g models.Game
		err := rows.Scan(
			&g.ID, &g.GameID, &g.Date, &g.HomeTeam, &g.AwayTeam, &g.HomeWin,
			&g.HomeGoalieID, &g.HomeGoalieName, &g.AwayGoalieID, &g.AwayGoalieName, &g.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending game: %w", err)
		}
		out = append(out, g)
	}

	return out, rows.Err()
}

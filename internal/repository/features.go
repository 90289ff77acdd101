package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"nhl_wp/pipeline/internal/models"

	"github.com/rs/zerolog/log"
)

// FeatureRepository persists the assembled feature table. Each row is stored
// as a JSONB object keyed by column name, with the column order kept in a
// single metadata row so a load reproduces the table exactly.
type FeatureRepository struct {
	db *Database
}

// ReplaceTable swaps the stored feature table for the given one inside a
// single transaction, so readers never observe a half-written table.
func (r *FeatureRepository) ReplaceTable(ctx context.Context, t *models.FeatureTable) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin feature transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM feature_rows`); err != nil {
		return fmt.Errorf("failed to clear feature rows: %w", err)
	}

	colsJSON, err := json.Marshal(t.Columns)
	if err != nil {
		return fmt.Errorf("failed to encode feature columns: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO feature_meta (id, columns, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET
			columns = EXCLUDED.columns,
			updated_at = NOW()
	`, colsJSON)
	if err != nil {
		return fmt.Errorf("failed to save feature columns: %w", err)
	}

	insert := `
		INSERT INTO feature_rows (game_id, game_date, home_team, away_team, home_team_win, features)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range t.Rows {
		row := &t.Rows[i]
		payload, err := encodeFeatures(t.Columns, row.Values)
		if err != nil {
			return fmt.Errorf("failed to encode features for game %s: %w", row.GameID, err)
		}
		_, err = tx.Exec(ctx, insert,
			row.GameID, row.Date, row.HomeTeam, row.AwayTeam, row.HomeWin, payload,
		)
		if err != nil {
			return fmt.Errorf("failed to insert feature row for game %s: %w", row.GameID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit feature table: %w", err)
	}

	log.Info().
		Int("rows", len(t.Rows)).
		Int("columns", len(t.Columns)).
		Msg("Feature table replaced")

	return nil
}

// LoadTable reads the stored feature table back in its persisted column order
func (r *FeatureRepository) LoadTable(ctx context.Context) (*models.FeatureTable, error) {
	var colsJSON []byte
	err := r.db.Pool.QueryRow(ctx, `SELECT columns FROM feature_meta WHERE id = 1`).Scan(&colsJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to load feature columns: %w", err)
	}

	var columns []string
	if err := json.Unmarshal(colsJSON, &columns); err != nil {
		return nil, fmt.Errorf("failed to decode feature columns: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT game_id, game_date, home_team, away_team, home_team_win, features
		FROM feature_rows
		ORDER BY game_date, game_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load feature rows: %w", err)
	}
	defer rows.Close()

	t := &models.FeatureTable{Columns: columns}
	for rows.Next() {
		var row models.FeatureRow
		var payload []byte
		err := rows.Scan(&row.GameID, &row.Date, &row.HomeTeam, &row.AwayTeam, &row.HomeWin, &payload)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feature row: %w", err)
		}
		row.Values, err = decodeFeatures(columns, payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode features for game %s: %w", row.GameID, err)
		}
		t.Rows = append(t.Rows, row)
	}

	return t, rows.Err()
}

// Count returns the number of stored feature rows
func (r *FeatureRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM feature_rows`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count feature rows: %w", err)
	}
	return n, nil
}

// encodeFeatures maps a value vector to a JSONB object. NaN is not valid
// JSON, so missing values are encoded as null.
func encodeFeatures(columns []string, values []float64) ([]byte, error) {
	obj := make(map[string]*float64, len(columns))
	for i, col := range columns {
		if math.IsNaN(values[i]) {
			obj[col] = nil
			continue
		}
		v := values[i]
		obj[col] = &v
	}
	return json.Marshal(obj)
}

func decodeFeatures(columns []string, payload []byte) ([]float64, error) {
	obj := make(map[string]*float64, len(columns))
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, err
	}
	values := make([]float64, len(columns))
	for i, col := range columns {
		v, ok := obj[col]
		if !ok || v == nil {
			values[i] = math.NaN()
			continue
		}
		values[i] = *v
	}
	return values, nil
}

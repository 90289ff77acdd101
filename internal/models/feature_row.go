package models

import (
	"database/sql"
	"time"
)

// FeatureRow is one model-ready row: the game header plus the pregame
// feature vector. Values is aligned with the owning FeatureTable's Columns.
type FeatureRow struct {
	GameID   string
	Date     time.Time
	HomeTeam string
	AwayTeam string
	HomeWin  sql.NullBool

	Values []float64
}

// FeatureTable is the assembler's output: one row per game with a fixed,
// deterministic column order. Re-running the pipeline over an unchanged
// observation store must reproduce this table byte for byte, so Columns is
// always built from sorted configuration, never from map iteration.
type FeatureTable struct {
	Columns []string
	Rows    []FeatureRow
}

// ColumnIndex returns the position of a named feature column, or -1.
func (t *FeatureTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Lookup returns the named feature value for a row of this table.
func (t *FeatureTable) Lookup(row FeatureRow, name string) (float64, bool) {
	i := t.ColumnIndex(name)
	if i < 0 || i >= len(row.Values) {
		return 0, false
	}
	return row.Values[i], true
}

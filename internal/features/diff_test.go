package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	f := &Frame{
		Cols: []string{"goals_3_avg"},
		Rows: []Row{
			{GameID: "g1", Date: day(0), Entity: "BOS", IsHome: true, Seq: 0, Values: []float64{4.0}},
			{GameID: "g1", Date: day(0), Entity: "BUF", IsHome: false, Seq: 1, Values: []float64{4.0 - 1.0/3.0}},
		},
	}

	table := Diff(f, "teams", true)

	require.Equal(t, []string{"teams_goals_3_avg"}, table.Cols)
	row, ok := table.ByGame["g1"]
	require.True(t, ok)
	assert.InDelta(t, 1.0/3.0, row[0], 1e-9)
}

func TestDiffMissingSide(t *testing.T) {
	f := &Frame{
		Cols: []string{"goals_3_avg"},
		Rows: []Row{
			{GameID: "g1", Date: day(0), Entity: "BOS", IsHome: true, Seq: 0, Values: []float64{4.0}},
		},
	}

	// Zero-fill: the absent away side contributes zero.
	zeroFilled := Diff(f, "teams", true)
	assert.InDelta(t, 4.0, zeroFilled.ByGame["g1"][0], 1e-9)

	// Propagate: one missing side makes the difference missing.
	propagated := Diff(f, "teams", false)
	assert.True(t, math.IsNaN(propagated.ByGame["g1"][0]))
}

func TestDiffBothMissing(t *testing.T) {
	nan := math.NaN()
	f := &Frame{
		Cols: []string{"goals_3_avg"},
		Rows: []Row{
			{GameID: "g1", Date: day(0), Entity: "BOS", IsHome: true, Seq: 0, Values: []float64{nan}},
			{GameID: "g1", Date: day(0), Entity: "BUF", IsHome: false, Seq: 1, Values: []float64{nan}},
		},
	}

	table := Diff(f, "teams", true)
	assert.True(t, math.IsNaN(table.ByGame["g1"][0]), "missing on both sides stays missing even with zero fill")
}

func TestDiffCoversAwayOnlyGames(t *testing.T) {
	f := &Frame{
		Cols: []string{"goals_3_avg"},
		Rows: []Row{
			{GameID: "g1", Date: day(0), Entity: "BUF", IsHome: false, Seq: 0, Values: []float64{2.0}},
		},
	}

	table := Diff(f, "teams", true)
	row, ok := table.ByGame["g1"]
	require.True(t, ok, "a game with only an away row still gets an entry")
	assert.InDelta(t, -2.0, row[0], 1e-9)
}

func TestDedupPerSide(t *testing.T) {
	f := &Frame{
		Cols: []string{"saves_3_avg"},
		Rows: []Row{
			// Two home goalies for g1: the finisher is listed first, the
			// starter last.
			{GameID: "g1", Date: day(0), Entity: "finisher", IsHome: true, Seq: 0, Values: []float64{1.0}},
			{GameID: "g1", Date: day(0), Entity: "starter", IsHome: true, Seq: 1, Values: []float64{2.0}},
			{GameID: "g1", Date: day(0), Entity: "away1", IsHome: false, Seq: 2, Values: []float64{3.0}},
		},
	}

	last := DedupPerSide(f, DedupKeepLast)
	require.Len(t, last.Rows, 2)
	assert.Equal(t, "starter", last.Rows[0].Entity, "keep-last keeps the starting goalie")
	assert.Equal(t, "away1", last.Rows[1].Entity)

	first := DedupPerSide(f, DedupKeepFirst)
	require.Len(t, first.Rows, 2)
	assert.Equal(t, "finisher", first.Rows[0].Entity)
}

package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2019, 10, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// oneColFrame builds a single-entity, single-column frame from a value series,
// one observation per day.
func oneColFrame(col string, vals []float64) *Frame {
	f := &Frame{Cols: []string{col}}
	for i, v := range vals {
		f.Rows = append(f.Rows, Row{
			GameID: "g" + string(rune('0'+i)),
			Date:   day(i),
			Entity: "BOS",
			Seq:    i,
			Values: []float64{v},
		})
	}
	return f
}

func TestRollingThenShift(t *testing.T) {
	f := oneColFrame("goals", []float64{2, 4, 6, 1, 5})

	rolled := ShiftPregame(Rolling(f, []int{3}))
	require.Len(t, rolled.Rows, 5)

	avgIdx := 0 // goals_3_avg
	assert.Equal(t, "goals_3_avg", rolled.Cols[avgIdx])

	// First three games lack a full trailing window after the shift.
	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(rolled.Rows[i].Values[avgIdx]), "game %d should have no value", i)
	}

	// Fourth game sees the first three observations, fifth sees games 2-4.
	assert.InDelta(t, 4.0, rolled.Rows[3].Values[avgIdx], 1e-9)
	assert.InDelta(t, (4.0+6.0+1.0)/3.0, rolled.Rows[4].Values[avgIdx], 1e-9)
}

func TestRollingStdAndSkew(t *testing.T) {
	f := oneColFrame("shots", []float64{2, 4, 6})

	rolled := Rolling(f, []int{3})
	last := rolled.Rows[2].Values

	// Sample standard deviation with n-1 in the denominator.
	assert.InDelta(t, 2.0, last[1], 1e-9)
	// A symmetric window has zero skewness.
	assert.InDelta(t, 0.0, last[2], 1e-9)
}

func TestRollingMissingValuePoisonsWindow(t *testing.T) {
	f := oneColFrame("goals", []float64{2, math.NaN(), 6, 1})

	rolled := Rolling(f, []int{3})

	assert.True(t, math.IsNaN(rolled.Rows[2].Values[0]), "window covering the gap is undefined")
	assert.True(t, math.IsNaN(rolled.Rows[3].Values[0]), "still covered by the gap")
}

func TestRollingWindowOfTwoHasNoSkew(t *testing.T) {
	f := oneColFrame("goals", []float64{2, 4, 6})

	rolled := Rolling(f, []int{2})
	last := rolled.Rows[2].Values

	assert.InDelta(t, 5.0, last[0], 1e-9)
	assert.False(t, math.IsNaN(last[1]))
	assert.True(t, math.IsNaN(last[2]), "skew needs at least three observations")
}

func TestShiftPregameFirstObservation(t *testing.T) {
	f := oneColFrame("goals", []float64{2, 4})

	shifted := ShiftPregame(f)

	assert.True(t, math.IsNaN(shifted.Rows[0].Values[0]), "an entity's first game has no history")
	assert.Equal(t, 2.0, shifted.Rows[1].Values[0], "second game carries the first game's value")
}

func TestShiftPregameIsPerEntity(t *testing.T) {
	f := &Frame{
		Cols: []string{"goals"},
		Rows: []Row{
			{GameID: "g0", Date: day(0), Entity: "BOS", Seq: 0, Values: []float64{2}},
			{GameID: "g1", Date: day(1), Entity: "BUF", Seq: 1, Values: []float64{7}},
			{GameID: "g2", Date: day(2), Entity: "BOS", Seq: 2, Values: []float64{4}},
		},
	}

	shifted := ShiftPregame(f)

	assert.True(t, math.IsNaN(shifted.Rows[0].Values[0]))
	assert.True(t, math.IsNaN(shifted.Rows[1].Values[0]), "BUF must not inherit BOS history")
	assert.Equal(t, 2.0, shifted.Rows[2].Values[0])
}

func TestRollingDeterministicUnderShuffle(t *testing.T) {
	ordered := oneColFrame("goals", []float64{2, 4, 6, 1, 5})

	shuffled := &Frame{Cols: ordered.Cols}
	for _, i := range []int{3, 0, 4, 2, 1} {
		shuffled.Rows = append(shuffled.Rows, ordered.Rows[i])
	}

	a := Rolling(ordered, []int{3})
	b := Rolling(shuffled, []int{3})

	// Compare per game id: row positions differ, values must not.
	byGame := func(f *Frame) map[string][]float64 {
		m := make(map[string][]float64)
		for _, r := range f.Rows {
			m[r.GameID] = r.Values
		}
		return m
	}
	am, bm := byGame(a), byGame(b)
	for id, av := range am {
		bv := bm[id]
		require.Len(t, bv, len(av))
		for i := range av {
			if math.IsNaN(av[i]) {
				assert.True(t, math.IsNaN(bv[i]), "game %s col %d", id, i)
				continue
			}
			assert.Equal(t, av[i], bv[i], "game %s col %d", id, i)
		}
	}
}

func TestRollingColumnOrder(t *testing.T) {
	f := &Frame{Cols: []string{"goals", "shots"}}

	rolled := Rolling(f, []int{3, 7})

	assert.Equal(t, []string{
		"goals_3_avg", "goals_3_std", "goals_3_skew",
		"shots_3_avg", "shots_3_std", "shots_3_skew",
		"goals_7_avg", "goals_7_std", "goals_7_skew",
		"shots_7_avg", "shots_7_std", "shots_7_skew",
	}, rolled.Cols)
}

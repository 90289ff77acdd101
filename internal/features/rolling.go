package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// aggregations applied to every stat column and window, in output order.
var aggregations = []string{"avg", "std", "skew"}

// RollingName is the deterministic name of a rolling feature column. Column
// naming is part of the external interface: a trained model depends on it.
func RollingName(col string, window int, agg string) string {
	return fmt.Sprintf("%s_%d_%s", col, window, agg)
}

// Rolling computes trailing mean, standard deviation and skewness of every
// stat column over the given window lengths, per entity, ordered by date.
// The value at position i covers positions [i-w+1, i] of the entity's own
// history, inclusive of the current observation; ShiftPregame turns the
// result into leakage-free pregame features.
//
// A window with fewer than w observations, or containing any missing value,
// yields NaN. Skewness is the adjusted Fisher-Pearson sample coefficient and
// is additionally undefined for windows shorter than three.
func Rolling(f *Frame, windows []int) *Frame {
	cols := make([]string, 0, len(f.Cols)*len(windows)*len(aggregations))
	for _, w := range windows {
		for _, c := range f.Cols {
			for _, agg := range aggregations {
				cols = append(cols, RollingName(c, w, agg))
			}
		}
	}

	out := &Frame{Cols: cols, Rows: make([]Row, len(f.Rows))}
	for i, r := range f.Rows {
		out.Rows[i] = Row{
			GameID: r.GameID,
			Date:   r.Date,
			Entity: r.Entity,
			IsHome: r.IsHome,
			Seq:    r.Seq,
			Values: make([]float64, len(cols)),
		}
	}

	buf := make([]float64, 0, maxWindow(windows))
	for _, g := range f.groups() {
		for pos, rowIdx := range g.rows {
			outIdx := 0
			for _, w := range windows {
				for ci := range f.Cols {
					vals, ok := window(f, g.rows, pos, w, ci, buf)
					out.Rows[rowIdx].Values[outIdx] = rollingAgg(vals, ok, "avg")
					out.Rows[rowIdx].Values[outIdx+1] = rollingAgg(vals, ok, "std")
					out.Rows[rowIdx].Values[outIdx+2] = rollingAgg(vals, ok, "skew")
					outIdx += 3
				}
			}
		}
	}
	return out
}

// ShiftPregame shifts every feature one position backward within its entity
// group so the value attached to a game reflects only prior games. The first
// observation of each entity ends up all-NaN. This shift is the leakage
// guard: skipping it would let a game's own stats predict its own outcome.
func ShiftPregame(f *Frame) *Frame {
	out := &Frame{Cols: f.Cols, Rows: make([]Row, len(f.Rows))}
	for i, r := range f.Rows {
		out.Rows[i] = Row{
			GameID: r.GameID,
			Date:   r.Date,
			Entity: r.Entity,
			IsHome: r.IsHome,
			Seq:    r.Seq,
			Values: make([]float64, len(f.Cols)),
		}
	}

	for _, g := range f.groups() {
		for pos, rowIdx := range g.rows {
			if pos == 0 {
				for ci := range f.Cols {
					out.Rows[rowIdx].Values[ci] = math.NaN()
				}
				continue
			}
			copy(out.Rows[rowIdx].Values, f.Rows[g.rows[pos-1]].Values)
		}
	}
	return out
}

// window gathers the trailing w values of column ci ending at position pos
// of the group. ok is false when history is too short or a value is missing.
func window(f *Frame, rows []int, pos, w, ci int, buf []float64) ([]float64, bool) {
	if pos+1 < w {
		return nil, false
	}
	vals := buf[:0]
	for p := pos - w + 1; p <= pos; p++ {
		v := f.Rows[rows[p]].Values[ci]
		if math.IsNaN(v) {
			return nil, false
		}
		vals = append(vals, v)
	}
	return vals, true
}

func rollingAgg(vals []float64, ok bool, agg string) float64 {
	if !ok {
		return math.NaN()
	}
	switch agg {
	case "avg":
		return stat.Mean(vals, nil)
	case "std":
		return stat.StdDev(vals, nil)
	case "skew":
		if len(vals) < 3 {
			return math.NaN()
		}
		return stat.Skew(vals, nil)
	}
	return math.NaN()
}

func maxWindow(windows []int) int {
	m := 0
	for _, w := range windows {
		if w > m {
			m = w
		}
	}
	return m
}

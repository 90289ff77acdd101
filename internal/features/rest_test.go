package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRestDays(t *testing.T) {
	apps := []Appearance{
		{Entity: "8471695", GameID: "g1", Date: day(0), Seq: 0},
		{Entity: "8471695", GameID: "g2", Date: day(2), Seq: 1},
		{Entity: "8471695", GameID: "g3", Date: day(47), Seq: 2},
	}

	rest := RestDays(apps, 30)

	assert.Equal(t, 30.0, rest[RestKey{GameID: "g1", Entity: "8471695"}], "first appearance gets the ceiling")
	assert.Equal(t, 2.0, rest[RestKey{GameID: "g2", Entity: "8471695"}])
	assert.Equal(t, 30.0, rest[RestKey{GameID: "g3", Entity: "8471695"}], "a 45-day layoff is clamped to the ceiling")
}

func TestRestDaysTeamCeiling(t *testing.T) {
	apps := []Appearance{
		{Entity: "BOS", GameID: "g1", Date: day(0), Seq: 0},
		{Entity: "BOS", GameID: "g2", Date: day(10), Seq: 1},
	}

	rest := RestDays(apps, 7)

	assert.Equal(t, 7.0, rest[RestKey{GameID: "g1", Entity: "BOS"}])
	assert.Equal(t, 7.0, rest[RestKey{GameID: "g2", Entity: "BOS"}], "team rest clamps at a week")
}

func TestRestDaysIndependentEntities(t *testing.T) {
	apps := []Appearance{
		{Entity: "BOS", GameID: "g1", Date: day(0), Seq: 0},
		{Entity: "BUF", GameID: "g1", Date: day(0), Seq: 1},
		{Entity: "BOS", GameID: "g2", Date: day(1), Seq: 2},
	}

	rest := RestDays(apps, 7)

	assert.Equal(t, 1.0, rest[RestKey{GameID: "g2", Entity: "BOS"}])
	assert.Equal(t, 7.0, rest[RestKey{GameID: "g1", Entity: "BUF"}], "BUF's first game is unaffected by BOS history")
}

func TestRestDaysSameDateTieBreak(t *testing.T) {
	// A data oddity: two appearances on the same date order by ingestion
	// sequence and yield a zero-day gap for the later one.
	apps := []Appearance{
		{Entity: "8471695", GameID: "g1", Date: day(0), Seq: 0},
		{Entity: "8471695", GameID: "g2", Date: day(0), Seq: 1},
	}

	rest := RestDays(apps, 30)

	assert.Equal(t, 30.0, rest[RestKey{GameID: "g1", Entity: "8471695"}])
	assert.Equal(t, 0.0, rest[RestKey{GameID: "g2", Entity: "8471695"}])
}

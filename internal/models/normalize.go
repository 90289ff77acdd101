package models

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedObservation is returned when a fetched record is missing one of
// its join keys (game id, date, entity id). Records missing only stat fields
// are kept with NaN markers instead.
var ErrMalformedObservation = errors.New("malformed observation: missing join key")

// RequireKeys validates the join keys shared by every observation kind and
// parses the date. The entity argument is the team or goalie identifier.
func RequireKeys(gameID, dateTime, entity string) (time.Time, error) {
	if gameID == "" || dateTime == "" || entity == "" {
		return time.Time{}, ErrMalformedObservation
	}
	date, err := time.Parse(time.RFC3339, dateTime)
	if err != nil {
		return time.Time{}, ErrMalformedObservation
	}
	return date.UTC(), nil
}

// ParsePercent converts a provider percentage string ("23.5") to a float.
// Empty or unparseable input yields NaN, never an error: the pipeline must
// tolerate partial records.
func ParsePercent(raw string) float64 {
	raw = strings.TrimSpace(strings.TrimSuffix(raw, "%"))
	if raw == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// ParseClockMinutes converts an "MM:SS" ice-time clock to fractional minutes
// (minutes + seconds/60). Anything that does not match yields NaN.
func ParseClockMinutes(raw string) float64 {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return math.NaN()
	}
	minutes, err := strconv.Atoi(parts[0])
	if err != nil {
		return math.NaN()
	}
	seconds, err := strconv.Atoi(parts[1])
	if err != nil {
		return math.NaN()
	}
	return float64(minutes) + float64(seconds)/60
}

// FloatOrNaN dereferences an optional provider stat, mapping absence to NaN.
func FloatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

package services

import "time"

const (
	// BasePoints is the award for a find in the first hour of the UTC day.
	BasePoints = 1200
	// DecayStep is subtracted for every full hour elapsed since UTC midnight.
	DecayStep = 50
)

// PointsAt returns max(0, BasePoints - DecayStep*floor(hours since UTC midnight)).
func PointsAt(t time.Time) int {
	t = t.UTC()
	hours := int(t.Sub(DayOf(t)) / time.Hour)
	points := BasePoints - DecayStep*hours
	if points < 0 {
		return 0
	}
	return points
}

// DayOf truncates t to the start of its UTC calendar day.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

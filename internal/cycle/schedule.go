// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package cycle

import (
	"fmt"
	"time"
)

const week = 7 * 24 * time.Hour

// Schedule is a weekly point in time.
type Schedule struct {
	Weekday  time.Weekday
	Hour     int
	Minute   int
	Location *time.Location
}

// CycleID returns the ISO week of t in loc, formatted YYYY-Www.
// A nil loc means UTC.
func CycleID(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	year, wk := t.In(loc).ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, wk)
}

// CycleID returns the cycle identifier of t in the schedule's location.
//
//nolint:gocritic // Schedule is small
func (s Schedule) CycleID(t time.Time) string {
	return CycleID(t, s.Location)
}

// NextRun returns the first scheduled time strictly after after.
//
//nolint:gocritic // Schedule is small
func (s Schedule) NextRun(after time.Time) time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	t := after.In(loc)

	days := (int(s.Weekday) - int(t.Weekday()) + 7) % 7
	next := time.Date(t.Year(), t.Month(), t.Day()+days, s.Hour, s.Minute, 0, 0, loc)
	if !next.After(after) {
		next = time.Date(t.Year(), t.Month(), t.Day()+days+7, s.Hour, s.Minute, 0, 0, loc)
	}
	return next
}

// PreviousRun returns the latest scheduled time at or before at.
//
//nolint:gocritic // Schedule is small
func (s Schedule) PreviousRun(at time.Time) time.Time {
	return s.NextRun(at.Add(-week))
}

// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package mealweekdb

import (
	"fmt"
	"time"
)

// WeekID returns the ISO week identifier for t, e.g. "2025-W44". The year is
// the ISO week-year, which can differ from the calendar year near year
// boundaries.
func WeekID(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// CurrentWeekID returns the week identifier for the current week.
func CurrentWeekID() string {
	return WeekID(time.Now())
}

// ParseWeekID validates a week identifier of the form "YYYY-Www" and returns
// its ISO week-year and week number.
func ParseWeekID(id string) (int, int, error) {
	var year, week int
	if _, err := fmt.Sscanf(id, "%4d-W%2d", &year, &week); err != nil {
		return 0, 0, fmt.Errorf("mealweekdb: invalid week id %q: %w", id, err)
	}
	if len(id) != len("YYYY-Www") || WeekID(isoWeekStart(year, week)) != id {
		return 0, 0, fmt.Errorf("mealweekdb: invalid week id %q", id)
	}
	return year, week, nil
}

// isoWeekStart returns the Monday of the given ISO week.
func isoWeekStart(year int, week int) time.Time {
	// Jan 4 is always in ISO week 1.
	t := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return t.AddDate(0, 0, -(wd-1)+(week-1)*7)
}

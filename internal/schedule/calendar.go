// Package schedule lays recurring classes out on a calendar.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"tutoring-service/internal/models"
)

// DayIndex maps schedule day codes to time.Weekday values (Sun=0).
var DayIndex = map[string]time.Weekday{
	"Sun": time.Sunday,
	"Mon": time.Monday,
	"Tue": time.Tuesday,
	"Wed": time.Wednesday,
	"Thu": time.Thursday,
	"Fri": time.Friday,
	"Sat": time.Saturday,
}

// Day is one calendar cell with the classes that meet on it.
type Day struct {
	Date    string              `json:"date"`
	Day     int                 `json:"day"`
	Classes []models.TutorClass `json:"classes"`
}

// MonthView is a month grid. Leading is the number of blank cells before day 1
// in a Sunday-first week.
type MonthView struct {
	Month   string `json:"month"`
	Leading int    `json:"leading"`
	Days    []Day  `json:"days"`
}

// MeetsOn reports whether the class is scheduled on weekday.
func MeetsOn(c models.TutorClass, weekday time.Weekday) bool {
	for _, d := range c.ScheduleDays {
		if idx, ok := DayIndex[d]; ok && idx == weekday {
			return true
		}
	}
	return false
}

// ClassesOn returns the classes meeting on date's weekday ordered by start time.
func ClassesOn(classes []models.TutorClass, date time.Time) []models.TutorClass {
	out := make([]models.TutorClass, 0)
	for _, c := range classes {
		if MeetsOn(c, date.Weekday()) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

// Today returns the classes meeting on now's weekday in now's location.
func Today(classes []models.TutorClass, now time.Time) []models.TutorClass {
	return ClassesOn(classes, now)
}

// Month buckets classes into every day of the month containing t.
func Month(t time.Time, classes []models.TutorClass) MonthView {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	next := first.AddDate(0, 1, 0)

	view := MonthView{
		Month:   first.Format("2006-01"),
		Leading: int(first.Weekday()),
	}
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		view.Days = append(view.Days, Day{
			Date:    d.Format("2006-01-02"),
			Day:     d.Day(),
			Classes: ClassesOn(classes, d),
		})
	}
	return view
}

// ParseMonth parses YYYY-MM in loc. An empty string means the month of now.
func ParseMonth(s string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), nil
	}
	t, err := time.ParseInLocation("2006-01", s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, want YYYY-MM", s)
	}
	return t, nil
}

// FormatClock renders "14:05" as "2:05 PM". Input it cannot read is returned unchanged.
func FormatClock(hhmm string) string {
	parts := strings.SplitN(hhmm, ":", 3)
	if len(parts) < 2 {
		return hhmm
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return hhmm
	}
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%s %s", hour12, parts[1], suffix)
}

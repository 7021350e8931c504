package dates

import (
	"fmt"
	"time"
)

const (
	// ISOLayout is the calendar date format used for every stored date
	ISOLayout = "2006-01-02"
	// ClockLayout is the time-of-day format used for event start/end
	ClockLayout = "15:04"
)

// ISO formats the calendar date of t in t's own location
func ISO(t time.Time) string {
	return t.Format(ISOLayout)
}

// AddDaysISO returns the ISO date n days after from (n may be negative)
func AddDaysISO(from time.Time, n int) string {
	return ISO(startOfDay(from).AddDate(0, 0, n))
}

// Parse parses an ISO date into midnight in loc
func Parse(iso string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(ISOLayout, iso, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", iso, err)
	}
	return t, nil
}

// IsISODate reports whether s is a valid YYYY-MM-DD date
func IsISODate(s string) bool {
	_, err := time.Parse(ISOLayout, s)
	return err == nil
}

// IsClock reports whether s is empty or a valid HH:MM time of day
func IsClock(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse(ClockLayout, s)
	return err == nil
}

// StartOfWeek returns midnight of the Monday on or before t, in t's location
func StartOfWeek(t time.Time) time.Time {
	d := startOfDay(t)
	// Weekday is 0 for Sunday; shift so Monday is 0
	delta := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -delta)
}

// WeekDays returns the seven ISO dates starting at the week containing t
func WeekDays(t time.Time) []string {
	start := StartOfWeek(t)
	days := make([]string, 7)
	for i := range days {
		days[i] = ISO(start.AddDate(0, 0, i))
	}
	return days
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

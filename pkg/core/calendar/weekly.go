// Package calendar arranges events by week, expands recurring events and
// exports them as an iCalendar feed.
package calendar

import (
	"slices"
	"strings"
	"time"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/utils/dates"
)

// Day is one column of the weekly view
type Day struct {
	Date    string        `json:"date"`
	Weekday string        `json:"weekday"`
	Events  []model.Event `json:"events"`
}

// Week buckets events into the Monday..Sunday week containing anyDay.
// Events within a day are ordered by start time, all-day events first.
func Week(events []model.Event, anyDay time.Time) []Day {
	start := dates.StartOfWeek(anyDay)

	week := make([]Day, 7)
	index := make(map[string]int, 7)
	for i, date := range dates.WeekDays(anyDay) {
		week[i] = Day{Date: date, Weekday: start.AddDate(0, 0, i).Weekday().String(), Events: []model.Event{}}
		index[date] = i
	}

	for _, e := range events {
		if i, ok := index[e.Date]; ok {
			week[i].Events = append(week[i].Events, e)
		}
	}

	for i := range week {
		slices.SortStableFunc(week[i].Events, func(a, b model.Event) int {
			return strings.Compare(a.Start, b.Start)
		})
	}
	return week
}

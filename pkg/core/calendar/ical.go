package calendar

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/utils/dates"
)

const (
	productID    = "-//Marching Knights//Portal//EN"
	calendarName = "Marching Knights"
	uidDomain    = "marching-knights-portal"

	// defaultDuration applies to timed events without an end
	defaultDuration = time.Hour
)

// WriteICS encodes events as an iCalendar feed. Timed events are written in
// UTC after interpreting their date and start in loc; events without a start
// become all-day entries.
func WriteICS(w io.Writer, events []model.Event, loc *time.Location, now time.Time) error {
	if loc == nil {
		loc = time.UTC
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText("X-WR-CALNAME", calendarName)

	for _, e := range events {
		vevent, err := toVEvent(e, loc, now)
		if err != nil {
			return err
		}
		cal.Children = append(cal.Children, vevent.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

func toVEvent(e model.Event, loc *time.Location, now time.Time) (*ical.Event, error) {
	day, err := dates.Parse(e.Date, loc)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", e.ID, err)
	}

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, e.ID+"@"+uidDomain)
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())

	summary := e.Title
	if summary == "" {
		summary = e.Type.Label()
	}
	vevent.Props.SetText(ical.PropSummary, summary)
	vevent.Props.SetText(ical.PropCategories, e.Type.Label())
	if e.Location != "" {
		vevent.Props.SetText(ical.PropLocation, e.Location)
	}
	if e.Plan != "" {
		vevent.Props.SetText(ical.PropDescription, e.Plan)
	}

	if e.Start == "" {
		vevent.Props.SetDate(ical.PropDateTimeStart, day)
		vevent.Props.SetDate(ical.PropDateTimeEnd, day.AddDate(0, 0, 1))
		return vevent, nil
	}

	start, err := atClock(day, e.Start)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", e.ID, err)
	}
	end := start.Add(defaultDuration)
	if e.End != "" {
		if end, err = atClock(day, e.End); err != nil {
			return nil, fmt.Errorf("event %s: %w", e.ID, err)
		}
		// Ends past midnight
		if !end.After(start) {
			end = end.AddDate(0, 0, 1)
		}
	}

	vevent.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
	vevent.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())
	return vevent, nil
}

// atClock returns day at the HH:MM clock time, in day's location
func atClock(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(dates.ClockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

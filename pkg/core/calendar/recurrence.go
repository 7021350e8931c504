package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/utils/dates"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/utils/ids"
)

const (
	// MaxOccurrences caps how many events one recurrence rule may create
	MaxOccurrences = 200
	// MaxHorizon is how far ahead of the first occurrence a rule is expanded
	MaxHorizon = 366 * 24 * time.Hour
)

// ErrNoOccurrences is returned when a rule matches nothing inside the horizon
var ErrNoOccurrences = errors.New("recurrence rule produces no events")

// ValidateRule reports whether rule parses as an RFC 5545 RRULE
func ValidateRule(rule string) error {
	if _, err := rrule.StrToROption(trimRule(rule)); err != nil {
		return fmt.Errorf("invalid recurrence rule: %w", err)
	}
	return nil
}

// ExpandRecurrence returns a copy of template for every occurrence of rule,
// starting on template's date. Each copy gets a fresh id. Occurrences beyond
// horizon (clamped to MaxHorizon) or past MaxOccurrences are dropped.
func ExpandRecurrence(template model.Event, rule string, horizon time.Duration, loc *time.Location) ([]model.Event, error) {
	if loc == nil {
		loc = time.UTC
	}
	if horizon <= 0 || horizon > MaxHorizon {
		horizon = MaxHorizon
	}

	first, err := dates.Parse(template.Date, loc)
	if err != nil {
		return nil, err
	}

	opt, err := rrule.StrToROptionInLocation(trimRule(rule), loc)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule: %w", err)
	}
	opt.Dtstart = first

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule: %w", err)
	}

	occurrences := r.Between(first, first.Add(horizon), true)
	if len(occurrences) == 0 {
		return nil, ErrNoOccurrences
	}
	if len(occurrences) > MaxOccurrences {
		occurrences = occurrences[:MaxOccurrences]
	}

	events := make([]model.Event, 0, len(occurrences))
	for _, t := range occurrences {
		e := template
		e.ID = ids.New()
		e.Date = dates.ISO(t.In(loc))
		events = append(events, e)
	}
	return events, nil
}

func trimRule(rule string) string {
	rule = strings.TrimSpace(rule)
	return strings.TrimPrefix(rule, "RRULE:")
}

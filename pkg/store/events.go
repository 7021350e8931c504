package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/utils/ids"
)

// Events returns all events sorted by date then start time
func (s *Store) Events() []model.Event {
	return s.SearchEvents("")
}

// SearchEvents returns events whose title, type, location or plan contain
// query (case-insensitive), sorted by date then start time
func (s *Store) SearchEvents(query string) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Event, 0, len(s.doc.Events))
	for _, e := range s.doc.Events {
		if q == "" || eventMatches(e, q) {
			out = append(out, e)
		}
	}

	SortEvents(out)
	return out
}

// SortEvents orders events by date, then start time. Untimed events sort first within a day.
func SortEvents(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].Start < events[j].Start
	})
}

func eventMatches(e model.Event, q string) bool {
	for _, field := range []string{e.Title, string(e.Type), e.Location, e.Plan} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Event returns the event with the given id
func (s *Store) Event(id string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.eventIndex(id); idx >= 0 {
		return s.doc.Events[idx], nil
	}
	return model.Event{}, fmt.Errorf("event %s: %w", id, ErrNotFound)
}

// EventLabel returns the title of the event, or a placeholder when it has been deleted
func (s *Store) EventLabel(id string) string {
	e, err := s.Event(id)
	if err != nil {
		return model.UnknownEventLabel
	}
	return e.Title
}

// AddEvent creates a single event
func (s *Store) AddEvent(ctx context.Context, actor model.Actor, event model.Event) (model.Event, error) {
	added, err := s.AddEvents(ctx, actor, []model.Event{event})
	if err != nil {
		return model.Event{}, err
	}
	return added[0], nil
}

// AddEvents creates events in one write, assigning ids where missing
func (s *Store) AddEvents(ctx context.Context, actor model.Actor, events []model.Event) ([]model.Event, error) {
	if err := requireRole(actor, model.RoleDirector); err != nil {
		return nil, err
	}

	added := make([]model.Event, len(events))
	for i, e := range events {
		e = cleanEvent(e)
		if err := s.validateEvent(e); err != nil {
			return nil, err
		}
		if e.ID == "" {
			e.ID = ids.New()
		}
		added[i] = e
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(added))
	for _, e := range added {
		if seen[e.ID] || s.eventIndex(e.ID) >= 0 {
			return nil, invalid("id", "event %s already exists", e.ID)
		}
		seen[e.ID] = true
	}

	next := s.doc
	next.Events = append(slices.Clone(s.doc.Events), added...)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return added, nil
}

// UpdateEvent overwrites the event with the same id
func (s *Store) UpdateEvent(ctx context.Context, actor model.Actor, event model.Event) (model.Event, error) {
	if err := requireRole(actor, model.RoleDirector); err != nil {
		return model.Event{}, err
	}

	event = cleanEvent(event)
	if err := s.validateEvent(event); err != nil {
		return model.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.eventIndex(event.ID)
	if idx < 0 {
		return model.Event{}, fmt.Errorf("event %s: %w", event.ID, ErrNotFound)
	}

	next := s.doc
	next.Events = slices.Clone(s.doc.Events)
	next.Events[idx] = event
	if err := s.commit(ctx, next); err != nil {
		return model.Event{}, err
	}
	return event, nil
}

// DeleteEvent removes an event. Absences that reference it are kept.
func (s *Store) DeleteEvent(ctx context.Context, actor model.Actor, id string) error {
	if err := requireRole(actor, model.RoleDirector); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.eventIndex(id)
	if idx < 0 {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}

	next := s.doc
	next.Events = slices.Delete(slices.Clone(s.doc.Events), idx, idx+1)
	return s.commit(ctx, next)
}

// eventIndex finds an event by id; callers hold s.mu
func (s *Store) eventIndex(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.doc.Events, func(e model.Event) bool { return e.ID == id })
}

func cleanEvent(e model.Event) model.Event {
	e.ID = strings.TrimSpace(e.ID)
	e.Date = strings.TrimSpace(e.Date)
	e.Start = strings.TrimSpace(e.Start)
	e.End = strings.TrimSpace(e.End)
	e.Title = strings.TrimSpace(e.Title)
	e.Location = strings.TrimSpace(e.Location)
	return e
}

func (s *Store) validateEvent(e model.Event) error {
	err := s.validate.Struct(e)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return invalid(fe.Field(), "is required")
		case "datetime":
			return invalid(fe.Field(), "must use the %s format", fe.Param())
		case "oneof":
			return invalid(fe.Field(), "must be one of %s", fe.Param())
		}
		return invalid(fe.Field(), "failed %s validation", fe.Tag())
	}
	return fmt.Errorf("failed to validate event: %w", err)
}

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

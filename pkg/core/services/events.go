package services

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/calendar"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/store"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/utils/dates"
)

// CreateEvents adds event, or one event per occurrence when repeat holds an RRULE
func (p *Portal) CreateEvents(ctx context.Context, actor model.Actor, event model.Event, repeat string) ([]model.Event, error) {
	if err := requireDirector(actor); err != nil {
		return nil, err
	}

	if strings.TrimSpace(repeat) == "" {
		created, err := p.store.AddEvent(ctx, actor, event)
		if err != nil {
			return nil, err
		}
		return []model.Event{created}, nil
	}

	if !dates.IsISODate(event.Date) {
		return nil, &store.ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}
	occurrences, err := calendar.ExpandRecurrence(event, repeat, 0, p.location())
	if err != nil {
		return nil, &store.ValidationError{Field: "repeat", Message: err.Error()}
	}

	created, err := p.store.AddEvents(ctx, actor, occurrences)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Created recurring events",
		zap.String("title", event.Title),
		zap.String("repeat", repeat),
		zap.Int("count", len(created)))
	return created, nil
}

// UpdateEvent replaces an existing event
func (p *Portal) UpdateEvent(ctx context.Context, actor model.Actor, event model.Event) (model.Event, error) {
	return p.store.UpdateEvent(ctx, actor, event)
}

// DeleteEvent removes an event; its absences stay and show a placeholder title
func (p *Portal) DeleteEvent(ctx context.Context, actor model.Actor, id string) error {
	return p.store.DeleteEvent(ctx, actor, id)
}

// SearchEvents returns events matching query, in date order
func (p *Portal) SearchEvents(query string) []model.Event {
	return p.store.SearchEvents(query)
}

// Weekly returns the Monday..Sunday week containing date, or the current week
// when date is empty
func (p *Portal) Weekly(date string) ([]calendar.Day, error) {
	day := p.now().In(p.location())
	if date != "" {
		parsed, err := dates.Parse(date, p.location())
		if err != nil {
			return nil, &store.ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
		}
		day = parsed
	}
	return calendar.Week(p.store.Events(), day), nil
}

// ExportCalendar writes every event as an iCalendar feed
func (p *Portal) ExportCalendar(w io.Writer) error {
	events := p.store.Events()
	store.SortEvents(events)
	return calendar.WriteICS(w, events, p.location(), p.now())
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/db"
)

func TestAddEvent_Validation(t *testing.T) {
	s := openTestStore(t, db.NewMemoryBackend())
	ctx := context.Background()

	tests := []struct {
		name  string
		event model.Event
		field string
	}{
		{"missing date", model.Event{Type: model.EventRehearsal}, "date"},
		{"bad date", model.Event{Date: "09/10/2025", Type: model.EventRehearsal}, "date"},
		{"missing type", model.Event{Date: "2025-09-10"}, "type"},
		{"unknown type", model.Event{Date: "2025-09-10", Type: "party"}, "type"},
		{"bad start", model.Event{Date: "2025-09-10", Type: model.EventGame, Start: "7pm"}, "start"},
		{"bad end", model.Event{Date: "2025-09-10", Type: model.EventGame, End: "25:00"}, "end"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddEvent(ctx, model.Director, tt.event)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestAddEvents_AssignsIDsAndKeepsGiven(t *testing.T) {
	s := openTestStore(t, db.NewMemoryBackend())
	ctx := context.Background()

	added, err := s.AddEvents(ctx, model.Director, []model.Event{
		{Date: "2025-09-20", Type: model.EventParade, Title: " Homecoming Parade "},
		{ID: "fixed", Date: "2025-09-21", Type: model.EventCompetition},
	})
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.NotEmpty(t, added[0].ID)
	assert.Equal(t, "Homecoming Parade", added[0].Title)
	assert.Equal(t, "fixed", added[1].ID)
	assert.Len(t, s.Events(), 5)

	_, err = s.AddEvent(ctx, model.Director, model.Event{ID: "fixed", Date: "2025-09-22", Type: model.EventGame})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestAddEvents_RejectsRepeatedIDInBatch(t *testing.T) {
	s := openTestStore(t, db.NewMemoryBackend())

	_, err := s.AddEvents(context.Background(), model.Director, []model.Event{
		{ID: "dup", Date: "2025-09-20", Type: model.EventParade},
		{ID: "dup", Date: "2025-09-21", Type: model.EventGame},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "id", verr.Field)
	assert.Len(t, s.Events(), 3)
}

func TestUpdateEvent(t *testing.T) {
	s := openTestStore(t, db.NewMemoryBackend())
	ctx := context.Background()
	event := s.Events()[1]

	event.Title = "Brass Sectional"
	event.Start = ""
	updated, err := s.UpdateEvent(ctx, model.Director, event)
	require.NoError(t, err)
	assert.Equal(t, event, updated)

	got, err := s.Event(event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brass Sectional", got.Title)

	_, err = s.UpdateEvent(ctx, model.Director, model.Event{ID: "missing", Date: "2025-09-10", Type: model.EventGame})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteEvent_KeepsDanglingAbsences(t *testing.T) {
	s := openTestStore(t, db.NewMemoryBackend())
	ctx := context.Background()
	event := s.Events()[0]

	absence, err := s.SubmitAbsence(ctx, maxGray(), AbsenceRequest{EventID: event.ID, Reason: model.ReasonWork})
	require.NoError(t, err)

	require.NoError(t, s.DeleteEvent(ctx, model.Director, event.ID))
	assert.ErrorIs(t, s.DeleteEvent(ctx, model.Director, event.ID), ErrNotFound)

	_, err = s.Event(event.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, model.UnknownEventLabel, s.EventLabel(event.ID))

	kept, err := s.Absence(absence.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, kept.EventID)
	assert.Equal(t, event.Title, kept.EventTitle)
}

func TestSearchEvents(t *testing.T) {
	s := openTestStore(t, db.NewMemoryBackend())
	ctx := context.Background()

	_, err := s.AddEvents(ctx, model.Director, []model.Event{
		{Date: "2025-09-10", Start: "07:00", Type: model.EventSectional, Title: "Drumline Early", Location: "Band Room"},
		{Date: "2025-09-10", Type: model.EventParade, Title: "Untimed"},
	})
	require.NoError(t, err)

	all := s.SearchEvents("")
	require.Len(t, all, 5)
	assert.Equal(t, "Untimed", all[0].Title)
	assert.Equal(t, "Drumline Early", all[1].Title)
	assert.Equal(t, "Full Ensemble Rehearsal", all[2].Title)

	byLocation := s.SearchEvents("band room")
	assert.Equal(t, []string{"Drumline Early", "Low Brass Sectional"}, titles(byLocation))

	byType := s.SearchEvents("GAME")
	assert.Equal(t, []string{"Home Game vs Walkersville"}, titles(byType))

	byPlan := s.SearchEvents("top gun")
	assert.Equal(t, []string{"Home Game vs Walkersville"}, titles(byPlan))

	assert.Empty(t, s.SearchEvents("nothing matches this"))
}

func titles(events []model.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Title
	}
	return out
}

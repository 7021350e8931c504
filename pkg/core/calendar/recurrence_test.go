package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
)

var eastern = time.FixedZone("EDT", -4*60*60)

func rehearsal() model.Event {
	return model.Event{
		ID:       "template",
		Date:     "2025-09-10",
		Start:    "18:00",
		End:      "20:30",
		Title:    "Full Ensemble Rehearsal",
		Type:     model.EventRehearsal,
		Location: "Stadium",
	}
}

func occurrenceDates(events []model.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Date
	}
	return out
}

func TestExpandRecurrence(t *testing.T) {
	tests := []struct {
		name    string
		rule    string
		horizon time.Duration
		want    []string
	}{
		{
			name: "weekly count",
			rule: "FREQ=WEEKLY;COUNT=4",
			want: []string{"2025-09-10", "2025-09-17", "2025-09-24", "2025-10-01"},
		},
		{
			name: "prefixed rule",
			rule: "RRULE:FREQ=WEEKLY;BYDAY=MO,WE;COUNT=3",
			want: []string{"2025-09-10", "2025-09-15", "2025-09-17"},
		},
		{
			name: "yearly stays within a year",
			rule: "FREQ=YEARLY",
			want: []string{"2025-09-10", "2026-09-10"},
		},
		{
			name:    "horizon",
			rule:    "FREQ=DAILY",
			horizon: 2 * 24 * time.Hour,
			want:    []string{"2025-09-10", "2025-09-11", "2025-09-12"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := ExpandRecurrence(rehearsal(), tt.rule, tt.horizon, eastern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, occurrenceDates(events))
		})
	}
}

func TestExpandRecurrence_CopiesTemplateWithFreshIDs(t *testing.T) {
	events, err := ExpandRecurrence(rehearsal(), "FREQ=WEEKLY;COUNT=3", 0, eastern)
	require.NoError(t, err)
	require.Len(t, events, 3)

	seen := map[string]bool{}
	for _, e := range events {
		assert.NotEqual(t, "template", e.ID)
		assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true

		assert.Equal(t, "18:00", e.Start)
		assert.Equal(t, "20:30", e.End)
		assert.Equal(t, "Full Ensemble Rehearsal", e.Title)
		assert.Equal(t, model.EventRehearsal, e.Type)
	}
}

func TestExpandRecurrence_CapsOccurrences(t *testing.T) {
	events, err := ExpandRecurrence(rehearsal(), "FREQ=DAILY", 0, eastern)
	require.NoError(t, err)
	assert.Len(t, events, MaxOccurrences)
}

func TestExpandRecurrence_Errors(t *testing.T) {
	_, err := ExpandRecurrence(rehearsal(), "FREQ=SOMETIMES", 0, eastern)
	assert.Error(t, err)

	_, err = ExpandRecurrence(rehearsal(), "FREQ=DAILY;UNTIL=20250101T000000Z", 0, eastern)
	assert.ErrorIs(t, err, ErrNoOccurrences)

	bad := rehearsal()
	bad.Date = "09/10/2025"
	_, err = ExpandRecurrence(bad, "FREQ=DAILY", 0, eastern)
	assert.Error(t, err)
}

func TestValidateRule(t *testing.T) {
	assert.NoError(t, ValidateRule("FREQ=WEEKLY;BYDAY=TU,TH"))
	assert.Error(t, ValidateRule("WEEKLY"))
}

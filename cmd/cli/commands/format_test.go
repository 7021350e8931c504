package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/sheetsync"
)

func TestStatusColor(t *testing.T) {
	tests := []struct {
		status   model.AbsenceStatus
		expected string
	}{
		{model.StatusPending, colorYellow},
		{model.StatusApproved, colorGreen},
		{model.StatusDenied, colorRed},
		{model.StatusCancelled, colorDim},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, statusColor(tt.status))
		})
	}
}

func TestEntryColor(t *testing.T) {
	assert.Equal(t, colorYellow, entryColor(sheetsync.StatusPending))
	assert.Equal(t, colorGreen, entryColor(sheetsync.StatusSent))
	assert.Equal(t, colorRed, entryColor(sheetsync.StatusFailed))
}

func TestEventLine(t *testing.T) {
	tests := []struct {
		name     string
		event    model.Event
		expected string
	}{
		{
			name:     "timed with location",
			event:    model.Event{Start: "15:30", End: "18:00", Title: "Rehearsal", Type: model.EventRehearsal, Location: "Stadium"},
			expected: "15:30–18:00  Rehearsal  Rehearsal  @ Stadium",
		},
		{
			name:     "start only",
			event:    model.Event{Start: "18:30", Title: "Home Game", Type: model.EventGame},
			expected: "18:30  Home Game  Football Game",
		},
		{
			name:     "all day",
			event:    model.Event{Title: "Parade", Type: model.EventParade},
			expected: "All day  Parade  Parade",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, eventLine(tt.event))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Full Ense…", truncate("Full Ensemble Rehearsal", 10))
	assert.Equal(t, "Émi…", truncate("Émilie Durand", 4))
}

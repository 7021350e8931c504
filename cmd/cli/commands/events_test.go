package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
)

func TestCheckEventFlags(t *testing.T) {
	valid := model.Event{Date: "2025-09-16", Start: "15:30", End: "18:00", Type: model.EventRehearsal}

	tests := []struct {
		name    string
		mutate  func(*model.Event)
		repeat  string
		wantErr string
	}{
		{name: "valid single event", mutate: func(*model.Event) {}},
		{name: "all day", mutate: func(e *model.Event) { e.Start, e.End = "", "" }},
		{name: "valid repeat", mutate: func(*model.Event) {}, repeat: "FREQ=WEEKLY;BYDAY=TU,TH;COUNT=8"},
		{name: "bad date", mutate: func(e *model.Event) { e.Date = "09/16/2025" }, wantErr: "YYYY-MM-DD"},
		{name: "bad start", mutate: func(e *model.Event) { e.Start = "3:30pm" }, wantErr: "--start"},
		{name: "bad end", mutate: func(e *model.Event) { e.End = "25:00" }, wantErr: "--end"},
		{name: "unknown type", mutate: func(e *model.Event) { e.Type = "concert" }, wantErr: "--type"},
		{name: "bad repeat", mutate: func(*model.Event) {}, repeat: "WEEKLY", wantErr: "recurrence rule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := valid
			tt.mutate(&event)

			err := checkEventFlags(event, tt.repeat)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

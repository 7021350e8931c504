package calendar

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
)

func TestWriteICS(t *testing.T) {
	now := time.Date(2025, 9, 10, 14, 0, 0, 0, time.UTC)
	events := []model.Event{
		rehearsal(),
		{ID: "parade", Date: "2025-09-13", Title: "", Type: model.EventParade, Plan: "Uniforms by 9"},
		{ID: "late", Date: "2025-09-12", Start: "23:00", End: "00:30", Title: "Away Game", Type: model.EventGame},
		{ID: "open", Date: "2025-09-11", Start: "16:00", Title: "Sectional", Type: model.EventSectional},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, events, eastern, now))

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)
	assert.Equal(t, productID, cal.Props.Get(ical.PropProductID).Value)

	vevents := cal.Events()
	require.Len(t, vevents, 4)

	value := func(e ical.Event, name string) string {
		prop := e.Props.Get(name)
		if prop == nil {
			return ""
		}
		return prop.Value
	}

	timed := vevents[0]
	assert.Equal(t, "template@"+uidDomain, value(timed, ical.PropUID))
	assert.Equal(t, "Full Ensemble Rehearsal", value(timed, ical.PropSummary))
	assert.Equal(t, "Stadium", value(timed, ical.PropLocation))
	assert.Equal(t, "20250910T220000Z", value(timed, ical.PropDateTimeStart))
	assert.Equal(t, "20250911T003000Z", value(timed, ical.PropDateTimeEnd))
	assert.Equal(t, "20250910T140000Z", value(timed, ical.PropDateTimeStamp))

	allDay := vevents[1]
	assert.Equal(t, "Parade", value(allDay, ical.PropSummary))
	assert.Equal(t, "Uniforms by 9", value(allDay, ical.PropDescription))
	assert.Equal(t, "20250913", value(allDay, ical.PropDateTimeStart))
	assert.Equal(t, "20250914", value(allDay, ical.PropDateTimeEnd))

	overnight := vevents[2]
	assert.Equal(t, "20250913T030000Z", value(overnight, ical.PropDateTimeStart))
	assert.Equal(t, "20250913T043000Z", value(overnight, ical.PropDateTimeEnd))

	noEnd := vevents[3]
	assert.Equal(t, "20250911T200000Z", value(noEnd, ical.PropDateTimeStart))
	assert.Equal(t, "20250911T210000Z", value(noEnd, ical.PropDateTimeEnd))
}

func TestWriteICS_InvalidEvent(t *testing.T) {
	var buf bytes.Buffer
	err := WriteICS(&buf, []model.Event{{ID: "x", Date: "2025-09-10", Start: "6pm"}}, time.UTC, time.Now())
	assert.Error(t, err)
}

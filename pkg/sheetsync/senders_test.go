package sheetsync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
)

func enabledSettings() model.Settings {
	return model.Settings{ScriptURL: testScriptURL, EnableSheetsSync: true}
}

func TestRouter(t *testing.T) {
	router := NewRouter()
	sender := &mockSender{}
	router.Handle(ActionCreateAbsence, sender)

	require.NoError(t, router.Send(context.Background(), ActionCreateAbsence, json.RawMessage(`{}`)))
	assert.Equal(t, 1, sender.sentCount())

	err := router.Send(context.Background(), ActionNotifyDecision, nil)
	require.Error(t, err)
	assert.True(t, isPermanent(err))
}

func TestAppsScriptSender_AddsActionAndReadsSettingsAtSendTime(t *testing.T) {
	var got map[string]any
	client := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"ok":true}`)
	})

	settings := model.Settings{}
	sender := NewAppsScriptSender(client, func() model.Settings { return settings })
	payload, err := json.Marshal(UpdateStatusPayload{ID: "a1", Status: model.StatusDenied, DirectorNote: "no"})
	require.NoError(t, err)

	err = sender.Send(context.Background(), ActionUpdateStatus, payload)
	assert.ErrorIs(t, err, ErrSyncDisabled)
	assert.True(t, isPermanent(err))

	settings = enabledSettings()
	require.NoError(t, sender.Send(context.Background(), ActionUpdateStatus, payload))
	assert.Equal(t, "updateStatus", got["action"])
	assert.Equal(t, testScriptURL, got["scriptUrl"])
	assert.Equal(t, "a1", got["id"])
	assert.Equal(t, "Denied", got["status"])
}

func TestAppsScriptSender_ScriptReportedFailure(t *testing.T) {
	client := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"ok":false,"error":"sheet locked"}`)
	})
	sender := NewAppsScriptSender(client, enabledSettings)

	err := sender.Send(context.Background(), ActionCreateAbsence, json.RawMessage(`{"record":{}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheet locked")
	assert.False(t, isPermanent(err))
}

func TestReplyError(t *testing.T) {
	assert.NoError(t, replyError([]any{1, 2}))
	assert.NoError(t, replyError(map[string]any{"ok": true}))
	assert.NoError(t, replyError(map[string]any{"rows": 1.0}))
	assert.EqualError(t, replyError(map[string]any{"ok": false}), "script reported failure")
}

// mockEmail records messages
type mockEmail struct {
	to, subject, body string
	err               error
}

func (m *mockEmail) SendEmail(ctx context.Context, to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return m.err
}

func TestDecisionMailer(t *testing.T) {
	email := &mockEmail{}
	mailer := NewDecisionMailer(email, zap.NewNop())

	absence := model.Absence{
		ID:           "a1",
		EventTitle:   "Home Game vs Walkersville",
		Student:      "Max Gray",
		StudentEmail: "max@example.com",
		Reason:       model.ReasonIllness,
		Status:       model.StatusApproved,
		DirectorNote: "Feel better",
	}
	payload, err := json.Marshal(NotifyDecisionPayload{Absence: absence})
	require.NoError(t, err)

	require.NoError(t, mailer.Send(context.Background(), ActionNotifyDecision, payload))
	assert.Equal(t, "max@example.com", email.to)
	assert.Equal(t, "Absence approved: Home Game vs Walkersville", email.subject)
	assert.True(t, strings.HasPrefix(email.body, "Hi Max Gray,"))
	assert.Contains(t, email.body, "Director's note: Feel better")

	email.err = errors.New("quota")
	assert.Error(t, mailer.Send(context.Background(), ActionNotifyDecision, payload))
}

func TestDecisionMailer_SkipsStudentsWithoutEmail(t *testing.T) {
	email := &mockEmail{}
	mailer := NewDecisionMailer(email, zap.NewNop())

	payload, err := json.Marshal(NotifyDecisionPayload{Absence: model.Absence{Student: "Danica Stup", Status: model.StatusDenied}})
	require.NoError(t, err)

	require.NoError(t, mailer.Send(context.Background(), ActionNotifyDecision, payload))
	assert.Empty(t, email.to)

	assert.True(t, isPermanent(mailer.Send(context.Background(), ActionCreateAbsence, payload)))
}

func TestDecisionEmail_DanglingEvent(t *testing.T) {
	subject, body := DecisionEmail(model.Absence{Student: "A", Status: model.StatusDenied, Reason: model.ReasonWork})
	assert.Equal(t, "Absence denied: (event)", subject)
	assert.NotContains(t, body, "Director's note")
}

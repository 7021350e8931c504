package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/internal/config"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/db"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/sheetsync"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/store"
)

var fixedNow = time.Date(2025, 9, 10, 14, 0, 0, 0, time.UTC)

// mockQueue records enqueued actions
type mockQueue struct {
	actions  []string
	payloads []any
	err      error
}

func (m *mockQueue) Enqueue(ctx context.Context, action string, payload any) (sheetsync.Entry, error) {
	if m.err != nil {
		return sheetsync.Entry{}, m.err
	}
	m.actions = append(m.actions, action)
	m.payloads = append(m.payloads, payload)
	return sheetsync.Entry{ID: "entry", Action: action, Status: sheetsync.StatusPending}, nil
}

// mockTester answers pings
type mockTester struct {
	scriptURL string
	reply     any
	err       error
}

func (m *mockTester) Ping(ctx context.Context, scriptURL string) (any, error) {
	m.scriptURL = scriptURL
	return m.reply, m.err
}

type testPortal struct {
	*Portal
	backend *db.MemoryBackend
	queue   *mockQueue
}

func newTestPortal(t *testing.T, mutate func(*config.Config), opts ...Option) *testPortal {
	t.Helper()
	ctx := context.Background()
	backend := db.NewMemoryBackend()

	clock := fixedNow
	st, err := store.Open(ctx, backend, zap.NewNop(),
		store.WithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}),
		store.WithLocation(time.UTC))
	require.NoError(t, err)

	sessions, err := store.OpenSessions(ctx, backend, time.Hour, zap.NewNop(),
		store.WithSessionClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Timezone = "UTC"
	if mutate != nil {
		mutate(cfg)
	}

	queue := &mockQueue{}
	opts = append([]Option{WithSyncQueue(queue), WithNow(func() time.Time { return fixedNow })}, opts...)
	return &testPortal{
		Portal:  New(st, sessions, cfg, zap.NewNop(), opts...),
		backend: backend,
		queue:   queue,
	}
}

func (tp *testPortal) enableSync(t *testing.T) {
	t.Helper()
	_, err := tp.SaveSettings(context.Background(), model.Director, model.Settings{
		ScriptURL:        "https://script.google.com/macros/s/abc/exec",
		EnableSheetsSync: true,
	})
	require.NoError(t, err)
}

func (tp *testPortal) firstEventID() string {
	return tp.Store().Events()[0].ID
}

func TestSignInStudent(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil)

	session, err := tp.SignInStudent(ctx, StudentSignIn{Name: "  max gray "})
	require.NoError(t, err)
	assert.Equal(t, model.StudentActor("Max Gray"), session.Actor())
	assert.Equal(t, model.StudentActor("Max Gray"), tp.Sessions().Actor(session.Token))

	_, err = tp.SignInStudent(ctx, StudentSignIn{Name: "New Kid"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = tp.SignInStudent(ctx, StudentSignIn{Name: " "})
	var verr *store.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSignInStudent_Registers(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil)

	session, err := tp.SignInStudent(ctx, StudentSignIn{Name: "New Kid", Section: "Tuba", Email: "kid@example.com", Register: true})
	require.NoError(t, err)
	assert.Equal(t, "New Kid", session.Name)

	students := tp.Store().Students()
	assert.Len(t, students, 11)
	assert.Contains(t, students, model.Student{Name: "New Kid", Section: "Tuba", Email: "kid@example.com"})
}

func TestSignInDirector(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil)

	_, err := tp.SignInDirector(ctx, "0000")
	assert.ErrorIs(t, err, store.ErrForbidden)

	session, err := tp.SignInDirector(ctx, model.DefaultDirectorPIN)
	require.NoError(t, err)
	assert.Equal(t, model.Director, tp.Sessions().Actor(session.Token))

	require.NoError(t, tp.SignOut(ctx, session.Token))
	assert.Equal(t, model.Guest, tp.Sessions().Actor(session.Token))
}

func TestSubmitAbsence_QueuesOnlyWhenSyncEnabled(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil)
	req := store.AbsenceRequest{EventID: tp.firstEventID(), Reason: model.ReasonIllness}

	result, err := tp.SubmitAbsence(ctx, model.StudentActor("Max Gray"), req)
	require.NoError(t, err)
	assert.False(t, result.Sync.Queued)
	assert.Empty(t, tp.queue.actions)

	tp.enableSync(t)
	result, err = tp.SubmitAbsence(ctx, model.StudentActor("Max Gray"), req)
	require.NoError(t, err)
	assert.True(t, result.Sync.Queued)
	require.Equal(t, []string{sheetsync.ActionCreateAbsence}, tp.queue.actions)

	payload := tp.queue.payloads[0].(sheetsync.CreateAbsencePayload)
	assert.Equal(t, result.Absence, payload.Record)
	assert.Equal(t, "max@example.com", payload.Record.StudentEmail)
}

func TestSheetsAPITargetSyncsWithoutScriptURL(t *testing.T) {
	tp := newTestPortal(t, func(cfg *config.Config) {
		cfg.Sync.Target = config.TargetSheetsAPI
		cfg.Sheets.SpreadsheetID = "sheet123"
	})

	_, err := tp.SubmitAbsence(context.Background(), model.StudentActor("Max Gray"),
		store.AbsenceRequest{EventID: tp.firstEventID(), Reason: model.ReasonWork})
	require.NoError(t, err)
	assert.Equal(t, []string{sheetsync.ActionCreateAbsence}, tp.queue.actions)
}

func TestQueueFailureKeepsLocalChange(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil)
	tp.enableSync(t)
	tp.queue.err = errors.New("disk full")

	result, err := tp.SubmitAbsence(ctx, model.StudentActor("Max Gray"),
		store.AbsenceRequest{EventID: tp.firstEventID(), Reason: model.ReasonIllness})
	require.NoError(t, err)
	assert.False(t, result.Sync.Queued)
	assert.Contains(t, result.Sync.Warning, "disk full")

	_, err = tp.Store().Absence(result.Absence.ID)
	assert.NoError(t, err)
}

func TestDecideAndCancelAbsence(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, func(cfg *config.Config) { cfg.Gmail.Enabled = true })
	student := model.StudentActor("Max Gray")

	first, err := tp.SubmitAbsence(ctx, student, store.AbsenceRequest{EventID: tp.firstEventID(), Reason: model.ReasonIllness})
	require.NoError(t, err)
	second, err := tp.SubmitAbsence(ctx, student, store.AbsenceRequest{EventID: tp.firstEventID(), Reason: model.ReasonFamily})
	require.NoError(t, err)

	tp.enableSync(t)

	decided, err := tp.DecideAbsence(ctx, model.Director, first.Absence.ID, model.StatusApproved, " get well ")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, decided.Absence.Status)
	assert.Equal(t, "get well", decided.Absence.DirectorNote)

	cancelled, err := tp.CancelAbsence(ctx, student, second.Absence.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Absence.Status)

	assert.Equal(t, []string{
		sheetsync.ActionUpdateStatus,
		sheetsync.ActionNotifyDecision,
		sheetsync.ActionUpdateStatus,
	}, tp.queue.actions)
	assert.Equal(t, sheetsync.UpdateStatusPayload{ID: first.Absence.ID, Status: model.StatusApproved, DirectorNote: "get well"}, tp.queue.payloads[0])

	notice := tp.queue.payloads[1].(sheetsync.NotifyDecisionPayload)
	assert.Equal(t, "Full Ensemble Rehearsal", notice.Absence.EventTitle)

	_, err = tp.DecideAbsence(ctx, model.Director, second.Absence.ID, model.StatusDenied, "")
	assert.ErrorIs(t, err, store.ErrInvalidTransition)
}

func TestListAbsences_ShowsPlaceholderForDeletedEvents(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil)
	eventID := tp.firstEventID()

	_, err := tp.SubmitAbsence(ctx, model.StudentActor("Max Gray"), store.AbsenceRequest{EventID: eventID, Reason: model.ReasonWork})
	require.NoError(t, err)
	require.NoError(t, tp.DeleteEvent(ctx, model.Director, eventID))

	absences := tp.ListAbsences(model.Director, store.AbsenceFilter{})
	require.Len(t, absences, 1)
	assert.Equal(t, model.UnknownEventLabel, absences[0].EventTitle)
}

func TestTestConnection(t *testing.T) {
	ctx := context.Background()
	tester := &mockTester{reply: map[string]any{"ok": true}}
	tp := newTestPortal(t, nil, WithConnectionTester(tester))

	_, err := tp.TestConnection(ctx, model.StudentActor("Max Gray"))
	assert.ErrorIs(t, err, store.ErrForbidden)

	_, err = tp.TestConnection(ctx, model.Director)
	var verr *store.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "scriptUrl", verr.Field)

	tp.enableSync(t)
	reply, err := tp.TestConnection(ctx, model.Director)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, reply)
	assert.Equal(t, "https://script.google.com/macros/s/abc/exec", tester.scriptURL)
	assert.Empty(t, tp.queue.actions)

	tester.err = &sheetsync.SyncError{Status: 502, StatusText: "Bad Gateway"}
	_, err = tp.TestConnection(ctx, model.Director)
	var syncErr *sheetsync.SyncError
	assert.ErrorAs(t, err, &syncErr)
}

func TestTestConnection_Unavailable(t *testing.T) {
	tp := newTestPortal(t, nil)
	_, err := tp.TestConnection(context.Background(), model.Director)
	assert.ErrorIs(t, err, ErrConnectionTestUnavailable)
}

func TestSettingsAndReset(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil)

	_, err := tp.Settings(model.Guest)
	assert.ErrorIs(t, err, store.ErrForbidden)

	tp.enableSync(t)
	settings, err := tp.Settings(model.Director)
	require.NoError(t, err)
	assert.True(t, settings.EnableSheetsSync)
	assert.Equal(t, model.DefaultDirectorPIN, settings.DirectorPin)

	_, err = tp.ImportRoster(ctx, model.Director, "Name\nSolo Student\n", ImportReplace)
	require.NoError(t, err)

	assert.ErrorIs(t, tp.ResetDemo(ctx, model.StudentActor("Max Gray")), store.ErrForbidden)
	require.NoError(t, tp.ResetDemo(ctx, model.Director))
	assert.Len(t, tp.Store().Students(), 10)
	assert.False(t, tp.Store().Settings().EnableSheetsSync)
}

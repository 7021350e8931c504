package sheetsync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
)

const testScriptURL = "https://script.google.com/macros/s/abc/exec"

func newTestProxy(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, time.Second, zap.NewNop())
}

func TestClient_PostSendsScriptURLAndPayload(t *testing.T) {
	var got map[string]any
	client := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true,"rows":3}`)
	})

	reply, err := client.UpdateStatus(context.Background(), testScriptURL, "a1", model.StatusApproved, "ok")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"ok": true, "rows": float64(3)}, reply)
	assert.Equal(t, map[string]any{
		"scriptUrl":    testScriptURL,
		"action":       "updateStatus",
		"id":           "a1",
		"status":       "Approved",
		"directorNote": "ok",
	}, got)
}

func TestClient_CreateAbsenceWrapsRecord(t *testing.T) {
	var got struct {
		Action string        `json:"action"`
		Record model.Absence `json:"record"`
	}
	client := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"ok":true}`)
	})

	record := model.Absence{ID: "a1", Student: "Max Gray", Status: model.StatusPending}
	_, err := client.CreateAbsence(context.Background(), testScriptURL, record)
	require.NoError(t, err)
	assert.Equal(t, ActionCreateAbsence, got.Action)
	assert.Equal(t, record, got.Record)
}

func TestClient_Non2xxIsSyncError(t *testing.T) {
	long := strings.Repeat("é", 300)
	client := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, long)
	})

	_, err := client.Ping(context.Background(), testScriptURL)

	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, http.StatusBadGateway, syncErr.Status)
	assert.Equal(t, "Bad Gateway", syncErr.StatusText)
	assert.Equal(t, strings.Repeat("é", 200), syncErr.Excerpt)
	assert.False(t, syncErr.NonJSON)
	assert.True(t, strings.HasPrefix(err.Error(), "HTTP 502 Bad Gateway: "))
}

func TestClient_NonJSONIsSyncError(t *testing.T) {
	client := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>sign in</html>")
	})

	_, err := client.Ping(context.Background(), testScriptURL)

	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.True(t, syncErr.NonJSON)
	assert.Equal(t, "Non-JSON from proxy: <html>sign in</html>", err.Error())
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := NewClient(server.URL, time.Second, zap.NewNop())
	_, err := client.Ping(context.Background(), testScriptURL)
	require.Error(t, err)

	var syncErr *SyncError
	assert.False(t, errors.As(err, &syncErr))
	assert.Contains(t, err.Error(), "failed to reach sheets proxy")
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "abc", excerpt("abc", 5))
	assert.Equal(t, "ab", excerpt("abc", 2))
	assert.Equal(t, "日本", excerpt("日本語", 2))
}

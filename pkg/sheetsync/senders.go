package sheetsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
)

// ErrSyncDisabled is returned when an entry is sent after sync was switched off
var ErrSyncDisabled = errors.New("sheets sync is disabled")

// CreateAbsencePayload is queued when a student submits an absence
type CreateAbsencePayload struct {
	Record model.Absence `json:"record"`
}

// UpdateStatusPayload is queued when an absence is decided or cancelled
type UpdateStatusPayload struct {
	ID           string              `json:"id"`
	Status       model.AbsenceStatus `json:"status"`
	DirectorNote string              `json:"directorNote"`
}

// NotifyDecisionPayload is queued so the student hears about a decision
type NotifyDecisionPayload struct {
	Absence model.Absence `json:"absence"`
}

// Router dispatches entries to the sender registered for their action
type Router struct {
	routes map[string]Sender
}

func NewRouter() *Router {
	return &Router{routes: make(map[string]Sender)}
}

// Handle registers sender for action, replacing any previous one
func (r *Router) Handle(action string, sender Sender) {
	r.routes[action] = sender
}

func (r *Router) Send(ctx context.Context, action string, payload json.RawMessage) error {
	sender, ok := r.routes[action]
	if !ok {
		return Permanent(fmt.Errorf("no sender for action %q", action))
	}
	return sender.Send(ctx, action, payload)
}

// AppsScriptSender relays entries through the sheets proxy to the Apps
// Script configured in the current settings
type AppsScriptSender struct {
	client   *Client
	settings func() model.Settings
}

// NewAppsScriptSender reads settings at send time so edits apply to queued entries
func NewAppsScriptSender(client *Client, settings func() model.Settings) *AppsScriptSender {
	return &AppsScriptSender{client: client, settings: settings}
}

func (s *AppsScriptSender) Send(ctx context.Context, action string, payload json.RawMessage) error {
	settings := s.settings()
	if !settings.SyncEnabled() {
		return Permanent(ErrSyncDisabled)
	}

	body := map[string]any{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &body); err != nil {
			return Permanent(fmt.Errorf("failed to decode %s payload: %w", action, err))
		}
	}
	body["action"] = action

	reply, err := s.client.Post(ctx, settings.ScriptURL, body)
	if err != nil {
		return err
	}
	return replyError(reply)
}

// replyError turns an {"ok": false, "error": "..."} reply into an error
func replyError(reply any) error {
	obj, ok := reply.(map[string]any)
	if !ok {
		return nil
	}
	if okValue, present := obj["ok"]; present && okValue == false {
		if msg, ok := obj["error"].(string); ok && msg != "" {
			return fmt.Errorf("script error: %s", msg)
		}
		return errors.New("script reported failure")
	}
	return nil
}

package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/store"
)

// ErrConnectionTestUnavailable is returned when no sync client is wired
var ErrConnectionTestUnavailable = errors.New("connection test is not available")

// Settings returns the settings to the director
func (p *Portal) Settings(actor model.Actor) (model.Settings, error) {
	if err := requireDirector(actor); err != nil {
		return model.Settings{}, err
	}
	return p.store.Settings(), nil
}

// SaveSettings stores new settings
func (p *Portal) SaveSettings(ctx context.Context, actor model.Actor, settings model.Settings) (model.Settings, error) {
	saved, err := p.store.SaveSettings(ctx, actor, settings)
	if err != nil {
		return model.Settings{}, err
	}
	p.logger.Info("Settings saved",
		zap.Bool("enableSheetsSync", saved.EnableSheetsSync),
		zap.Bool("scriptConfigured", saved.ScriptURL != ""))
	return saved, nil
}

// TestConnection pings the configured Apps Script directly, bypassing the
// outbox, and returns its reply
func (p *Portal) TestConnection(ctx context.Context, actor model.Actor) (any, error) {
	if err := requireDirector(actor); err != nil {
		return nil, err
	}
	if p.tester == nil {
		return nil, ErrConnectionTestUnavailable
	}

	scriptURL := p.store.Settings().ScriptURL
	if scriptURL == "" {
		scriptURL = p.cfg.AppsScriptURL
	}
	if scriptURL == "" {
		return nil, &store.ValidationError{Field: "scriptUrl", Message: "is required"}
	}

	reply, err := p.tester.Ping(ctx, scriptURL)
	if err != nil {
		p.logger.Warn("Connection test failed", zap.Error(err))
		return nil, err
	}
	return reply, nil
}

// ResetDemo restores the demo document
func (p *Portal) ResetDemo(ctx context.Context, actor model.Actor) error {
	return p.store.Reset(ctx, actor)
}

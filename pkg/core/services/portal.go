package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/internal/config"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/clients/sheetsclient"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/sheetsync"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/store"
)

// SyncQueue accepts outbound changes for later delivery
type SyncQueue interface {
	Enqueue(ctx context.Context, action string, payload any) (sheetsync.Entry, error)
}

// ConnectionTester checks that the Apps Script answers
type ConnectionTester interface {
	Ping(ctx context.Context, scriptURL string) (any, error)
}

// Portal carries out user intents: it mutates the store first and then
// queues whatever needs mirroring. Sync problems never undo a local change.
type Portal struct {
	store    *store.Store
	sessions *store.Sessions
	cfg      *config.Config
	logger   *zap.Logger
	now      func() time.Time

	queue  SyncQueue
	tester ConnectionTester
	sheets sheetsclient.ValueReader
}

// Option wires an optional collaborator into a Portal
type Option func(*Portal)

// WithSyncQueue enables mirroring of absence changes
func WithSyncQueue(q SyncQueue) Option {
	return func(p *Portal) { p.queue = q }
}

// WithConnectionTester enables TestConnection
func WithConnectionTester(t ConnectionTester) Option {
	return func(p *Portal) { p.tester = t }
}

// WithRosterSheet enables ImportRosterSheet
func WithRosterSheet(reader sheetsclient.ValueReader) Option {
	return func(p *Portal) { p.sheets = reader }
}

// WithNow overrides the clock used for calendar views
func WithNow(now func() time.Time) Option {
	return func(p *Portal) { p.now = now }
}

func New(st *store.Store, sessions *store.Sessions, cfg *config.Config, logger *zap.Logger, opts ...Option) *Portal {
	p := &Portal{
		store:    st,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store exposes the underlying store for read-only views
func (p *Portal) Store() *store.Store {
	return p.store
}

// Sessions exposes the session table
func (p *Portal) Sessions() *store.Sessions {
	return p.sessions
}

func (p *Portal) location() *time.Location {
	return p.cfg.Location()
}

// syncEnabled reports whether absence changes should be queued right now
func (p *Portal) syncEnabled() bool {
	if p.queue == nil {
		return false
	}
	if p.cfg.Sync.Target == config.TargetSheetsAPI {
		return true
	}
	return p.store.Settings().SyncEnabled()
}

// SyncOutcome reports what happened to the mirror copy of a change
type SyncOutcome struct {
	Queued  bool   `json:"queued"`
	Warning string `json:"warning,omitempty"`
}

// enqueue queues a change and turns failures into a warning for the caller
func (p *Portal) enqueue(ctx context.Context, action string, payload any) SyncOutcome {
	if _, err := p.queue.Enqueue(ctx, action, payload); err != nil {
		p.logger.Warn("Failed to queue sync", zap.String("action", action), zap.Error(err))
		return SyncOutcome{Warning: fmt.Sprintf("saved locally, but sync could not be queued: %v", err)}
	}
	return SyncOutcome{Queued: true}
}

func requireDirector(actor model.Actor) error {
	if actor.Role != model.RoleDirector {
		return fmt.Errorf("%w: requires director role", store.ErrForbidden)
	}
	return nil
}

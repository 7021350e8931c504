package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/internal/config"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/clients/gmailclient"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/clients/sheetsclient"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/services"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/db"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/postgres"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/sheetsync"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/sqlite"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/store"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/utils"
)

// Operator is the actor CLI commands run as
var Operator = model.Director

// AnnotationNoStore marks commands that run without opening storage
const AnnotationNoStore = "portal/no-store"

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Env          string
	Cfg          *config.Config
	Logger       *zap.Logger
	Ctx          context.Context
	Backend      db.Backend
	Store        *store.Store
	Sessions     *store.Sessions
	SyncClient   *sheetsync.Client
	Outbox       *sheetsync.Outbox
	Router       *sheetsync.Router
	SheetsClient *sheetsclient.Client
	GmailClient  *gmailclient.Client
	Mirror       *sheetsync.SheetsMirror
	Portal       *services.Portal
}

// Open wires storage, sync and Google clients according to the config
func (app *AppContext) Open() error {
	var err error

	app.Logger.Info("Opening storage", zap.String("backend", app.Cfg.Storage.Backend))
	app.Backend, err = openBackend(app.Ctx, app.Cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	app.Store, err = store.Open(app.Ctx, app.Backend, app.Logger, store.WithLocation(app.Cfg.Location()))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	app.Sessions, err = store.OpenSessions(app.Ctx, app.Backend, app.Cfg.Sessions.TTL, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to open sessions: %w", err)
	}

	if app.Cfg.NeedsGoogle() {
		if err := app.openGoogle(); err != nil {
			return err
		}
	}

	app.SyncClient = sheetsync.NewClient(app.Cfg.Sync.ProxyURL, app.Cfg.Sync.Timeout, app.Logger)
	app.Router = sheetsync.NewRouter()
	if app.Mirror != nil {
		app.Router.Handle(sheetsync.ActionCreateAbsence, app.Mirror)
		app.Router.Handle(sheetsync.ActionUpdateStatus, app.Mirror)
	} else {
		scriptSender := sheetsync.NewAppsScriptSender(app.SyncClient, app.Store.Settings)
		app.Router.Handle(sheetsync.ActionCreateAbsence, scriptSender)
		app.Router.Handle(sheetsync.ActionUpdateStatus, scriptSender)
	}
	if app.GmailClient != nil {
		app.Router.Handle(sheetsync.ActionNotifyDecision, sheetsync.NewDecisionMailer(app.GmailClient, app.Logger))
	}

	app.Outbox, err = sheetsync.OpenOutbox(app.Ctx, app.Backend, app.Router, app.Logger,
		sheetsync.WithMaxAttempts(app.Cfg.Sync.MaxAttempts))
	if err != nil {
		return fmt.Errorf("failed to open sync outbox: %w", err)
	}

	opts := []services.Option{
		services.WithSyncQueue(app.Outbox),
		services.WithConnectionTester(app.SyncClient),
	}
	if app.SheetsClient != nil {
		opts = append(opts, services.WithRosterSheet(app.SheetsClient))
	}
	app.Portal = services.New(app.Store, app.Sessions, app.Cfg, app.Logger, opts...)

	app.Logger.Debug("Application initialized")
	return nil
}

// openGoogle authorizes once and builds every Google client the config asks for
func (app *AppContext) openGoogle() error {
	app.Logger.Info("Loading Google client", zap.String("file", config.GoogleClientFileName(app.Env)))
	googleClient, err := config.LoadGoogleClient(app.Env)
	if err != nil {
		return err
	}

	httpClient, err := utils.GoogleHTTPClient(app.Ctx, googleClient, app.Env, app.Logger)
	if err != nil {
		return err
	}

	app.SheetsClient, err = sheetsclient.NewClient(app.Ctx, httpClient)
	if err != nil {
		return fmt.Errorf("failed to create sheets client: %w", err)
	}

	if app.Cfg.Sync.Target == config.TargetSheetsAPI {
		app.Logger.Info("Connecting to mirror spreadsheet", zap.String("spreadsheet_id", app.Cfg.Sheets.SpreadsheetID))
		app.Mirror, err = sheetsync.NewSheetsMirror(app.Ctx, app.SheetsClient, app.Cfg.Sheets.SpreadsheetID)
		if err != nil {
			return err
		}
	}

	if app.Cfg.Gmail.Enabled {
		app.GmailClient, err = gmailclient.NewClient(app.Ctx, httpClient, app.Cfg.Gmail.Sender)
		if err != nil {
			return fmt.Errorf("failed to create gmail client: %w", err)
		}
	}
	return nil
}

// Close releases the storage backend
func (app *AppContext) Close() error {
	if app.Backend == nil {
		return nil
	}
	return app.Backend.Close()
}

func openBackend(ctx context.Context, cfg config.StorageConfig) (db.Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return db.NewMemoryBackend(), nil
	case config.BackendSQLite:
		return sqlite.Open(ctx, filepath.Join(cfg.Path, "portal.db"))
	case config.BackendPostgres:
		dsn, err := postgres.ResolveDSN(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		pg, err := postgres.NewDB(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := pg.RunMigrations(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	case config.BackendFile:
		return db.NewFileBackend(cfg.Path)
	}
	return nil, errors.New("unknown storage backend " + cfg.Backend)
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/cmd/cli/commands"
	"github.com/MaestroMatt79/marching-knights-portal/internal/config"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/utils/logging"
)

var (
	env string
	app *commands.AppContext
)

func main() {
	app = &commands.AppContext{
		Ctx: context.Background(),
	}

	rootCmd := &cobra.Command{
		Use:   "portal",
		Short: "Marching Knights Portal - absences, schedule and roster for the band",
		Long: `Runs the Marching Knights Portal API and manages its data from the command line:
absence requests, the event calendar, the student roster and Google Sheets sync.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				app.Logger.Sync()
			}
			if err := app.Close(); err != nil && app.Logger != nil {
				app.Logger.Warn("Failed to close storage", zap.Error(err))
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: dev, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.ListEventsCmd(app))
	rootCmd.AddCommand(commands.AddEventCmd(app))
	rootCmd.AddCommand(commands.WeeklyCmd(app))
	rootCmd.AddCommand(commands.ExportCalendarCmd(app))
	rootCmd.AddCommand(commands.ListAbsencesCmd(app))
	rootCmd.AddCommand(commands.DecideCmd(app))
	rootCmd.AddCommand(commands.ImportRosterCmd(app))
	rootCmd.AddCommand(commands.ImportRosterSheetCmd(app))
	rootCmd.AddCommand(commands.RosterTemplateCmd())
	rootCmd.AddCommand(commands.PingCmd(app))
	rootCmd.AddCommand(commands.SyncOutboxCmd(app))
	rootCmd.AddCommand(commands.MirrorHistoryCmd(app))
	rootCmd.AddCommand(commands.ResetDemoCmd(app))
	rootCmd.AddCommand(commands.StoreDatabaseSecretCmd())
	rootCmd.AddCommand(commands.InteractiveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up the logger and config, then opens storage unless the
// command is annotated as not needing it
func initApp(cmd *cobra.Command) error {
	var err error
	app.Env = env

	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Info("Starting portal", zap.String("environment", env))

	app.Cfg, err = config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded",
		zap.String("storage", app.Cfg.Storage.Backend),
		zap.String("sync_target", app.Cfg.Sync.Target))

	if cmd.Annotations[commands.AnnotationNoStore] == "true" {
		return nil
	}
	return app.Open()
}

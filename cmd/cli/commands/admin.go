package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/postgres"
)

// ResetDemoCmd creates the resetDemo command
func ResetDemoCmd(app *AppContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "resetDemo",
		Short: "Replace all stored data with the demo roster and schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("resetDemo discards every absence and event; re-run with --yes")
			}
			if err := app.Portal.ResetDemo(app.Ctx, Operator); err != nil {
				return err
			}
			doc := app.Store.Snapshot()
			fmt.Printf("✓ Demo data restored: %d students, %d events\n", len(doc.Students), len(doc.Events))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}

// StoreDatabaseSecretCmd creates the storeDatabaseSecret command
func StoreDatabaseSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "storeDatabaseSecret <postgres_dsn>",
		Short: "Save the Postgres connection string in the OS keyring",
		Args:  cobra.ExactArgs(1),
		Annotations: map[string]string{
			AnnotationNoStore: "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := postgres.StoreDSN(args[0]); err != nil {
				return err
			}
			fmt.Println("✓ Connection string saved to the keyring")
			return nil
		},
	}
}

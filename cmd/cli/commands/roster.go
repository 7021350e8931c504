package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/services"
)

func importMode(preview, replace bool) services.ImportMode {
	switch {
	case preview:
		return services.ImportPreview
	case replace:
		return services.ImportReplace
	}
	return services.ImportAppend
}

func printImport(result services.ImportResult) {
	if result.Mode == services.ImportPreview {
		fmt.Printf("\nPreview: %d students parsed (nothing saved)\n\n", len(result.Parsed))
		for _, s := range result.Parsed {
			fmt.Printf("  %-28s %-18s %s\n", s.Name, s.Section, s.Email)
		}
		fmt.Println()
		return
	}
	fmt.Printf("\n✓ Roster %s: %d parsed, %d students on roster\n\n", result.Mode, len(result.Parsed), len(result.Roster))
}

// ImportRosterCmd creates the importRoster command
func ImportRosterCmd(app *AppContext) *cobra.Command {
	var preview, replace bool

	cmd := &cobra.Command{
		Use:   "importRoster <csv_file>",
		Short: "Import students from a CSV file (appends unless --replace)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			result, err := app.Portal.ImportRoster(app.Ctx, Operator, string(data), importMode(preview, replace))
			if err != nil {
				return err
			}
			printImport(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&preview, "preview", false, "Show what would be imported without saving")
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the roster instead of appending")
	return cmd
}

// ImportRosterSheetCmd creates the importRosterSheet command
func ImportRosterSheetCmd(app *AppContext) *cobra.Command {
	var preview, replace bool

	cmd := &cobra.Command{
		Use:   "importRosterSheet",
		Short: "Import students from the configured Google Sheets roster range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Portal.ImportRosterSheet(app.Ctx, Operator, importMode(preview, replace))
			if err != nil {
				return err
			}
			printImport(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&preview, "preview", false, "Show what would be imported without saving")
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the roster instead of appending")
	return cmd
}

// RosterTemplateCmd creates the rosterTemplate command
func RosterTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rosterTemplate",
		Short: "Print a CSV template for roster imports",
		Args:  cobra.NoArgs,
		Annotations: map[string]string{
			AnnotationNoStore: "true",
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(services.RosterTemplate())
		},
	}
}

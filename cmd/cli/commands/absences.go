package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/store"
)

// ListAbsencesCmd creates the listAbsences command
func ListAbsencesCmd(app *AppContext) *cobra.Command {
	var status, section string

	cmd := &cobra.Command{
		Use:   "listAbsences",
		Short: "List absence requests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.AbsenceFilter{Section: section}
			if status != "" && !strings.EqualFold(status, "All") {
				filter.Status = model.AbsenceStatus(status)
				if !filter.Status.IsValid() {
					return fmt.Errorf("unknown status %q", status)
				}
			}

			absences := app.Portal.ListAbsences(Operator, filter)
			if len(absences) == 0 {
				fmt.Println("No absence requests")
				return nil
			}

			fmt.Println()
			for _, a := range absences {
				printAbsence(a)
			}
			fmt.Printf("\n%d request(s)\n\n", len(absences))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", string(model.StatusPending), "Pending, Approved, Denied, Cancelled or All")
	cmd.Flags().StringVar(&section, "section", "", "Only show students in this section")
	return cmd
}

// DecideCmd creates the decide command
func DecideCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "decide <absence_id> <Approved|Denied> [note]",
		Short: "Approve or deny an absence request",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			note := ""
			if len(args) == 3 {
				note = args[2]
			}

			result, err := app.Portal.DecideAbsence(app.Ctx, Operator, args[0], model.AbsenceStatus(args[1]), note)
			if err != nil {
				return err
			}

			fmt.Println()
			printAbsence(result.Absence)
			switch {
			case result.Sync.Warning != "":
				fmt.Printf("\n%s⚠ %s%s\n", colorYellow, result.Sync.Warning, colorReset)
			case result.Sync.Queued:
				fmt.Printf("\n%sQueued for sync; run syncOutbox or serve to deliver%s\n", colorDim, colorReset)
			}
			fmt.Println()
			return nil
		},
	}
}

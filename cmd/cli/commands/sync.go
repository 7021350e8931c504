package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// PingCmd creates the ping command
func PingCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the Apps Script connection through the sheets proxy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := app.Portal.TestConnection(app.Ctx, Operator)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Connected: %v\n", reply)
			return nil
		},
	}
}

// SyncOutboxCmd creates the syncOutbox command
func SyncOutboxCmd(app *AppContext) *cobra.Command {
	var list bool
	var retryID string
	var prune time.Duration

	cmd := &cobra.Command{
		Use:   "syncOutbox",
		Short: "Deliver queued sync entries, or inspect the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if retryID != "" {
				entry, err := app.Outbox.Retry(app.Ctx, retryID)
				if err != nil {
					return err
				}
				fmt.Printf("Re-queued %s (%s)\n", entry.ID, entry.Action)
			}

			if prune > 0 {
				removed, err := app.Outbox.Prune(app.Ctx, time.Now().Add(-prune))
				if err != nil {
					return err
				}
				fmt.Printf("Pruned %d sent entries\n", removed)
			}

			if list {
				entries := app.Outbox.Entries()
				if len(entries) == 0 {
					fmt.Println("Outbox is empty")
					return nil
				}
				fmt.Println()
				for _, e := range entries {
					fmt.Printf("%s%-8s%s %s  %-15s attempts=%d",
						entryColor(e.Status), e.Status, colorReset,
						e.ID, e.Action, e.Attempts)
					if e.LastError != "" {
						fmt.Printf("  %s%s%s", colorDim, truncate(e.LastError, 60), colorReset)
					}
					fmt.Println()
				}
				fmt.Println()
				return nil
			}

			pending := app.Outbox.Pending()
			app.Logger.Info("Flushing outbox", zap.Int("pending", pending))
			result, err := app.Outbox.Flush(app.Ctx)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Sent %d", result.Sent)
			if result.Retry > 0 {
				fmt.Printf(", %s%d will retry%s", colorYellow, result.Retry, colorReset)
			}
			if result.Failed > 0 {
				fmt.Printf(", %s%d failed%s", colorRed, result.Failed, colorReset)
			}
			fmt.Printf("\n\n")
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List queued entries instead of sending them")
	cmd.Flags().StringVar(&retryID, "retry", "", "Move a failed entry back to pending")
	cmd.Flags().DurationVar(&prune, "prune", 0, "Drop sent entries older than this, e.g. 720h")
	return cmd
}

// MirrorHistoryCmd creates the mirrorHistory command
func MirrorHistoryCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mirrorHistory <absence_id>",
		Short: "Show the status changes mirrored to the spreadsheet for one absence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Mirror == nil {
				return errors.New("the spreadsheet mirror is not configured (sync.target: sheetsApi)")
			}

			changes, err := app.Mirror.History(app.Ctx, args[0])
			if err != nil {
				return err
			}
			if len(changes) == 0 {
				fmt.Println("No mirrored status changes")
				return nil
			}

			fmt.Println()
			for _, c := range changes {
				fmt.Printf("%s  %-10s %s\n", c.ChangedAt, c.Status, c.DirectorNote)
			}
			fmt.Println()
			return nil
		},
	}
}

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/calendar"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/utils/dates"
)

// ListEventsCmd creates the listEvents command
func ListEventsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listEvents [query]",
		Short: "List events, optionally filtered by a search query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			events := app.Portal.SearchEvents(query)
			if len(events) == 0 {
				fmt.Println("No events found")
				return nil
			}

			fmt.Println()
			lastDate := ""
			for _, e := range events {
				if e.Date != lastDate {
					fmt.Printf("%s\n", e.Date)
					lastDate = e.Date
				}
				fmt.Printf("  %s %s(%s)%s\n", eventLine(e), colorDim, e.ID, colorReset)
			}
			fmt.Println()
			return nil
		},
	}
}

// AddEventCmd creates the addEvent command
func AddEventCmd(app *AppContext) *cobra.Command {
	var event model.Event
	var eventType, repeat string

	cmd := &cobra.Command{
		Use:   "addEvent <date> <title>",
		Short: "Add an event, or a series of events with --repeat",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			event.Date = args[0]
			event.Title = args[1]
			event.Type = model.EventType(eventType)
			if err := checkEventFlags(event, repeat); err != nil {
				return err
			}

			app.Logger.Debug("addEvent command", zap.String("date", event.Date), zap.String("repeat", repeat))

			created, err := app.Portal.CreateEvents(app.Ctx, Operator, event, repeat)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Created %d event(s)\n\n", len(created))
			for _, e := range created {
				fmt.Printf("  %s  %s\n", e.Date, eventLine(e))
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&eventType, "type", string(model.EventRehearsal), "Event type (rehearsal, sectional, parade, competition, game)")
	cmd.Flags().StringVar(&event.Start, "start", "", "Start time (HH:MM)")
	cmd.Flags().StringVar(&event.End, "end", "", "End time (HH:MM)")
	cmd.Flags().StringVar(&event.Location, "location", "", "Location")
	cmd.Flags().StringVar(&event.Plan, "plan", "", "Rehearsal plan or notes")
	cmd.Flags().StringVar(&repeat, "repeat", "", "RFC 5545 recurrence rule, e.g. FREQ=WEEKLY;BYDAY=TU,TH;COUNT=8")
	return cmd
}

// checkEventFlags rejects malformed flag values before anything is stored
func checkEventFlags(event model.Event, repeat string) error {
	if !dates.IsISODate(event.Date) {
		return fmt.Errorf("date %q must be YYYY-MM-DD", event.Date)
	}
	if !dates.IsClock(event.Start) {
		return fmt.Errorf("--start %q must be HH:MM", event.Start)
	}
	if !dates.IsClock(event.End) {
		return fmt.Errorf("--end %q must be HH:MM", event.End)
	}
	if !event.Type.IsValid() {
		return fmt.Errorf("unknown --type %q", event.Type)
	}
	if repeat != "" {
		return calendar.ValidateRule(repeat)
	}
	return nil
}

// WeeklyCmd creates the weekly command
func WeeklyCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "weekly [date]",
		Short: "Print the week containing date (default: this week)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := ""
			if len(args) == 1 {
				date = args[0]
			}

			week, err := app.Portal.Weekly(date)
			if err != nil {
				return err
			}

			fmt.Printf("\nWeek of %s\n\n", week[0].Date)
			for _, day := range week {
				fmt.Printf("%-9s %s\n", day.Weekday, day.Date)
				if len(day.Events) == 0 {
					fmt.Printf("  %s-%s\n", colorDim, colorReset)
				}
				for _, e := range day.Events {
					fmt.Printf("  %s\n", eventLine(e))
					if e.Plan != "" {
						fmt.Printf("    %s%s%s\n", colorDim, e.Plan, colorReset)
					}
				}
			}
			fmt.Println()
			return nil
		},
	}
}

// ExportCalendarCmd creates the exportCalendar command
func ExportCalendarCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "exportCalendar <file>",
		Short: "Write every event to an iCalendar (.ics) file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", args[0], err)
			}

			if err := app.Portal.ExportCalendar(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[0], err)
			}

			fmt.Printf("✓ Wrote %d events to %s\n", len(app.Store.Events()), args[0])
			return nil
		},
	}
}

package commands

import (
	"fmt"
	"strings"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/sheetsync"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
)

// statusColor picks the color an absence status is printed in
func statusColor(status model.AbsenceStatus) string {
	switch status {
	case model.StatusApproved:
		return colorGreen
	case model.StatusDenied:
		return colorRed
	case model.StatusCancelled:
		return colorDim
	}
	return colorYellow
}

// entryColor picks the color an outbox entry status is printed in
func entryColor(status sheetsync.EntryStatus) string {
	switch status {
	case sheetsync.StatusSent:
		return colorGreen
	case sheetsync.StatusFailed:
		return colorRed
	}
	return colorYellow
}

// timeRange renders an event's start and end, or "All day"
func timeRange(e model.Event) string {
	switch {
	case e.Start == "":
		return "All day"
	case e.End == "":
		return e.Start
	}
	return e.Start + "–" + e.End
}

// eventLine is the one-line summary used by listEvents and weekly
func eventLine(e model.Event) string {
	parts := []string{timeRange(e), e.Title, e.Type.Label()}
	if e.Location != "" {
		parts = append(parts, "@ "+e.Location)
	}
	return strings.Join(parts, "  ")
}

// truncate shortens s to n runes with an ellipsis
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + "…"
}

func printAbsence(a model.Absence) {
	fmt.Printf("%s%-10s%s %s  %-20s %-28s %s\n",
		statusColor(a.Status), a.Status, colorReset,
		a.ID, truncate(a.Student, 20), truncate(a.EventTitle, 28), a.Reason)
	if a.Note != "" {
		fmt.Printf("           %snote: %s%s\n", colorDim, a.Note, colorReset)
	}
	if a.DirectorNote != "" {
		fmt.Printf("           %sdirector: %s%s\n", colorDim, a.DirectorNote, colorReset)
	}
}

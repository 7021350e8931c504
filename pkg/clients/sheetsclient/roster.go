package sheetsclient

import (
	"context"
	"fmt"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/roster"
)

// ValueReader is the part of the client the roster import needs
type ValueReader interface {
	GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]any, error)
}

// ListStudents reads a roster tab and parses it with the same header rules
// as a CSV import
func ListStudents(ctx context.Context, reader ValueReader, spreadsheetID, sheetRange string) ([]model.Student, error) {
	values, err := reader.GetValues(ctx, spreadsheetID, sheetRange)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster data: %w", err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("roster range %s is empty", sheetRange)
	}

	return roster.ParseRows(cellsToStrings(values)), nil
}

// cellsToStrings converts sheet cells to text; the API returns formatted strings
// but numbers can appear when value rendering is unformatted
func cellsToStrings(values [][]any) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, cell := range row {
			switch v := cell.(type) {
			case nil:
			case string:
				cells[j] = v
			default:
				cells[j] = fmt.Sprint(v)
			}
		}
		rows[i] = cells
	}
	return rows
}

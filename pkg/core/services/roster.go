package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/clients/sheetsclient"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/roster"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/store"
)

// ImportMode says what an import does with the parsed students
type ImportMode string

const (
	ImportPreview ImportMode = "preview"
	ImportAppend  ImportMode = "append"
	ImportReplace ImportMode = "replace"
)

// ErrRosterSheetUnavailable is returned when no roster spreadsheet is configured
var ErrRosterSheetUnavailable = errors.New("roster spreadsheet is not configured")

// ImportResult holds the parsed students and, unless previewing, the roster after the import
type ImportResult struct {
	Mode   ImportMode      `json:"mode"`
	Parsed []model.Student `json:"parsed"`
	Roster []model.Student `json:"roster,omitempty"`
}

// ImportRoster parses CSV text and previews, appends or replaces the roster.
// Previews are open to anyone; the other modes need the director.
func (p *Portal) ImportRoster(ctx context.Context, actor model.Actor, csvText string, mode ImportMode) (ImportResult, error) {
	return p.applyImport(ctx, actor, roster.ParseCSV(csvText), mode)
}

// ImportRosterSheet reads the configured roster range from Google Sheets and
// applies it like a CSV import
func (p *Portal) ImportRosterSheet(ctx context.Context, actor model.Actor, mode ImportMode) (ImportResult, error) {
	if p.sheets == nil || p.cfg.Sheets.SpreadsheetID == "" {
		return ImportResult{}, ErrRosterSheetUnavailable
	}
	if mode != ImportPreview {
		if err := requireDirector(actor); err != nil {
			return ImportResult{}, err
		}
	}

	students, err := sheetsclient.ListStudents(ctx, p.sheets, p.cfg.Sheets.SpreadsheetID, p.cfg.Sheets.RosterRange)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to read roster sheet: %w", err)
	}
	return p.applyImport(ctx, actor, students, mode)
}

func (p *Portal) applyImport(ctx context.Context, actor model.Actor, parsed []model.Student, mode ImportMode) (ImportResult, error) {
	if mode == "" {
		mode = ImportPreview
	}
	if mode != ImportPreview && mode != ImportAppend && mode != ImportReplace {
		return ImportResult{}, &store.ValidationError{Field: "mode", Message: fmt.Sprintf("unknown import mode %q", mode)}
	}
	if len(parsed) == 0 {
		return ImportResult{}, &store.ValidationError{Field: "csv", Message: "no students found"}
	}

	result := ImportResult{Mode: mode, Parsed: parsed}
	if mode == ImportPreview {
		return result, nil
	}

	var err error
	records := roster.FromStudents(parsed)
	if mode == ImportReplace {
		result.Roster, err = p.store.ReplaceRoster(ctx, actor, records)
	} else {
		result.Roster, err = p.store.AddStudents(ctx, actor, records)
	}
	if err != nil {
		return ImportResult{}, err
	}

	p.logger.Info("Imported roster",
		zap.String("mode", string(mode)),
		zap.Int("parsed", len(parsed)),
		zap.Int("roster", len(result.Roster)))
	return result, nil
}

// RosterTemplate returns the CSV header offered for download
func RosterTemplate() string {
	return roster.TemplateCSV
}

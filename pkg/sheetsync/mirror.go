package sheetsync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/sheetssql"
)

// AbsenceRecord is one row of the absence_record tab
type AbsenceRecord struct {
	ID           string `ssql_header:"id" ssql_type:"text"`
	EventID      string `ssql_header:"event_id" ssql_type:"text"`
	EventTitle   string `ssql_header:"event_title" ssql_type:"text"`
	Student      string `ssql_header:"student" ssql_type:"text"`
	StudentEmail string `ssql_header:"student_email" ssql_type:"text"`
	Reason       string `ssql_header:"reason" ssql_type:"text"`
	Note         string `ssql_header:"note" ssql_type:"text"`
	Status       string `ssql_header:"status" ssql_type:"text"`
	SubmittedAt  string `ssql_header:"submitted_at" ssql_type:"timestamp"`
}

// AbsenceStatusChange is one row of the absence_status_change tab.
// The tab is append-only, so the latest row per absence is its current status.
type AbsenceStatusChange struct {
	AbsenceID    string `ssql_header:"absence_id" ssql_type:"text"`
	Status       string `ssql_header:"status" ssql_type:"text"`
	DirectorNote string `ssql_header:"director_note" ssql_type:"text"`
	ChangedAt    string `ssql_header:"changed_at" ssql_type:"timestamp"`
}

// MirrorSchema returns the tables the mirror writes
func MirrorSchema() (*sheetssql.Schema, error) {
	return sheetssql.SchemaFromModels(AbsenceRecord{}, AbsenceStatusChange{})
}

// SheetsMirror writes absence changes straight into a spreadsheet through the
// Sheets API, for deployments without an Apps Script
type SheetsMirror struct {
	db  *sheetssql.DB
	now func() time.Time
}

// NewSheetsMirror prepares the mirror tables in spreadsheetID
func NewSheetsMirror(ctx context.Context, client sheetssql.SheetsClient, spreadsheetID string) (*SheetsMirror, error) {
	schema, err := MirrorSchema()
	if err != nil {
		return nil, err
	}

	db, err := sheetssql.NewDB(ctx, client, spreadsheetID, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror spreadsheet: %w", err)
	}

	return &SheetsMirror{db: db, now: time.Now}, nil
}

func (m *SheetsMirror) Send(ctx context.Context, action string, payload json.RawMessage) error {
	switch action {
	case ActionCreateAbsence:
		var p CreateAbsencePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return Permanent(fmt.Errorf("failed to decode %s payload: %w", action, err))
		}
		a := p.Record
		return sheetssql.InsertModel(ctx, m.db, AbsenceRecord{
			ID:           a.ID,
			EventID:      a.EventID,
			EventTitle:   a.EventTitle,
			Student:      a.Student,
			StudentEmail: a.StudentEmail,
			Reason:       string(a.Reason),
			Note:         a.Note,
			Status:       string(a.Status),
			SubmittedAt:  a.SubmittedAt,
		})

	case ActionUpdateStatus:
		var p UpdateStatusPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return Permanent(fmt.Errorf("failed to decode %s payload: %w", action, err))
		}
		return sheetssql.InsertModel(ctx, m.db, AbsenceStatusChange{
			AbsenceID:    p.ID,
			Status:       string(p.Status),
			DirectorNote: p.DirectorNote,
			ChangedAt:    m.now().UTC().Format(time.RFC3339),
		})
	}

	return Permanent(fmt.Errorf("sheets mirror cannot handle action %q", action))
}

// History returns the mirrored status changes for one absence, oldest first
func (m *SheetsMirror) History(ctx context.Context, absenceID string) ([]AbsenceStatusChange, error) {
	changes, err := sheetssql.GetTableAs[AbsenceStatusChange](ctx, m.db, "absence_status_change")
	if err != nil {
		return nil, err
	}

	var out []AbsenceStatusChange
	for _, c := range changes {
		if c.AbsenceID == absenceID {
			out = append(out, c)
		}
	}
	return out, nil
}

package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/sheetsync"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/store"
)

// AbsenceResult is a changed absence plus what happened to its mirror copy
type AbsenceResult struct {
	Absence model.Absence `json:"absence"`
	Sync    SyncOutcome   `json:"sync"`
}

// SubmitAbsence records the request and queues a createAbsence mirror
func (p *Portal) SubmitAbsence(ctx context.Context, actor model.Actor, req store.AbsenceRequest) (AbsenceResult, error) {
	absence, err := p.store.SubmitAbsence(ctx, actor, req)
	if err != nil {
		return AbsenceResult{}, err
	}
	p.logger.Info("Absence submitted",
		zap.String("id", absence.ID),
		zap.String("student", absence.Student),
		zap.String("event", absence.EventID))

	result := AbsenceResult{Absence: absence}
	if p.syncEnabled() {
		result.Sync = p.enqueue(ctx, sheetsync.ActionCreateAbsence, sheetsync.CreateAbsencePayload{Record: absence})
	}
	return result, nil
}

// CancelAbsence withdraws a pending request and mirrors the new status
func (p *Portal) CancelAbsence(ctx context.Context, actor model.Actor, id string) (AbsenceResult, error) {
	absence, err := p.store.CancelAbsence(ctx, actor, id)
	if err != nil {
		return AbsenceResult{}, err
	}
	p.logger.Info("Absence cancelled", zap.String("id", id), zap.String("student", absence.Student))

	result := AbsenceResult{Absence: absence}
	if p.syncEnabled() {
		result.Sync = p.enqueue(ctx, sheetsync.ActionUpdateStatus, statusPayload(absence))
	}
	return result, nil
}

// DecideAbsence applies the director's decision, mirrors it and, when
// e-mail is enabled, queues a notice to the student
func (p *Portal) DecideAbsence(ctx context.Context, actor model.Actor, id string, status model.AbsenceStatus, note string) (AbsenceResult, error) {
	absence, err := p.store.DecideAbsence(ctx, actor, id, status, note)
	if err != nil {
		return AbsenceResult{}, err
	}
	p.logger.Info("Absence decided", zap.String("id", id), zap.String("status", string(absence.Status)))

	result := AbsenceResult{Absence: absence}
	if p.syncEnabled() {
		result.Sync = p.enqueue(ctx, sheetsync.ActionUpdateStatus, statusPayload(absence))
	}
	if p.queue != nil && p.cfg.Gmail.Enabled {
		notice := absence
		notice.EventTitle = p.store.EventLabel(absence.EventID)
		if outcome := p.enqueue(ctx, sheetsync.ActionNotifyDecision, sheetsync.NotifyDecisionPayload{Absence: notice}); outcome.Warning != "" {
			result.Sync.Warning = outcome.Warning
		}
	}
	return result, nil
}

// ListAbsences returns what actor may see, decorated with current event titles
func (p *Portal) ListAbsences(actor model.Actor, filter store.AbsenceFilter) []model.Absence {
	absences := p.store.ListAbsences(actor, filter)
	for i := range absences {
		absences[i].EventTitle = p.store.EventLabel(absences[i].EventID)
	}
	return absences
}

func statusPayload(a model.Absence) sheetsync.UpdateStatusPayload {
	return sheetsync.UpdateStatusPayload{ID: a.ID, Status: a.Status, DirectorNote: a.DirectorNote}
}

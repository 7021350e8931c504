package sheetsync

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
)

// EmailSender is the part of the Gmail client the mailer needs
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// DecisionMailer tells a student by e-mail that the director decided their request
type DecisionMailer struct {
	email  EmailSender
	logger *zap.Logger
}

func NewDecisionMailer(email EmailSender, logger *zap.Logger) *DecisionMailer {
	return &DecisionMailer{email: email, logger: logger}
}

func (m *DecisionMailer) Send(ctx context.Context, action string, payload json.RawMessage) error {
	if action != ActionNotifyDecision {
		return Permanent(fmt.Errorf("decision mailer cannot handle action %q", action))
	}

	var p NotifyDecisionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Permanent(fmt.Errorf("failed to decode %s payload: %w", action, err))
	}

	a := p.Absence
	if a.StudentEmail == "" {
		m.logger.Debug("No e-mail on file, skipping decision notice", zap.String("student", a.Student))
		return nil
	}

	subject, body := DecisionEmail(a)
	return m.email.SendEmail(ctx, a.StudentEmail, subject, body)
}

// DecisionEmail renders the notice for a decided absence
func DecisionEmail(a model.Absence) (subject, body string) {
	title := a.EventTitle
	if title == "" {
		title = model.UnknownEventLabel
	}

	subject = fmt.Sprintf("Absence %s: %s", strings.ToLower(string(a.Status)), title)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", a.Student)
	fmt.Fprintf(&b, "Your absence request for %s (%s) was %s.\n", title, a.Reason, strings.ToLower(string(a.Status)))
	if a.DirectorNote != "" {
		fmt.Fprintf(&b, "\nDirector's note: %s\n", a.DirectorNote)
	}
	b.WriteString("\nMarching Knights\n")
	return subject, b.String()
}

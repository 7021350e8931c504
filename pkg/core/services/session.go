package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/roster"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/store"
)

// StudentSignIn is what the student sign-in form submits
type StudentSignIn struct {
	Name     string `json:"name"`
	Section  string `json:"section"`
	Email    string `json:"email"`
	Register bool   `json:"register"`
}

// SignInStudent opens a student session. With Register set an unknown name
// is added to the roster first; otherwise the name must already be on it.
func (p *Portal) SignInStudent(ctx context.Context, in StudentSignIn) (model.Session, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Session{}, &store.ValidationError{Field: "name", Message: "is required"}
	}

	var student model.Student
	if in.Register {
		registered, err := p.store.RegisterStudent(ctx, roster.Record{Name: name, Section: in.Section, Email: in.Email})
		if err != nil {
			return model.Session{}, err
		}
		student = registered
	} else {
		found, ok := findStudent(p.store.Students(), name)
		if !ok {
			return model.Session{}, fmt.Errorf("student %q: %w", name, store.ErrNotFound)
		}
		student = found
	}

	session, err := p.sessions.Create(ctx, model.StudentActor(student.Name))
	if err != nil {
		return model.Session{}, err
	}
	p.logger.Info("Student signed in", zap.String("student", student.Name))
	return session, nil
}

// SignInDirector opens a director session when pin matches the settings
func (p *Portal) SignInDirector(ctx context.Context, pin string) (model.Session, error) {
	if !p.store.VerifyDirectorPIN(strings.TrimSpace(pin)) {
		p.logger.Warn("Director sign-in with incorrect PIN")
		return model.Session{}, fmt.Errorf("%w: incorrect PIN", store.ErrForbidden)
	}

	session, err := p.sessions.Create(ctx, model.Director)
	if err != nil {
		return model.Session{}, err
	}
	p.logger.Info("Director signed in")
	return session, nil
}

// SignOut ends the session for token
func (p *Portal) SignOut(ctx context.Context, token string) error {
	return p.sessions.Revoke(ctx, token)
}

// findStudent matches names case-insensitively, like the roster's uniqueness rule
func findStudent(students []model.Student, name string) (model.Student, bool) {
	for _, s := range students {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return model.Student{}, false
}

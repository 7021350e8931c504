package store

import (
	"context"
	"strings"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/roster"
)

// Students returns the roster sorted by name
func (s *Store) Students() []model.Student {
	return s.Snapshot().Students
}

// Sections returns the distinct roster sections
func (s *Store) Sections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return roster.Sections(s.doc.Students)
}

// ReplaceRoster discards the current roster in favour of records
func (s *Store) ReplaceRoster(ctx context.Context, actor model.Actor, records []roster.Record) ([]model.Student, error) {
	if err := requireRole(actor, model.RoleDirector); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commitRoster(ctx, roster.Normalize(records))
}

// AddStudents appends records to the roster. Existing names win over duplicates.
func (s *Store) AddStudents(ctx context.Context, actor model.Actor, records []roster.Record) ([]model.Student, error) {
	if err := requireRole(actor, model.RoleDirector); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := append(roster.FromStudents(s.doc.Students), records...)
	return s.commitRoster(ctx, roster.Normalize(merged))
}

// RegisterStudent adds a student who signs in with a name not yet on the
// roster. Any role may register; an existing name is returned unchanged.
func (s *Store) RegisterStudent(ctx context.Context, record roster.Record) (model.Student, error) {
	name := strings.TrimSpace(record.Name)
	if name == "" {
		return model.Student{}, invalid("name", "is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.doc.Students {
		if strings.EqualFold(st.Name, name) {
			return st, nil
		}
	}

	merged := append(roster.FromStudents(s.doc.Students), record)
	students, err := s.commitRoster(ctx, roster.Normalize(merged))
	if err != nil {
		return model.Student{}, err
	}
	st, _ := roster.Find(students, name)
	return st, nil
}

// commitRoster swaps in a normalized roster; callers hold s.mu
func (s *Store) commitRoster(ctx context.Context, students []model.Student) ([]model.Student, error) {
	next := s.doc
	next.Students = students
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return append([]model.Student(nil), students...), nil
}

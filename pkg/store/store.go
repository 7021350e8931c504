package store

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/roster"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/db"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/utils/ids"
)

// Store owns the portal document. Reads return copies; every mutation is
// written through the backend before it becomes visible.
type Store struct {
	mu       sync.RWMutex
	backend  db.Backend
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
	loc      *time.Location

	doc model.Document
}

// Option customizes a Store at Open
type Option func(*Store)

// WithClock overrides the clock used for submission timestamps and demo dates
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the local timezone used to place the demo events
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// AbsenceRequest is what a student submits for an event
type AbsenceRequest struct {
	EventID string       `json:"eventId"`
	Reason  model.Reason `json:"reason"`
	Note    string       `json:"note"`
}

// AbsenceFilter narrows ListAbsences; zero values match everything
type AbsenceFilter struct {
	Status  model.AbsenceStatus
	Section string
}

// storedDocument is the on-disk shape, loose enough to accept older documents
type storedDocument struct {
	Students []roster.Record `json:"students"`
	Events   []model.Event   `json:"events"`
	Absences []model.Absence `json:"absences"`
	Settings *storedSettings `json:"settings"`
}

type storedSettings struct {
	ScriptURL        string  `json:"scriptUrl"`
	EnableSheetsSync bool    `json:"enableSheetsSync"`
	DirectorPin      *string `json:"directorPin"`
}

// Open loads the document from the backend. A missing or unreadable document
// is replaced by the seeded default; only backend failures are returned.
func Open(ctx context.Context, backend db.Backend, logger *zap.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		backend:  backend,
		logger:   logger,
		validate: newValidator(),
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}

	data, err := backend.Get(ctx, db.KeyDocument)
	switch {
	case errors.Is(err, db.ErrNotFound):
		logger.Debug("No stored document, seeding defaults")
		return s, s.seed(ctx)
	case err != nil:
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	doc, err := decodeDocument(data)
	if err != nil {
		logger.Warn("Stored document is corrupt, seeding defaults", zap.Error(err))
		return s, s.seed(ctx)
	}

	s.doc = doc
	logger.Debug("Loaded document",
		zap.Int("students", len(doc.Students)),
		zap.Int("events", len(doc.Events)),
		zap.Int("absences", len(doc.Absences)))
	return s, nil
}

func decodeDocument(data []byte) (model.Document, error) {
	var stored storedDocument
	if err := json.Unmarshal(data, &stored); err != nil {
		return model.Document{}, err
	}

	doc := model.Document{
		Students: roster.Normalize(stored.Students),
		Events:   stored.Events,
		Absences: stored.Absences,
		Settings: model.DefaultSettings(),
	}
	if doc.Events == nil {
		doc.Events = []model.Event{}
	}
	if doc.Absences == nil {
		doc.Absences = []model.Absence{}
	}
	if stored.Settings != nil {
		doc.Settings.ScriptURL = stored.Settings.ScriptURL
		doc.Settings.EnableSheetsSync = stored.Settings.EnableSheetsSync
		if stored.Settings.DirectorPin != nil && *stored.Settings.DirectorPin != "" {
			doc.Settings.DirectorPin = *stored.Settings.DirectorPin
		}
	}
	return doc, nil
}

// seed installs the default document and tries to persist it. A failed write
// is logged; the next successful mutation persists the document anyway.
func (s *Store) seed(ctx context.Context) error {
	doc := DefaultDocument(s.now().In(s.loc))
	if err := s.commit(ctx, doc); err != nil {
		s.logger.Warn("Failed to persist seeded document", zap.Error(err))
		s.doc = doc
	}
	return nil
}

// commit persists next and, only on success, makes it the current document.
// Callers hold s.mu for writing.
func (s *Store) commit(ctx context.Context, next model.Document) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := s.backend.Put(ctx, db.KeyDocument, data); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	s.doc = next
	return nil
}

func requireRole(actor model.Actor, role model.Role) error {
	if actor.Role != role {
		return fmt.Errorf("%w: requires %s role", ErrForbidden, role)
	}
	if role == model.RoleStudent && strings.TrimSpace(actor.Name) == "" {
		return fmt.Errorf("%w: student session has no name", ErrForbidden)
	}
	return nil
}

// Snapshot returns a deep copy of the current document
func (s *Store) Snapshot() model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return model.Document{
		Students: slices.Clone(s.doc.Students),
		Events:   slices.Clone(s.doc.Events),
		Absences: slices.Clone(s.doc.Absences),
		Settings: s.doc.Settings,
	}
}

// Reset restores the seeded default document
func (s *Store) Reset(ctx context.Context, actor model.Actor) error {
	if err := requireRole(actor, model.RoleDirector); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, DefaultDocument(s.now().In(s.loc))); err != nil {
		return err
	}
	s.logger.Info("Reset document to demo data")
	return nil
}

// Settings returns the current settings
func (s *Store) Settings() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Settings
}

// SaveSettings replaces the settings. An empty PIN stores the default PIN.
func (s *Store) SaveSettings(ctx context.Context, actor model.Actor, settings model.Settings) (model.Settings, error) {
	if err := requireRole(actor, model.RoleDirector); err != nil {
		return model.Settings{}, err
	}

	settings.ScriptURL = strings.TrimSpace(settings.ScriptURL)
	settings.DirectorPin = strings.TrimSpace(settings.DirectorPin)
	if settings.ScriptURL != "" && !model.IsScriptURL(settings.ScriptURL) {
		return model.Settings{}, invalid("scriptUrl", "must be a deployed Apps Script URL ending in /exec")
	}
	if settings.DirectorPin == "" {
		settings.DirectorPin = model.DefaultDirectorPIN
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc
	next.Settings = settings
	if err := s.commit(ctx, next); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

// VerifyDirectorPIN compares pin with the configured director PIN
func (s *Store) VerifyDirectorPIN(pin string) bool {
	expected := s.Settings().DirectorPin
	return subtle.ConstantTimeCompare([]byte(pin), []byte(expected)) == 1
}

// ListAbsences returns absences visible to actor, newest first. Students
// only see their own requests.
func (s *Store) ListAbsences(actor model.Actor, filter AbsenceFilter) []model.Absence {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sections := make(map[string]string, len(s.doc.Students))
	for _, st := range s.doc.Students {
		sections[st.Name] = st.Section
	}

	out := make([]model.Absence, 0, len(s.doc.Absences))
	for _, a := range s.doc.Absences {
		if actor.Role == model.RoleStudent && a.Student != actor.Name {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Section != "" && !strings.EqualFold(sections[a.Student], filter.Section) {
			continue
		}
		out = append(out, a)
	}

	// RFC 3339 UTC timestamps order lexically
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt > out[j].SubmittedAt
	})
	return out
}

// Absence returns the absence with the given id
func (s *Store) Absence(id string) (model.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.doc.Absences {
		if a.ID == id {
			return a, nil
		}
	}
	return model.Absence{}, fmt.Errorf("absence %s: %w", id, ErrNotFound)
}

// SubmitAbsence records a pending absence request for the signed-in student
func (s *Store) SubmitAbsence(ctx context.Context, actor model.Actor, req AbsenceRequest) (model.Absence, error) {
	if err := requireRole(actor, model.RoleStudent); err != nil {
		return model.Absence{}, err
	}
	if req.Reason == "" {
		return model.Absence{}, invalid("reason", "is required")
	}
	if !req.Reason.IsValid() {
		return model.Absence{}, invalid("reason", "unknown reason %q", req.Reason)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.eventIndex(req.EventID)
	if idx < 0 {
		return model.Absence{}, fmt.Errorf("event %s: %w", req.EventID, ErrNotFound)
	}
	event := s.doc.Events[idx]

	var email string
	if st, ok := roster.Find(s.doc.Students, actor.Name); ok {
		email = st.Email
	}

	absence := model.Absence{
		ID:           ids.New(),
		EventID:      event.ID,
		EventTitle:   event.Title,
		Student:      actor.Name,
		StudentEmail: email,
		Reason:       req.Reason,
		Note:         strings.TrimSpace(req.Note),
		Status:       model.StatusPending,
		SubmittedAt:  s.now().UTC().Format(time.RFC3339),
	}

	next := s.doc
	next.Absences = append([]model.Absence{absence}, s.doc.Absences...)
	if err := s.commit(ctx, next); err != nil {
		return model.Absence{}, err
	}
	return absence, nil
}

// CancelAbsence withdraws the actor's own pending request
func (s *Store) CancelAbsence(ctx context.Context, actor model.Actor, id string) (model.Absence, error) {
	if err := requireRole(actor, model.RoleStudent); err != nil {
		return model.Absence{}, err
	}

	return s.updateAbsence(ctx, id, func(a *model.Absence) error {
		if a.Student != actor.Name {
			return fmt.Errorf("%w: absence belongs to another student", ErrForbidden)
		}
		if a.Status != model.StatusPending {
			return fmt.Errorf("%w: cannot cancel a %s request", ErrInvalidTransition, a.Status)
		}
		a.Status = model.StatusCancelled
		return nil
	})
}

// DecideAbsence approves or denies a request with an optional note
func (s *Store) DecideAbsence(ctx context.Context, actor model.Actor, id string, status model.AbsenceStatus, note string) (model.Absence, error) {
	if err := requireRole(actor, model.RoleDirector); err != nil {
		return model.Absence{}, err
	}
	if !status.IsDecision() {
		return model.Absence{}, invalid("status", "must be %s or %s", model.StatusApproved, model.StatusDenied)
	}

	return s.updateAbsence(ctx, id, func(a *model.Absence) error {
		if a.Status == model.StatusCancelled {
			return fmt.Errorf("%w: request was cancelled", ErrInvalidTransition)
		}
		a.Status = status
		a.DirectorNote = strings.TrimSpace(note)
		return nil
	})
}

func (s *Store) updateAbsence(ctx context.Context, id string, change func(*model.Absence) error) (model.Absence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.doc.Absences, func(a model.Absence) bool { return a.ID == id })
	if idx < 0 {
		return model.Absence{}, fmt.Errorf("absence %s: %w", id, ErrNotFound)
	}

	updated := s.doc.Absences[idx]
	if err := change(&updated); err != nil {
		return model.Absence{}, err
	}

	next := s.doc
	next.Absences = slices.Clone(s.doc.Absences)
	next.Absences[idx] = updated
	if err := s.commit(ctx, next); err != nil {
		return model.Absence{}, err
	}
	return updated, nil
}

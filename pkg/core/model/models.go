package model

import (
	"regexp"
	"time"
)

// DefaultDirectorPIN is used whenever no PIN has been configured
const DefaultDirectorPIN = "2468"

// UnknownEventLabel is shown for absences whose event no longer exists
const UnknownEventLabel = "(event)"

// scriptURLPattern is the only upstream shape the sync proxy will relay to
var scriptURLPattern = regexp.MustCompile(`^https://script\.google\.com/macros/s/.+/exec$`)

// IsScriptURL reports whether u is a deployed Apps Script web app URL
func IsScriptURL(u string) bool {
	return scriptURLPattern.MatchString(u)
}

type Role string

const (
	RoleGuest    Role = ""
	RoleStudent  Role = "student"
	RoleDirector Role = "director"
)

func (r Role) IsValid() bool {
	return r == RoleGuest || r == RoleStudent || r == RoleDirector
}

// Actor identifies who is asking the store to change something
type Actor struct {
	Role Role
	Name string // Only set for students
}

// Guest is the actor for requests without a session
var Guest = Actor{Role: RoleGuest}

// Director is the actor for the director role
var Director = Actor{Role: RoleDirector}

// StudentActor returns the actor for a signed-in student
func StudentActor(name string) Actor {
	return Actor{Role: RoleStudent, Name: name}
}

// Student is a roster entry; Name is unique under case-insensitive comparison
type Student struct {
	Name    string `json:"name"`
	Section string `json:"section"`
	Email   string `json:"email"`
}

type EventType string

const (
	EventRehearsal   EventType = "rehearsal"
	EventSectional   EventType = "sectional"
	EventParade      EventType = "parade"
	EventCompetition EventType = "competition"
	EventGame        EventType = "game"
)

var eventTypeLabels = map[EventType]string{
	EventRehearsal:   "Rehearsal",
	EventSectional:   "Sectional",
	EventParade:      "Parade",
	EventCompetition: "Competition",
	EventGame:        "Football Game",
}

func (t EventType) IsValid() bool {
	_, ok := eventTypeLabels[t]
	return ok
}

// Label returns the display name for the event type
func (t EventType) Label() string {
	if label, ok := eventTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// Event is a scheduled ensemble activity
type Event struct {
	ID       string    `json:"id"`
	Date     string    `json:"date" validate:"required,datetime=2006-01-02"`
	Start    string    `json:"start" validate:"omitempty,datetime=15:04"`
	End      string    `json:"end" validate:"omitempty,datetime=15:04"`
	Title    string    `json:"title"`
	Type     EventType `json:"type" validate:"required,oneof=rehearsal sectional parade competition game"`
	Location string    `json:"location"`
	Plan     string    `json:"plan"`
}

type Reason string

const (
	ReasonIllness        Reason = "Illness"
	ReasonFamily         Reason = "Family obligation"
	ReasonWork           Reason = "Work"
	ReasonTransportation Reason = "Transportation"
	ReasonSchoolActivity Reason = "School activity"
	ReasonOther          Reason = "Other"
)

// Reasons lists the accepted absence reasons in display order
var Reasons = []Reason{
	ReasonIllness,
	ReasonFamily,
	ReasonWork,
	ReasonTransportation,
	ReasonSchoolActivity,
	ReasonOther,
}

func (r Reason) IsValid() bool {
	for _, known := range Reasons {
		if r == known {
			return true
		}
	}
	return false
}

type AbsenceStatus string

const (
	StatusPending   AbsenceStatus = "Pending"
	StatusApproved  AbsenceStatus = "Approved"
	StatusDenied    AbsenceStatus = "Denied"
	StatusCancelled AbsenceStatus = "Cancelled"
)

func (s AbsenceStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied, StatusCancelled:
		return true
	}
	return false
}

// IsDecision reports whether s is a status a director may set
func (s AbsenceStatus) IsDecision() bool {
	return s == StatusApproved || s == StatusDenied
}

// Absence is a student's request to be excused from an event.
// After creation only Status and DirectorNote change.
type Absence struct {
	ID           string        `json:"id"`
	EventID      string        `json:"eventId"`
	EventTitle   string        `json:"eventTitle,omitempty"`
	Student      string        `json:"student"`
	StudentEmail string        `json:"studentEmail"`
	Reason       Reason        `json:"reason"`
	Note         string        `json:"note"`
	Status       AbsenceStatus `json:"status"`
	DirectorNote string        `json:"directorNote"`
	SubmittedAt  string        `json:"submittedAt"`
}

// Settings is the process-wide configuration edited by the director
type Settings struct {
	ScriptURL        string `json:"scriptUrl"`
	EnableSheetsSync bool   `json:"enableSheetsSync"`
	DirectorPin      string `json:"directorPin"`
}

// SyncEnabled reports whether absence changes should be mirrored
func (s Settings) SyncEnabled() bool {
	return s.EnableSheetsSync && s.ScriptURL != ""
}

// DefaultSettings returns settings for a fresh install
func DefaultSettings() Settings {
	return Settings{DirectorPin: DefaultDirectorPIN}
}

// Document is everything the store persists under a single key
type Document struct {
	Students []Student `json:"students"`
	Events   []Event   `json:"events"`
	Absences []Absence `json:"absences"`
	Settings Settings  `json:"settings"`
}

// Session binds a bearer token to a role until it expires
type Session struct {
	Token     string    `json:"token"`
	Role      Role      `json:"role"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Actor returns the actor a session acts as
func (s Session) Actor() Actor {
	return Actor{Role: s.Role, Name: s.Name}
}

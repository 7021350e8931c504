package store

import (
	"time"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/roster"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/utils/dates"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/utils/ids"
)

var demoStudents = []model.Student{
	{Name: "Max Gray", Section: "Drum Major", Email: "max@example.com"},
	{Name: "Asher Higgs", Section: "Field Commander", Email: "asher@example.com"},
	{Name: "Danica Stup", Section: "Guard"},
	{Name: "Loralie Hegg", Section: "Guard"},
	{Name: "Dainon Johnson", Section: "Percussion"},
	{Name: "Jasper Holmes", Section: "Percussion"},
	{Name: "Maddie Ware", Section: "Flute"},
	{Name: "Jackson Brewer", Section: "Trumpet"},
	{Name: "Jason Koster", Section: "Low Brass"},
	{Name: "Avery Clayton", Section: "Saxophone"},
}

// DefaultDocument returns the seeded document used on first run and after a reset.
// Demo events are placed relative to today.
func DefaultDocument(today time.Time) model.Document {
	return model.Document{
		Students: roster.Normalize(roster.FromStudents(demoStudents)),
		Events: []model.Event{
			{
				ID:       ids.New(),
				Date:     dates.AddDaysISO(today, 0),
				Start:    "15:30",
				End:      "18:00",
				Title:    "Full Ensemble Rehearsal",
				Type:     model.EventRehearsal,
				Location: "MHS Stadium",
				Plan:     "Warm-ups (15) → Visual (20) → Music arcs (30) → Sets 1–15 (45) → Full run (10) → Announcements",
			},
			{
				ID:       ids.New(),
				Date:     dates.AddDaysISO(today, 2),
				Start:    "16:00",
				End:      "18:00",
				Title:    "Low Brass Sectional",
				Type:     model.EventSectional,
				Location: "Band Room",
				Plan:     "Long tones, articulation, m. 37–52.",
			},
			{
				ID:       ids.New(),
				Date:     dates.AddDaysISO(today, 5),
				Start:    "18:30",
				End:      "21:00",
				Title:    "Home Game vs Walkersville",
				Type:     model.EventGame,
				Location: "MHS Stadium",
				Plan:     "Report 5:30 • Arc behind scoreboard • Pregame + Halftime: Top Gun medley.",
			},
		},
		Absences: []model.Absence{},
		Settings: model.DefaultSettings(),
	}
}

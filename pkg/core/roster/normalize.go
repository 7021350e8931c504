package roster

import (
	"encoding/json"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
)

// Record is a loosely shaped roster entry as it arrives from storage,
// a sign-in form or an import. It decodes from either a bare JSON string
// (treated as a name) or an object that may use the legacy "instrument" key.
type Record struct {
	Name       string
	Section    string
	Instrument string
	Email      string
}

// UnmarshalJSON accepts "Jane Doe" as well as {"name": "Jane Doe", ...}
func (r *Record) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*r = Record{Name: name}
		return nil
	}

	var raw struct {
		Name       string `json:"name"`
		Section    string `json:"section"`
		Instrument string `json:"instrument"`
		Email      string `json:"email"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Record{
		Name:       raw.Name,
		Section:    raw.Section,
		Instrument: raw.Instrument,
		Email:      raw.Email,
	}
	return nil
}

// FromStudents converts clean students back into records, e.g. to merge
// an existing roster with new entries before normalizing
func FromStudents(students []model.Student) []Record {
	records := make([]Record, len(students))
	for i, s := range students {
		records[i] = Record{Name: s.Name, Section: s.Section, Email: s.Email}
	}
	return records
}

// Normalize trims every field, drops entries without a name, removes
// case-insensitive duplicate names keeping the first occurrence and sorts
// by name using English collation. Normalize is idempotent.
func Normalize(records []Record) []model.Student {
	seen := make(map[string]bool, len(records))
	students := make([]model.Student, 0, len(records))

	for _, r := range records {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}

		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		section := r.Section
		if strings.TrimSpace(section) == "" {
			section = r.Instrument
		}

		students = append(students, model.Student{
			Name:    name,
			Section: strings.TrimSpace(section),
			Email:   strings.TrimSpace(r.Email),
		})
	}

	SortByName(students)
	return students
}

// SortByName sorts students in place using locale-aware name comparison
func SortByName(students []model.Student) {
	// Collators keep internal buffers, so each sort gets its own
	c := collate.New(language.English)
	sort.SliceStable(students, func(i, j int) bool {
		return c.CompareString(students[i].Name, students[j].Name) < 0
	})
}

// Sections returns the distinct non-empty sections on the roster, sorted
func Sections(students []model.Student) []string {
	seen := make(map[string]bool)
	sections := make([]string, 0)
	for _, s := range students {
		if s.Section == "" || seen[s.Section] {
			continue
		}
		seen[s.Section] = true
		sections = append(sections, s.Section)
	}
	sort.Strings(sections)
	return sections
}

// Find returns the student whose name matches exactly
func Find(students []model.Student, name string) (model.Student, bool) {
	for _, s := range students {
		if s.Name == name {
			return s, true
		}
	}
	return model.Student{}, false
}

package roster

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
)

func TestNormalize_DropsBlankNames(t *testing.T) {
	result := Normalize([]Record{{Name: " "}, {Name: "Jo"}})

	require.Len(t, result, 1)
	assert.Equal(t, "Jo", result[0].Name)
}

func TestNormalize_DedupesCaseInsensitiveKeepingFirst(t *testing.T) {
	result := Normalize([]Record{
		{Name: "Jo", Section: "Flute"},
		{Name: "JO", Section: "Tuba"},
		{Name: " jo "},
	})

	require.Len(t, result, 1)
	assert.Equal(t, model.Student{Name: "Jo", Section: "Flute"}, result[0])
}

func TestNormalize_TrimsAndUsesInstrumentAlias(t *testing.T) {
	result := Normalize([]Record{
		{Name: "  Maddie Ware ", Instrument: " Flute ", Email: " maddie@example.com "},
		{Name: "Avery Clayton", Section: "Sax", Instrument: "Clarinet"},
	})

	require.Len(t, result, 2)
	assert.Equal(t, model.Student{Name: "Avery Clayton", Section: "Sax"}, result[0])
	assert.Equal(t, model.Student{Name: "Maddie Ware", Section: "Flute", Email: "maddie@example.com"}, result[1])
}

func TestNormalize_SortsLocaleAware(t *testing.T) {
	result := Normalize([]Record{
		{Name: "zoe"},
		{Name: "Émile"},
		{Name: "Adam"},
		{Name: "bea"},
	})

	names := make([]string, len(result))
	for i, s := range result {
		names[i] = s.Name
	}
	// Byte order would put "Adam" first and "Émile" last
	assert.Equal(t, []string{"Adam", "bea", "Émile", "zoe"}, names)
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := [][]Record{
		{},
		{{Name: "Jo"}, {Name: "JO"}, {Name: ""}},
		{{Name: " Max Gray", Section: "Drum Major "}, {Name: "asher higgs"}, {Name: "Asher Higgs", Email: "a@example.com"}},
		{{Name: "Émile"}, {Name: "Emily"}, {Name: "emma"}},
	}

	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(FromStudents(once))
		assert.Equal(t, once, twice)
	}
}

func TestNormalize_EmptyInputReturnsEmptySlice(t *testing.T) {
	result := Normalize(nil)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestRecord_UnmarshalJSON(t *testing.T) {
	var records []Record
	err := json.Unmarshal([]byte(`["Jane Doe", {"name": "John Roe", "instrument": "Trumpet"}, {"name": "Max", "section": "Drum Major", "email": "max@example.com"}]`), &records)
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, Record{Name: "Jane Doe"}, records[0])
	assert.Equal(t, Record{Name: "John Roe", Instrument: "Trumpet"}, records[1])
	assert.Equal(t, Record{Name: "Max", Section: "Drum Major", Email: "max@example.com"}, records[2])
}

func TestRecord_UnmarshalJSON_RejectsOtherShapes(t *testing.T) {
	var r Record
	assert.Error(t, json.Unmarshal([]byte(`42`), &r))
}

func TestSections(t *testing.T) {
	students := []model.Student{
		{Name: "A", Section: "Guard"},
		{Name: "B", Section: "Flute"},
		{Name: "C"},
		{Name: "D", Section: "Guard"},
	}

	assert.Equal(t, []string{"Flute", "Guard"}, Sections(students))
}

func TestFind(t *testing.T) {
	students := []model.Student{{Name: "Max Gray", Email: "max@example.com"}}

	found, ok := Find(students, "Max Gray")
	assert.True(t, ok)
	assert.Equal(t, "max@example.com", found.Email)

	_, ok = Find(students, "max gray")
	assert.False(t, ok)
}

package roster

import (
	"strings"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
)

// TemplateCSV is offered to directors as a starting point for imports
const TemplateCSV = "Name,Section,Email\nMax Gray,Drum Major,max@example.com\nJane Doe,Clarinet,jane@school.org\n"

// ParseCSV turns uploaded roster text into clean student records.
// It never fails: unreadable rows are dropped and empty input yields an
// empty roster.
func ParseCSV(text string) []model.Student {
	text = strings.ReplaceAll(text, "\r", "")

	rows := make([][]string, 0)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, splitLine(line))
	}

	return ParseRows(rows)
}

// ParseRows applies header detection to already split rows, as read from
// a CSV file or a spreadsheet range.
//
// If the first row has a column containing "name" it is a header and the
// section ("section" or "instrument") and email ("email") columns are looked
// up too. Otherwise every row is read positionally with column 0 as the name.
func ParseRows(rows [][]string) []model.Student {
	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return []model.Student{}
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(h)
	}
	idxName := headerIndex(headers, "name")
	idxSection := headerIndex(headers, "section", "instrument")
	idxEmail := headerIndex(headers, "email")

	records := make([]Record, 0, len(rows))
	if idxName >= 0 {
		for _, cols := range rows[1:] {
			records = append(records, Record{
				Name:    column(cols, idxName),
				Section: column(cols, idxSection),
				Email:   column(cols, idxEmail),
			})
		}
	} else {
		for _, cols := range rows {
			records = append(records, Record{Name: column(cols, 0)})
		}
	}

	return Normalize(records)
}

// splitLine splits on commas outside double quotes. Quote characters only
// toggle the quoted state and are dropped; there is no escaped-quote syntax.
func splitLine(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for _, c := range line {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(c)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))

	return fields
}

func headerIndex(headers []string, needles ...string) int {
	for i, h := range headers {
		for _, needle := range needles {
			if strings.Contains(h, needle) {
				return i
			}
		}
	}
	return -1
}

func column(cols []string, idx int) string {
	if idx < 0 || idx >= len(cols) {
		return ""
	}
	return strings.TrimSpace(cols[idx])
}

func dropBlankRows(rows [][]string) [][]string {
	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				kept = append(kept, row)
				break
			}
		}
	}
	return kept
}

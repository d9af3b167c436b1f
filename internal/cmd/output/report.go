package output

import (
	"io"
	"strconv"
	"strings"

	"github.com/covidliste/directory/pkg/reconcile"
)

// ViolationsTable lists violations in check order.
func ViolationsTable(r *reconcile.Result) Data {
	rows := make([][]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		rows = append(rows, []string{v.Check, v.Source, v.Email, v.Message})
	}
	return Data{
		Title:   strconv.Itoa(len(r.Violations)) + " violation(s)",
		Headers: []string{Title("check"), Title("source"), Title("email"), Title("message")},
		Rows:    rows,
	}
}

// StatsTable summarizes volunteer record completion.
func StatsTable(s *reconcile.Stats) Data {
	return Data{
		Title:   "Volunteer records",
		Headers: []string{Title("volunteers"), Title("complete"), Title("incomplete")},
		Rows: [][]string{{
			strconv.Itoa(s.Volunteers),
			strconv.Itoa(s.Complete),
			strconv.Itoa(s.Incomplete),
		}},
		ColumnAlignment: []Align{AlignRight, AlignRight, AlignRight},
	}
}

// MissingTable lists the unfilled required fields of each incomplete volunteer.
func MissingTable(s *reconcile.Stats) Data {
	rows := make([][]string, 0, len(s.Missing))
	for _, m := range s.Missing {
		rows = append(rows, []string{m.Person, strings.Join(m.Fields, ", ")})
	}
	return Data{
		Title:   "Incomplete records",
		Headers: []string{Title("person"), Title("missing_fields")},
		Rows:    rows,
	}
}

// FormatResult writes a reconciliation result in the given format. Tables
// show the violations, or the completion statistics when there are none.
func FormatResult(w io.Writer, format Format, r *reconcile.Result) error {
	formatter := NewFormatter(format)

	switch format {
	case FormatJSON, FormatYAML:
		return formatter.Format(w, r)
	}

	if !r.IsSuccess() {
		return formatter.Format(w, ViolationsTable(r))
	}

	tables := []Data{}
	if r.Stats != nil {
		tables = append(tables, StatsTable(r.Stats))
		if len(r.Stats.Missing) > 0 {
			tables = append(tables, MissingTable(r.Stats))
		}
	}
	return formatter.Format(w, tables)
}

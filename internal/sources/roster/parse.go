// Package roster reads the self-reported volunteer spreadsheet exported as CSV.
package roster

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/logging"
	"github.com/covidliste/directory/pkg/people"
	"github.com/covidliste/directory/pkg/policy"
)

// kindField is the column field holding the person category.
const kindField = "type"

// Parser turns roster CSV into persons.
type Parser struct {
	policy  *policy.Policy
	consent people.ConsentLiterals
	id      people.IDFunc
}

// NewParser creates a parser for the policy's column layout.
func NewParser(pol *policy.Policy) *Parser {
	return &Parser{
		policy:  pol,
		consent: pol.ConsentLiterals(),
		id:      pol.IDFunc(),
	}
}

// Parse reads persons from r. Rows before the sentinel header are ignored,
// the first blank row or empty line ends the roster and rows without a category are
// skipped. A row with an unknown category, an empty email or an email seen
// earlier is an error naming its line.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*people.Roster, error) {
	logger := logging.FromContext(ctx)

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		header  []string
		persons []*people.Person
		seen    = make(map[string]int)
		skipped int
		prevEnd int
	)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapParse("csv", "roster", err)
		}
		line, _ := reader.FieldPos(0)
		// csv.Reader drops empty lines; a gap in line numbers is one.
		emptyBefore := prevEnd > 0 && line > prevEnd+1
		prevEnd = endLine(reader, record)

		if header == nil {
			if len(record) > 0 && strings.TrimSpace(record[0]) == p.policy.Roster.Sentinel {
				header = trimAll(record)
			}
			continue
		}

		if emptyBefore || isBlank(record) {
			break
		}

		person, err := p.row(header, record, line)
		if err != nil {
			return nil, err
		}
		if person == nil {
			skipped++
			continue
		}

		if first, dup := seen[person.Email]; dup {
			return nil, &errors.ParseError{
				Format:  "csv",
				File:    "roster",
				Line:    line,
				Message: fmt.Sprintf("duplicate email %s (first seen line %d)", person.Email, first),
			}
		}
		seen[person.Email] = line
		persons = append(persons, person)
	}

	if header == nil {
		return nil, errors.NewParseError("csv", "roster", fmt.Sprintf("no header row starting with %q", p.policy.Roster.Sentinel), nil)
	}

	logger.Debug().
		Int("persons", len(persons)).
		Int("skipped", skipped).
		Msg("Parsed roster")

	return people.NewRoster(persons), nil
}

// row maps one record to a person, or returns nil for rows without a category.
func (p *Parser) row(header, record []string, line int) (*people.Person, error) {
	person := &people.Person{Row: line}
	var kindText string

	for i, name := range header {
		field, ok := p.policy.Roster.Columns[name]
		if !ok || i >= len(record) {
			continue
		}
		value := strings.TrimSpace(record[i])
		if field == kindField {
			kindText = value
			continue
		}
		person.SetField(field, value)
	}

	kind, err := people.ParseKind(kindText, p.policy.Categories)
	if err != nil {
		return nil, &errors.ParseError{Format: "csv", File: "roster", Line: line, Message: err.Error(), Err: err}
	}
	if kind == people.KindNone {
		return nil, nil
	}
	person.Kind = kind

	person.Email = people.CanonicalEmail(person.Email)
	if person.Email == "" {
		return nil, &errors.ParseError{Format: "csv", File: "roster", Line: line, Message: "empty email"}
	}
	person.ID = p.id(person.Email)
	person.Consent = p.consent.Parse(person.ConsentText)

	return person, nil
}

// endLine returns the line the record just read ends on.
func endLine(reader *csv.Reader, record []string) int {
	last := len(record) - 1
	line, _ := reader.FieldPos(last)
	return line + strings.Count(record[last], "\n")
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func trimAll(record []string) []string {
	out := make([]string, len(record))
	for i, v := range record {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

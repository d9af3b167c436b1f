// Package mention applies a person's publication consent to their record.
package mention

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/logging"
	"github.com/covidliste/directory/pkg/people"
)

// Outcome tells whether a record may be published.
type Outcome int

const (
	// Published records continue to the publisher.
	Published Outcome = iota
	// Rejected records are left out of the output.
	Rejected
)

// String returns the outcome name.
func (o Outcome) String() string {
	if o == Rejected {
		return "rejected"
	}
	return "published"
}

// Apply redacts p in place according to its consent. Rejected records come
// with a ManualReviewError describing why. Applying to an anonymized record
// changes nothing.
func Apply(ctx context.Context, p *people.Person) (Outcome, error) {
	if p.Anonymous {
		return Published, nil
	}

	logger := logging.FromContext(ctx)

	switch p.Consent {
	case people.ConsentDeclined:
		anonymize(p)
		return Published, nil

	case people.ConsentFirstNameLastInitial:
		if p.LastName == "" {
			logger.Warn().Str("person_id", p.ID).Str("person", p.DisplayName()).Msg("Last initial requested but last name is empty")
		}
		p.LastName = initial(p.LastName)
		clearFullName(p)

	case people.ConsentFirstNameOnly:
		p.LastName = ""
		clearFullName(p)

	case people.ConsentAliasOnly:
		p.FirstName = ""
		p.LastName = ""
		clearFullName(p)

	case people.ConsentFullName:
		// unchanged

	case people.ConsentManualReview:
		return Rejected, &errors.ManualReviewError{
			Person:  p.DisplayName(),
			Consent: p.ConsentText,
			Comment: p.Comment,
		}

	default:
		return Rejected, &errors.ManualReviewError{
			Person:  p.DisplayName(),
			Consent: p.ConsentText,
			Comment: "unrecognized consent answer",
		}
	}

	p.Anonymous = false
	return Published, nil
}

// anonymize keeps only the id and teams.
func anonymize(p *people.Person) {
	*p = people.Person{
		ID:          p.ID,
		Team:        p.Team,
		LeadingTeam: p.LeadingTeam,
		Kind:        p.Kind,
		Consent:     p.Consent,
		Row:         p.Row,
		Anonymous:   true,
	}
}

// clearFullName drops the fields that could reveal a reduced name.
func clearFullName(p *people.Person) {
	p.FullName = ""
	p.Nick = ""
}

// initial returns the first character of s in composed form, so "É" stays one letter.
func initial(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	for _, r := range s {
		return string(r)
	}
	return ""
}

// Package publish turns reconciled roster records into the public volunteer
// document and its avatars.
package publish

import (
	"context"
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/covidliste/directory/pkg/constants"
	"github.com/covidliste/directory/pkg/logging"
	"github.com/covidliste/directory/pkg/mention"
	"github.com/covidliste/directory/pkg/people"
	"github.com/covidliste/directory/pkg/policy"
	"github.com/covidliste/directory/pkg/save"
)

// Fields never passed through the sanitizer.
var verbatimFields = map[string]bool{
	"id":        true,
	"picture":   true,
	"anonymous": true,
	"linkedin":  true,
}

// PictureResolver stages a person's avatar and returns its filename. Staged
// avatars are published by Commit once the document is written, or dropped
// by Discard when it is not.
type PictureResolver interface {
	Resolve(ctx context.Context, person *people.Person) string
	Commit() error
	Discard() error
}

// Report summarizes one publication.
type Report struct {
	Path       string `json:"path" yaml:"path"`
	Published  int    `json:"published" yaml:"published"`
	Anonymized int    `json:"anonymized" yaml:"anonymized"`
	Rejected   int    `json:"rejected" yaml:"rejected"`
	Pictures   int    `json:"pictures" yaml:"pictures"`
}

// Publisher writes the public document.
type Publisher struct {
	policy   *policy.Policy
	pictures PictureResolver
	out      string
	sanitize *bluemonday.Policy
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithPictures sets the avatar resolver. Without one no picture is published.
func WithPictures(r PictureResolver) Option {
	return func(p *Publisher) {
		p.pictures = r
	}
}

// WithOutput sets the path of the JSON document.
func WithOutput(path string) Option {
	return func(p *Publisher) {
		p.out = path
	}
}

// New creates a Publisher.
func New(pol *policy.Policy, opts ...Option) *Publisher {
	p := &Publisher{
		policy:   pol,
		out:      constants.DefaultOutputPath,
		sanitize: bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish writes the volunteers among persons, in the given order.
// The records passed in are not modified.
func (p *Publisher) Publish(ctx context.Context, persons []*people.Person) (*Report, error) {
	logger := logging.FromContext(ctx)
	report := &Report{Path: p.out}

	records := make([]map[string]any, 0, len(persons))
	for _, src := range persons {
		if !src.Kind.IsVolunteer() {
			continue
		}
		person := *src

		outcome, err := mention.Apply(ctx, &person)
		if outcome == mention.Rejected {
			report.Rejected++
			logger.Warn().Err(err).Str("person_id", person.ID).Msg("Record left out of publication")
			continue
		}
		if person.Anonymous {
			report.Anonymized++
		}

		if !person.Anonymous && p.pictures != nil {
			person.PictureFile = p.pictures.Resolve(ctx, &person)
			if person.PictureFile != "" {
				report.Pictures++
			}
		}

		person.LinkedIn = CanonicalLinkedIn(person.LinkedIn)
		records = append(records, p.project(&person))
	}

	if err := save.Encode(records, save.WithPath(p.out)); err != nil {
		if p.pictures != nil {
			if derr := p.pictures.Discard(); derr != nil {
				logger.Warn().Err(derr).Msg("Staged pictures left behind")
			}
		}
		return nil, err
	}
	if p.pictures != nil {
		if err := p.pictures.Commit(); err != nil {
			return nil, err
		}
	}
	report.Published = len(records)

	logger.Info().
		Str("path", report.Path).
		Int("published", report.Published).
		Int("anonymized", report.Anonymized).
		Int("rejected", report.Rejected).
		Int("pictures", report.Pictures).
		Msg("Volunteer list published")
	return report, nil
}

// project keeps the public fields of person.
func (p *Publisher) project(person *people.Person) map[string]any {
	record := make(map[string]any, len(p.policy.PublicFields))
	for _, field := range p.policy.PublicFields {
		switch field {
		case "anonymous":
			record[field] = person.Anonymous
		case "picture":
			record[field] = person.PictureFile
		default:
			value, ok := person.Field(field)
			if !ok {
				continue
			}
			if !verbatimFields[field] {
				value = p.clean(value)
			}
			record[field] = value
		}
	}
	return record
}

// clean strips markup from a free-text value. The document is JSON, so the
// entities bluemonday emits are turned back into plain characters.
func (p *Publisher) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(p.sanitize.Sanitize(value)))
}

// CanonicalLinkedIn rewrites a LinkedIn profile reference into an absolute
// https://www.linkedin.com link. Bare handles are taken as /in/ profiles.
func CanonicalLinkedIn(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if strings.Contains(strings.ToLower(raw), "linkedin.com") {
		if !strings.Contains(raw, "://") {
			raw = "https://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil || u.Path == "" || u.Path == "/" {
			return ""
		}
		return "https://www.linkedin.com" + strings.TrimRight(u.EscapedPath(), "/")
	}

	handle := strings.Trim(strings.TrimPrefix(raw, "@"), "/")
	handle = strings.TrimPrefix(handle, "in/")
	if handle == "" || strings.ContainsAny(handle, " /?#") {
		return ""
	}
	return "https://www.linkedin.com/in/" + url.PathEscape(handle)
}

// Package people holds the data model shared by every stage of a directory
// build: roster persons, chat members, channels and SaaS access records, plus
// the identity normalizer that derives a stable person id from an email.
package people

import (
	"strings"
)

// Person is one roster row after normalization.
type Person struct {
	ID          string
	Email       string
	FullName    string
	FirstName   string
	LastName    string
	Nick        string
	Alias       string
	Phone       string
	Team        string
	LeadingTeam string
	Bio         string
	Specialty   string
	Role        string

	// Social handles and links as typed by the person.
	Picture  string
	GitHub   string
	Twitter  string
	LinkedIn string

	Consent     Consent
	ConsentText string
	Comment     string
	Kind        Kind

	Anonymous   bool
	PictureFile string

	// Row is the 1-based roster row, kept for diagnostics.
	Row int
}

// DisplayName returns a human readable name for log lines.
func (p *Person) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	switch {
	case name != "":
		return name
	case p.FullName != "":
		return p.FullName
	case p.Alias != "":
		return p.Alias
	default:
		return p.ID
	}
}

// Field returns the value of a named field; names follow the public JSON keys.
func (p *Person) Field(name string) (string, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "email":
		return p.Email, true
	case "fullname":
		return p.FullName, true
	case "firstname":
		return p.FirstName, true
	case "lastname":
		return p.LastName, true
	case "nick":
		return p.Nick, true
	case "other_nick":
		return p.Alias, true
	case "phone":
		return p.Phone, true
	case "team":
		return p.Team, true
	case "leading_team":
		return p.LeadingTeam, true
	case "bio":
		return p.Bio, true
	case "specialty":
		return p.Specialty, true
	case "role":
		return p.Role, true
	case "pic":
		return p.Picture, true
	case "github":
		return p.GitHub, true
	case "twitter":
		return p.Twitter, true
	case "linkedin":
		return p.LinkedIn, true
	case "mention":
		return p.ConsentText, true
	case "comment":
		return p.Comment, true
	case "type":
		return p.Kind.String(), true
	default:
		return "", false
	}
}

// SetField assigns a named field. Unknown names are ignored and reported false.
func (p *Person) SetField(name, value string) bool {
	switch name {
	case "fullname":
		p.FullName = value
	case "firstname":
		p.FirstName = value
	case "lastname":
		p.LastName = value
	case "nick":
		p.Nick = value
	case "other_nick":
		p.Alias = value
	case "email":
		p.Email = value
	case "phone":
		p.Phone = value
	case "team":
		p.Team = value
	case "leading_team":
		p.LeadingTeam = value
	case "bio":
		p.Bio = value
	case "specialty":
		p.Specialty = value
	case "role":
		p.Role = value
	case "pic":
		p.Picture = value
	case "github":
		p.GitHub = value
	case "twitter":
		p.Twitter = value
	case "linkedin":
		p.LinkedIn = value
	case "mention":
		p.ConsentText = value
	case "comment":
		p.Comment = value
	default:
		return false
	}
	return true
}

// Roster is the ordered, email-indexed list of persons.
type Roster struct {
	People  []*Person
	byEmail map[string]*Person
}

// NewRoster indexes persons by canonical email, keeping their order.
func NewRoster(persons []*Person) *Roster {
	r := &Roster{
		People:  persons,
		byEmail: make(map[string]*Person, len(persons)),
	}
	for _, p := range persons {
		r.byEmail[p.Email] = p
	}
	return r
}

// Get returns the person registered under email.
func (r *Roster) Get(email string) (*Person, bool) {
	p, ok := r.byEmail[CanonicalEmail(email)]
	return p, ok
}

// Len returns the number of persons.
func (r *Roster) Len() int {
	return len(r.People)
}

// Volunteers returns the active volunteers in roster order.
func (r *Roster) Volunteers() []*Person {
	var out []*Person
	for _, p := range r.People {
		if p.Kind == KindVolunteer {
			out = append(out, p)
		}
	}
	return out
}

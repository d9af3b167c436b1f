// Package policy describes the rules a directory build applies: how roster
// columns map to fields, which labels classify people, which channels each
// classification may join, which emails are exempt from access checks and
// which fields are public. Defaults reproduce the volunteer spreadsheet; a
// YAML file can override any part.
package policy

import (
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/people"
)

// PublicMarker flags roster columns whose values may be published.
const PublicMarker = "👀"

// Policy is the complete rule set of a build.
type Policy struct {
	Roster         Roster            `yaml:"roster"`
	Categories     people.Categories `yaml:"categories"`
	Consent        map[string]string `yaml:"consent"`
	Chat           Chat              `yaml:"chat"`
	Access         Access            `yaml:"access"`
	RequiredFields []string          `yaml:"required_fields"`
	PublicFields   []string          `yaml:"public_fields"`

	// IDSalt switches id derivation to a keyed hash when set.
	IDSalt string `yaml:"id_salt"`
}

// Roster describes the spreadsheet layout.
type Roster struct {
	// Sentinel is the first header cell; rows before it are ignored.
	Sentinel string `yaml:"sentinel"`
	// Columns maps header text to person field names.
	Columns map[string]string `yaml:"columns"`
}

// Chat holds the chat platform rules.
type Chat struct {
	// VolunteerPrefix selects the volunteer namespace channels by name prefix.
	VolunteerPrefix string `yaml:"volunteer_prefix"`
	// Groups are the user group handles that mirror the roster categories.
	Groups people.Categories `yaml:"groups"`
	// AllowedChannels lists, per kind key, the only channels that kind may join.
	AllowedChannels map[string][]string `yaml:"allowed_channels"`
}

// Access holds the SaaS access check rules.
type Access struct {
	// AdminEmail is exempt from the telephony check.
	AdminEmail string `yaml:"admin_email"`
	// Exempt lists, per source id, emails allowed without a roster entry.
	Exempt map[string][]string `yaml:"exempt"`
}

// Default returns the policy matching the volunteer spreadsheet.
func Default() *Policy {
	columns := map[string]string{
		"Nom complet":                "fullname",
		"Type de personne":           "type",
		"Prénom 👀":                   "firstname",
		"Nom 👀":                      "lastname",
		"Pseudo slack (si différent du nom complet)": "nick",
		"Adresse mail": "email",
		"Téléphone portable (si numéro français, format français, sinon format international +32 XX...)": "phone",
		"J'accepte d'être mentionné comme bénévole en public (site + twitter)":                             "mention",
		"Votre équipe dans Covidliste 👀":                                                                   "team",
		"Équipe dont vous êtes responsable 👀":                                                              "leading_team",
		"GitHub (pseudo seulement) 👀":                                                                      "github",
		"Linkedin (lien du profil seulement) 👀":                                                            "linkedin",
		"Twitter (pseudo seulement) 👀":                                                                     "twitter",
		"Autre pseudo (si vous voulez apparaitre sous un pseudo) 👀":                                        "other_nick",
		"Mini bio 👀":                    "bio",
		"Spécialité 👀":                  "specialty",
		"Role dans Covidliste, ce que vous faites quoi (en plus de l'équipe) 👀": "role",
		"Photo ou avatar sous forme de lien 👀":                                  "pic",
		"Commentaire autre, si vous ne voulez pas qu'on publie un truc, si vous avez autre chose à dire": "comment",
	}

	consent := make(map[string]string)
	for literal, c := range people.DefaultConsentLiterals() {
		consent[literal] = c.String()
	}

	p := &Policy{
		Roster: Roster{
			Sentinel: "Nom complet",
			Columns:  columns,
		},
		Categories: people.DefaultCategories(),
		Consent:    consent,
		Chat: Chat{
			VolunteerPrefix: "benevoles",
			Groups: people.Categories{
				Volunteer:       "benevoles",
				FormerVolunteer: "anciens-benevoles",
				SpecialGuest:    "invites-speciaux",
			},
			AllowedChannels: map[string][]string{
				people.KindFormerVolunteer.String(): {"general", "anciens-benevoles"},
				people.KindSpecialGuest.String():    {"general", "invites-speciaux"},
			},
		},
		Access: Access{
			Exempt: map[string][]string{},
		},
		RequiredFields: []string{"firstname", "lastname", "phone", "team", "mention"},
	}
	p.PublicFields = p.markedPublicFields()
	return p
}

// Load reads a YAML policy file over the defaults. Keys absent from the file
// keep their default; map entries in the file are merged into the defaults.
func Load(path string) (*Policy, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	if err := p.Merge(data); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Merge overlays a YAML document on the policy.
func (p *Policy) Merge(data []byte) error {
	var file Policy
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	if file.Roster.Sentinel != "" {
		p.Roster.Sentinel = file.Roster.Sentinel
	}
	mergeMap(&p.Roster.Columns, file.Roster.Columns)
	mergeCategories(&p.Categories, file.Categories)
	mergeMap(&p.Consent, file.Consent)

	if file.Chat.VolunteerPrefix != "" {
		p.Chat.VolunteerPrefix = file.Chat.VolunteerPrefix
	}
	mergeCategories(&p.Chat.Groups, file.Chat.Groups)
	mergeMap(&p.Chat.AllowedChannels, file.Chat.AllowedChannels)

	if file.Access.AdminEmail != "" {
		p.Access.AdminEmail = file.Access.AdminEmail
	}
	mergeMap(&p.Access.Exempt, file.Access.Exempt)

	if file.RequiredFields != nil {
		p.RequiredFields = file.RequiredFields
	}
	if file.PublicFields != nil {
		p.PublicFields = file.PublicFields
	} else if file.Roster.Columns != nil {
		p.PublicFields = p.markedPublicFields()
	}
	if file.IDSalt != "" {
		p.IDSalt = file.IDSalt
	}
	return nil
}

func mergeMap[V any](dst *map[string]V, src map[string]V) {
	if len(src) == 0 {
		return
	}
	if *dst == nil {
		*dst = make(map[string]V, len(src))
	}
	for k, v := range src {
		(*dst)[k] = v
	}
}

func mergeCategories(dst *people.Categories, src people.Categories) {
	if src.Volunteer != "" {
		dst.Volunteer = src.Volunteer
	}
	if src.FormerVolunteer != "" {
		dst.FormerVolunteer = src.FormerVolunteer
	}
	if src.SpecialGuest != "" {
		dst.SpecialGuest = src.SpecialGuest
	}
}

// Validate checks the policy is usable.
func (p *Policy) Validate() error {
	if p.Roster.Sentinel == "" {
		return errors.NewValidationError("roster.sentinel", p.Roster.Sentinel, "cannot be empty")
	}

	fields := make(map[string]bool)
	for _, field := range p.Roster.Columns {
		if field != "type" {
			probe := &people.Person{}
			if !probe.SetField(field, "") {
				return errors.NewValidationError("roster.columns", field, "unknown field")
			}
		}
		fields[field] = true
	}
	for _, required := range []string{"email", "type", "mention"} {
		if !fields[required] {
			return errors.NewValidationError("roster.columns", required, "no column maps to this field")
		}
	}

	c := p.Categories
	if c.Volunteer == "" || c.FormerVolunteer == "" || c.SpecialGuest == "" {
		return errors.NewValidationError("categories", c, "all three categories need a label")
	}
	if c.Volunteer == c.FormerVolunteer || c.Volunteer == c.SpecialGuest || c.FormerVolunteer == c.SpecialGuest {
		return errors.NewValidationError("categories", c, "labels must be distinct")
	}

	for literal, key := range p.Consent {
		if people.ConsentFromKey(key) == people.ConsentUnrecognized {
			return errors.NewValidationError("consent", literal, "unknown consent key "+key)
		}
	}

	if p.Chat.VolunteerPrefix == "" {
		return errors.NewValidationError("chat.volunteer_prefix", "", "cannot be empty")
	}
	for key := range p.Chat.AllowedChannels {
		if key != people.KindFormerVolunteer.String() && key != people.KindSpecialGuest.String() {
			return errors.NewValidationError("chat.allowed_channels", key, "only former_volunteer and special_guest have allow-lists")
		}
	}
	return nil
}

// ConsentLiterals returns the consent table as a closed variant lookup.
func (p *Policy) ConsentLiterals() people.ConsentLiterals {
	l := make(people.ConsentLiterals, len(p.Consent))
	for literal, key := range p.Consent {
		l[literal] = people.ConsentFromKey(key)
	}
	return l
}

// AllowedChannels returns the allow-list for a kind.
func (p *Policy) AllowedChannels(kind people.Kind) people.Set {
	return people.NewSet(p.Chat.AllowedChannels[kind.String()]...)
}

// IsVolunteerChannel reports whether a channel name is in the volunteer namespace.
func (p *Policy) IsVolunteerChannel(name string) bool {
	return strings.HasPrefix(name, p.Chat.VolunteerPrefix)
}

// IsExempt reports whether email may appear in source without a roster entry.
func (p *Policy) IsExempt(source, email string) bool {
	email = people.CanonicalEmail(email)
	for _, e := range p.Access.Exempt[source] {
		if people.CanonicalEmail(e) == email {
			return true
		}
	}
	return false
}

// IDFunc returns the id derivation in use.
func (p *Policy) IDFunc() people.IDFunc {
	if p.IDSalt == "" {
		return people.DeriveID
	}
	return people.KeyedID([]byte(p.IDSalt))
}

// IsPublic reports whether a field may be published.
func (p *Policy) IsPublic(field string) bool {
	for _, f := range p.PublicFields {
		if f == field {
			return true
		}
	}
	return false
}

// markedPublicFields returns the fields of columns carrying the public marker,
// plus the fields computed by the build.
func (p *Policy) markedPublicFields() []string {
	set := people.NewSet("id", "picture", "anonymous")
	for header, field := range p.Roster.Columns {
		if strings.Contains(header, PublicMarker) && field != "pic" {
			set.Add(field)
		}
	}
	return set.Sorted()
}

package people

import (
	"fmt"
	"strings"
)

// Kind classifies a person. The three roster categories are mutually
// exclusive, so a single value carries all classification flags.
type Kind int

const (
	// KindNone means no classification (only possible for chat members).
	KindNone Kind = iota
	// KindVolunteer is an active volunteer.
	KindVolunteer
	// KindFormerVolunteer is a volunteer who left.
	KindFormerVolunteer
	// KindSpecialGuest is an invited non-volunteer.
	KindSpecialGuest
)

// Kinds lists the three classifications in check order.
func Kinds() []Kind {
	return []Kind{KindVolunteer, KindFormerVolunteer, KindSpecialGuest}
}

// String returns the policy key of the kind.
func (k Kind) String() string {
	switch k {
	case KindVolunteer:
		return "volunteer"
	case KindFormerVolunteer:
		return "former_volunteer"
	case KindSpecialGuest:
		return "special_guest"
	default:
		return "none"
	}
}

// IsVolunteer reports the is_volunteer flag.
func (k Kind) IsVolunteer() bool { return k == KindVolunteer }

// IsFormerVolunteer reports the is_former_volunteer flag.
func (k Kind) IsFormerVolunteer() bool { return k == KindFormerVolunteer }

// IsSpecialGuest reports the is_special_guest flag.
func (k Kind) IsSpecialGuest() bool { return k == KindSpecialGuest }

// Flag reports whether flag kind f is set on k.
func (k Kind) Flag(f Kind) bool { return k == f }

// Categories maps the roster's literal "person type" labels to kinds.
type Categories struct {
	Volunteer       string `yaml:"volunteer"`
	FormerVolunteer string `yaml:"former_volunteer"`
	SpecialGuest    string `yaml:"special_guest"`
}

// DefaultCategories returns the labels used by the roster spreadsheet.
func DefaultCategories() Categories {
	return Categories{
		Volunteer:       "Bénévole",
		FormerVolunteer: "Ancien bénévole",
		SpecialGuest:    "Invité spécial",
	}
}

// ParseKind matches text against the three literal categories. An empty
// text returns KindNone without error; the caller skips such rows.
func ParseKind(text string, c Categories) (Kind, error) {
	text = strings.TrimSpace(text)
	switch text {
	case "":
		return KindNone, nil
	case c.Volunteer:
		return KindVolunteer, nil
	case c.FormerVolunteer:
		return KindFormerVolunteer, nil
	case c.SpecialGuest:
		return KindSpecialGuest, nil
	default:
		return KindNone, fmt.Errorf("unknown person type %q", text)
	}
}

package people

import "strings"

// Consent is the closed set of answers to "may we mention you publicly".
type Consent int

const (
	// ConsentUnrecognized is any text outside the known literals. It is
	// always rejected, never published.
	ConsentUnrecognized Consent = iota
	// ConsentDeclined keeps only id and teams, and marks the person anonymous.
	ConsentDeclined
	// ConsentFirstNameLastInitial reduces the last name to its initial.
	ConsentFirstNameLastInitial
	// ConsentFirstNameOnly clears the last name.
	ConsentFirstNameOnly
	// ConsentAliasOnly clears first and last names.
	ConsentAliasOnly
	// ConsentFullName publishes names unchanged.
	ConsentFullName
	// ConsentManualReview excludes the person until someone reads the comment.
	ConsentManualReview
)

// String returns the policy key of the consent value.
func (c Consent) String() string {
	switch c {
	case ConsentDeclined:
		return "declined"
	case ConsentFirstNameLastInitial:
		return "first_name_last_initial"
	case ConsentFirstNameOnly:
		return "first_name_only"
	case ConsentAliasOnly:
		return "alias_only"
	case ConsentFullName:
		return "full_name"
	case ConsentManualReview:
		return "manual_review"
	default:
		return "unrecognized"
	}
}

// ConsentFromKey parses a policy key produced by String.
func ConsentFromKey(key string) Consent {
	for _, c := range []Consent{
		ConsentDeclined,
		ConsentFirstNameLastInitial,
		ConsentFirstNameOnly,
		ConsentAliasOnly,
		ConsentFullName,
		ConsentManualReview,
	} {
		if c.String() == key {
			return c
		}
	}
	return ConsentUnrecognized
}

// ConsentLiterals maps the roster's literal answers to consent values.
type ConsentLiterals map[string]Consent

// DefaultConsentLiterals returns the answers offered by the roster form.
func DefaultConsentLiterals() ConsentLiterals {
	return ConsentLiterals{
		"":    ConsentDeclined,
		"Non": ConsentDeclined,
		"Oui : uniquement Prénom + 1ère lettre du Nom": ConsentFirstNameLastInitial,
		"Oui : uniquement Prénom":                      ConsentFirstNameOnly,
		"Oui : uniquement Autre Pseudo":                ConsentAliasOnly,
		"Oui : nom complet":                            ConsentFullName,
		"Autre chose : précisez en commentaire":        ConsentManualReview,
	}
}

// Parse returns the consent for text. An empty answer is always a refusal.
func (l ConsentLiterals) Parse(text string) Consent {
	text = strings.TrimSpace(text)
	if text == "" {
		return ConsentDeclined
	}
	if c, ok := l[text]; ok {
		return c
	}
	return ConsentUnrecognized
}

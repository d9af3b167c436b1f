package people

import "sort"

// Set is an unordered set of strings.
type Set map[string]struct{}

// NewSet builds a set from values.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v.
func (s Set) Add(v string) { s[v] = struct{}{} }

// Has reports whether v is in the set.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Channel is one chat channel and its members.
type Channel struct {
	ID      string
	Name    string
	Private bool
	Members Set
}

// ChatMember is a chat account with its classification and channel memberships.
// Channel sets hold channel names.
type ChatMember struct {
	ID            string
	Email         string
	Name          string
	Kind          Kind
	Deleted       bool
	Bot           bool
	BillingActive bool

	Channels                 Set
	PublicChannels           Set
	PrivateChannels          Set
	VolunteerChannels        Set
	MissingVolunteerChannels Set
}

// Mention returns the chat reference that pings this member.
func (m *ChatMember) Mention() string {
	return "<@" + m.ID + ">"
}

// AccessRecord is one user listed by a SaaS tool (website, helpdesk,
// telephony, knowledge base).
type AccessRecord struct {
	Email   string
	Name    string
	Role    string
	Invited bool
}

// Package sources defines the contract between the directory build and the
// systems it reads people from. Every source lists records keyed by email:
// the roster lists persons, the chat platform lists members and channels,
// and the SaaS tools list the accounts that have access to them.
//
// Example usage:
//
//	snap, err := sources.FetchAll(ctx, sources.Set{
//	    Roster: rosterSource,
//	    Chat:   chatSource,
//	    Access: []sources.AccessSource{website, helpdesk},
//	})
//	if err != nil {
//	    return err // fail closed: nothing is published
//	}
package sources

import (
	"context"
	"slices"

	"github.com/covidliste/directory/pkg/people"
)

// ID represents the identifier of a data source.
type ID string

// String returns the string representation of a source name.
func (id ID) String() string {
	return string(id)
}

// Source ids.
const (
	RosterID        ID = "roster"
	SlackID         ID = "slack"
	WebsiteID       ID = "website"
	HelpdeskID      ID = "helpdesk"
	TelephonyID     ID = "telephony"
	KnowledgeBaseID ID = "knowledgebase"
)

// IDs returns all source ids.
func IDs() []ID {
	return []ID{
		RosterID,
		SlackID,
		WebsiteID,
		HelpdeskID,
		TelephonyID,
		KnowledgeBaseID,
	}
}

// AccessIDs returns the ids of the access sources in check order.
func AccessIDs() []ID {
	return []ID{
		WebsiteID,
		HelpdeskID,
		TelephonyID,
		KnowledgeBaseID,
	}
}

// IsValid returns true if the ID is one of the defined constants.
func (id ID) IsValid() bool {
	return slices.Contains(IDs(), id)
}

// Source is implemented by every source.
type Source interface {
	ID() ID
}

// RosterSource lists the self-reported persons.
type RosterSource interface {
	Source
	FetchRoster(ctx context.Context) (*people.Roster, error)
}

// ChatSource lists the chat platform members and channels.
type ChatSource interface {
	Source
	FetchChat(ctx context.Context) (*Chat, error)
}

// AccessSource lists the accounts of a SaaS tool.
type AccessSource interface {
	Source
	FetchAccess(ctx context.Context) ([]people.AccessRecord, error)
}

// Chat is the membership state of the chat platform.
type Chat struct {
	// Members are in platform listing order.
	Members []*people.ChatMember
	// Channels are sorted by name.
	Channels []*people.Channel
}

// Member returns the member registered under email.
func (c *Chat) Member(email string) (*people.ChatMember, bool) {
	email = people.CanonicalEmail(email)
	for _, m := range c.Members {
		if m.Email == email {
			return m, true
		}
	}
	return nil, false
}

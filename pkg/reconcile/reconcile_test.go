package reconcile

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/logging"
	"github.com/covidliste/directory/pkg/people"
	"github.com/covidliste/directory/pkg/policy"
	"github.com/covidliste/directory/pkg/sources"
)

func volunteer(email, first, last string) *people.Person {
	return &people.Person{
		ID:          people.DeriveID(email),
		Email:       email,
		FirstName:   first,
		LastName:    last,
		Phone:       "0600000000",
		Team:        "Tech",
		ConsentText: "Oui : nom complet",
		Consent:     people.ConsentFullName,
		Kind:        people.KindVolunteer,
	}
}

func member(id, email string, kind people.Kind, channels ...string) *people.ChatMember {
	m := &people.ChatMember{
		ID:                       id,
		Email:                    email,
		Name:                     email,
		Kind:                     kind,
		BillingActive:            true,
		Channels:                 people.NewSet(),
		PublicChannels:           people.NewSet(),
		PrivateChannels:          people.NewSet(),
		VolunteerChannels:        people.NewSet(),
		MissingVolunteerChannels: people.NewSet("benevoles"),
	}
	for _, ch := range channels {
		m.Channels.Add(ch)
		if ch == "benevoles" {
			m.VolunteerChannels.Add(ch)
			delete(m.MissingVolunteerChannels, ch)
		}
		if ch == "secret" {
			m.PrivateChannels.Add(ch)
		} else {
			m.PublicChannels.Add(ch)
		}
	}
	return m
}

// consistent returns a snapshot where two volunteers agree everywhere.
func consistent() *sources.Snapshot {
	return &sources.Snapshot{
		Roster: people.NewRoster([]*people.Person{
			volunteer("ada@example.org", "Ada", "Lovelace"),
			volunteer("jean@example.org", "Jean", "Dupont"),
		}),
		Chat: &sources.Chat{Members: []*people.ChatMember{
			member("U1", "ada@example.org", people.KindVolunteer, "general", "benevoles"),
			member("U2", "jean@example.org", people.KindVolunteer, "general", "benevoles"),
		}},
		Access: map[sources.ID][]people.AccessRecord{
			sources.WebsiteID: {{Email: "ada@example.org"}},
		},
		AccessOrder: []sources.ID{sources.WebsiteID},
	}
}

func TestReconcileConsistent(t *testing.T) {
	result := New(policy.Default()).Reconcile(context.Background(), consistent())

	require.True(t, result.IsSuccess())
	require.NoError(t, result.Err())
	require.NotNil(t, result.Stats)
	assert.Equal(t, 2, result.Stats.Volunteers)
	assert.Equal(t, 2, result.Stats.Complete)
	assert.Equal(t, 0, result.Stats.Incomplete)
	assert.Empty(t, result.Stats.Mention)
	assert.Equal(t, []sources.ID{sources.SlackID, sources.WebsiteID}, result.Metadata.Sources)
	assert.Contains(t, result.Summary(), "2 volunteers")
}

func TestReconcileChatOnlyVolunteer(t *testing.T) {
	snap := consistent()
	snap.Chat.Members = append(snap.Chat.Members,
		member("U9", "ghost@example.org", people.KindVolunteer, "general", "benevoles"))

	result := New(policy.Default()).Reconcile(context.Background(), snap)

	require.Len(t, result.Violations, 1)
	v := result.Violations[0]
	assert.Equal(t, CheckMissingInRoster, v.Check)
	assert.Equal(t, "ghost@example.org", v.Email)
	assert.Nil(t, result.Stats)

	err := result.Err()
	assert.True(t, errors.IsConsistency(err))
	var ce *errors.ConsistencyError
	require.ErrorAs(t, err, &ce)
	assert.Len(t, ce.Violations, 1)
}

func TestReconcileEveryCheck(t *testing.T) {
	pol := policy.Default()
	pol.Access.AdminEmail = "admin@example.org"

	snap := &sources.Snapshot{
		Roster: people.NewRoster([]*people.Person{
			volunteer("ada@example.org", "Ada", "Lovelace"),     // missing in chat
			volunteer("jean@example.org", "Jean", "Dupont"),     // chat says former volunteer
			{Email: "marie@example.org", Kind: people.KindFormerVolunteer},
		}),
		Chat: &sources.Chat{Members: []*people.ChatMember{
			member("U2", "jean@example.org", people.KindFormerVolunteer, "general", "random"),
			member("U3", "marie@example.org", people.KindFormerVolunteer, "general"),
			member("U4", "ghost@example.org", people.KindVolunteer, "general"),
			member("U5", "lurker@example.org", people.KindNone, "general", "secret", "benevoles"),
		}},
		Access: map[sources.ID][]people.AccessRecord{
			sources.WebsiteID:   {{Email: "stranger@example.org"}, {Email: "partner@example.org", Invited: true}},
			sources.TelephonyID: {{Email: "admin@example.org"}, {Email: "marie@example.org"}},
		},
		AccessOrder: []sources.ID{sources.WebsiteID, sources.TelephonyID},
	}

	result := New(pol).Reconcile(context.Background(), snap)
	require.False(t, result.IsSuccess())

	var got []string
	for _, v := range result.Violations {
		got = append(got, v.Check+" "+v.Email)
	}
	assert.Equal(t, []string{
		"missing_in_chat ada@example.org",
		"missing_in_roster ghost@example.org",
		"kind_mismatch jean@example.org",
		"kind_mismatch jean@example.org",
		"missing_volunteer_channel ghost@example.org",
		"channel_not_allowed jean@example.org",
		"unclassified_in_restricted_channel lurker@example.org",
		"unclassified_in_restricted_channel lurker@example.org",
		"access_without_roster stranger@example.org",
		"access_kind_mismatch marie@example.org",
	}, got)

	assert.Contains(t, result.Violations[2].Message, "is_volunteer differs: roster=true chat=false")
	assert.Contains(t, result.Violations[3].Message, "is_former_volunteer differs: roster=false chat=true")
	assert.Contains(t, result.Violations[5].Message, "#random")
	assert.Equal(t, "website", result.Violations[8].Source)
	assert.Equal(t, "telephony", result.Violations[9].Source)
	assert.Equal(t, 2, result.CountByCheck()[CheckUnclassifiedInRestrictedChannel])
}

func TestReconcileIgnoresBotsAndDeleted(t *testing.T) {
	snap := consistent()
	bot := member("B1", "bot@example.org", people.KindVolunteer, "secret")
	bot.Bot = true
	gone := member("U8", "gone@example.org", people.KindVolunteer, "secret")
	gone.Deleted = true
	snap.Chat.Members = append(snap.Chat.Members, bot, gone)

	result := New(policy.Default()).Reconcile(context.Background(), snap)
	assert.True(t, result.IsSuccess(), "%v", result.Violations)
}

func TestReconcileDeactivatedVolunteer(t *testing.T) {
	snap := consistent()
	snap.Chat.Members[1].Deleted = true

	result := New(policy.Default()).Reconcile(context.Background(), snap)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, CheckMissingInChat, result.Violations[0].Check)
	assert.Contains(t, result.Violations[0].Message, "deactivated")
}

func TestReconcileAccessExemptions(t *testing.T) {
	pol := policy.Default()
	pol.Access.AdminEmail = "Admin@Example.org"
	pol.Access.Exempt["helpdesk"] = []string{"support@example.org"}

	snap := consistent()
	snap.Access = map[sources.ID][]people.AccessRecord{
		sources.HelpdeskID:      {{Email: "support@example.org"}},
		sources.TelephonyID:     {{Email: "admin@example.org"}},
		sources.KnowledgeBaseID: {{Email: "partner@example.org", Invited: true}},
	}
	snap.AccessOrder = []sources.ID{sources.HelpdeskID, sources.TelephonyID, sources.KnowledgeBaseID}

	result := New(pol).Reconcile(context.Background(), snap)
	assert.True(t, result.IsSuccess(), "%v", result.Violations)

	// The admin is only exempt from the telephony check.
	snap.Access[sources.HelpdeskID] = append(snap.Access[sources.HelpdeskID], people.AccessRecord{Email: "admin@example.org"})
	result = New(pol).Reconcile(context.Background(), snap)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, CheckAccessWithoutRoster, result.Violations[0].Check)
	assert.Equal(t, "helpdesk", result.Violations[0].Source)
}

func TestReconcileStats(t *testing.T) {
	snap := consistent()
	incomplete := volunteer("zoe@example.org", "Zoé", "")
	incomplete.Phone = ""
	snap.Roster = people.NewRoster(append(snap.Roster.People, incomplete))
	snap.Roster.People[0].Team = ""
	zoe := member("U3", "zoe@example.org", people.KindVolunteer, "benevoles")
	zoe.BillingActive = false
	snap.Chat.Members = append(snap.Chat.Members, zoe)

	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	result := New(policy.Default()).Reconcile(ctx, snap)
	require.True(t, result.IsSuccess(), "%v", result.Violations)

	s := result.Stats
	assert.Equal(t, 3, s.Volunteers)
	assert.Equal(t, 1, s.Complete)
	assert.Equal(t, 2, s.Incomplete)
	assert.Equal(t, "<@U1> <@U3>", s.Mention)
	require.Len(t, s.Missing, 2)
	assert.Equal(t, []string{"team"}, s.Missing[0].Fields)
	assert.Equal(t, []string{"lastname", "phone"}, s.Missing[1].Fields)

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Zoé")
	tl.AssertContains(t, `"mention":"<@U1> <@U3>"`)
	tl.AssertContains(t, `"incomplete":2`)
}

func TestReconcileLogsEveryViolation(t *testing.T) {
	snap := consistent()
	snap.Chat.Members = snap.Chat.Members[:1]
	snap.Access[sources.WebsiteID] = append(snap.Access[sources.WebsiteID], people.AccessRecord{Email: "x@example.org"})

	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	result := New(policy.Default()).Reconcile(ctx, snap)
	require.Len(t, result.Violations, 2)

	warnings := tl.LinesAt(zerolog.WarnLevel)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], CheckMissingInChat)
	assert.Contains(t, warnings[1], CheckAccessWithoutRoster)
	tl.AssertContains(t, `"violations":2`)
}

func TestChecks(t *testing.T) {
	assert.Len(t, Checks(), 8)
	assert.Equal(t, CheckMissingInChat, Checks()[0])
}

// Package reconcile cross-checks the roster against the chat platform and
// the SaaS access lists. Every check runs in full so a single pass reports
// every divergence; publication is allowed only when there is none.
package reconcile

import (
	"context"
	"strings"

	"github.com/covidliste/directory/pkg/logging"
	"github.com/covidliste/directory/pkg/people"
	"github.com/covidliste/directory/pkg/policy"
	"github.com/covidliste/directory/pkg/sources"
)

// Check codes, in the order checks run.
const (
	CheckMissingInChat                   = "missing_in_chat"
	CheckMissingInRoster                 = "missing_in_roster"
	CheckKindMismatch                    = "kind_mismatch"
	CheckMissingVolunteerChannel         = "missing_volunteer_channel"
	CheckChannelNotAllowed               = "channel_not_allowed"
	CheckUnclassifiedInRestrictedChannel = "unclassified_in_restricted_channel"
	CheckAccessWithoutRoster             = "access_without_roster"
	CheckAccessKindMismatch              = "access_kind_mismatch"
)

// Checks lists every check code in run order.
func Checks() []string {
	return []string{
		CheckMissingInChat,
		CheckMissingInRoster,
		CheckKindMismatch,
		CheckMissingVolunteerChannel,
		CheckChannelNotAllowed,
		CheckUnclassifiedInRestrictedChannel,
		CheckAccessWithoutRoster,
		CheckAccessKindMismatch,
	}
}

// Engine runs the checks of a policy.
type Engine struct {
	policy *policy.Policy
}

// New creates an engine.
func New(pol *policy.Policy) *Engine {
	return &Engine{policy: pol}
}

// state holds the indexes shared by the checks of one pass.
type state struct {
	roster *people.Roster
	// members are the live chat accounts in listing order.
	members []*people.ChatMember
	byEmail map[string]*people.ChatMember
	// deleted are chat accounts that were deactivated.
	deleted map[string]bool
}

// Reconcile runs every check over snap. Violations are logged at warn level
// in check order; on success the completion statistics are computed and logged.
func (e *Engine) Reconcile(ctx context.Context, snap *sources.Snapshot) *Result {
	logger := logging.FromContext(logging.WithOperation(ctx, "reconcile"))
	result := NewResult()
	result.Metadata.Sources = append([]sources.ID{sources.SlackID}, snap.AccessOrder...)

	st := &state{
		roster:  snap.Roster,
		byEmail: make(map[string]*people.ChatMember),
		deleted: make(map[string]bool),
	}
	for _, m := range snap.Chat.Members {
		if m.Bot {
			continue
		}
		if m.Deleted {
			st.deleted[m.Email] = true
			continue
		}
		st.members = append(st.members, m)
		st.byEmail[m.Email] = m
	}

	e.checkMissingInChat(st, result)
	e.checkMissingInRoster(st, result)
	e.checkKinds(st, result)
	e.checkVolunteerChannels(st, result)
	e.checkAllowedChannels(st, result)
	e.checkUnclassified(st, result)
	for _, id := range snap.AccessOrder {
		e.checkAccess(id, snap.Access[id], st, result)
	}

	for _, v := range result.Violations {
		logger.Warn().
			Str("check", v.Check).
			Str("source", v.Source).
			Str("email", v.Email).
			Msg(v.Message)
	}

	if result.IsSuccess() {
		result.Stats = e.stats(st, result)
		logger.Info().
			Int("volunteers", result.Stats.Volunteers).
			Int("complete", result.Stats.Complete).
			Int("incomplete", result.Stats.Incomplete).
			Msg("Volunteer records")
		if result.Stats.Mention != "" {
			logger.Info().Str("mention", result.Stats.Mention).Msg("Incomplete volunteers")
		}
		for _, w := range result.Warnings {
			logger.Warn().Msg(w)
		}
	} else {
		logger.Error().
			Int("violations", len(result.Violations)).
			Msg("Sources are inconsistent")
	}

	result.Finalize()
	return result
}

// checkMissingInChat: every roster volunteer has a live chat account.
func (e *Engine) checkMissingInChat(st *state, r *Result) {
	for _, p := range st.roster.Volunteers() {
		if _, ok := st.byEmail[p.Email]; ok {
			continue
		}
		if st.deleted[p.Email] {
			r.add(CheckMissingInChat, sources.SlackID, p.Email, "volunteer %s has a deactivated chat account", p.DisplayName())
			continue
		}
		r.add(CheckMissingInChat, sources.SlackID, p.Email, "volunteer %s is not a chat member", p.DisplayName())
	}
}

// checkMissingInRoster: every chat volunteer is in the roster.
func (e *Engine) checkMissingInRoster(st *state, r *Result) {
	for _, m := range st.members {
		if !m.Kind.IsVolunteer() {
			continue
		}
		if _, ok := st.roster.Get(m.Email); !ok {
			r.add(CheckMissingInRoster, sources.SlackID, m.Email, "chat volunteer %s is not in the roster", m.Name)
		}
	}
}

// checkKinds: the three classification flags agree for emails known to both.
func (e *Engine) checkKinds(st *state, r *Result) {
	flags := []struct {
		name string
		kind people.Kind
	}{
		{"is_volunteer", people.KindVolunteer},
		{"is_former_volunteer", people.KindFormerVolunteer},
		{"is_special_guest", people.KindSpecialGuest},
	}

	for _, p := range st.roster.People {
		m, ok := st.byEmail[p.Email]
		if !ok {
			continue
		}
		for _, f := range flags {
			inRoster, inChat := p.Kind.Flag(f.kind), m.Kind.Flag(f.kind)
			if inRoster != inChat {
				r.add(CheckKindMismatch, sources.SlackID, p.Email, "%s differs: roster=%t chat=%t", f.name, inRoster, inChat)
			}
		}
	}
}

// checkVolunteerChannels: chat volunteers are in every volunteer channel.
func (e *Engine) checkVolunteerChannels(st *state, r *Result) {
	for _, m := range st.members {
		if !m.Kind.IsVolunteer() {
			continue
		}
		for _, ch := range m.MissingVolunteerChannels.Sorted() {
			r.add(CheckMissingVolunteerChannel, sources.SlackID, m.Email, "volunteer %s is not in #%s", m.Name, ch)
		}
	}
}

// checkAllowedChannels: former volunteers and guests stay on their allow-list.
func (e *Engine) checkAllowedChannels(st *state, r *Result) {
	for _, m := range st.members {
		if !m.Kind.IsFormerVolunteer() && !m.Kind.IsSpecialGuest() {
			continue
		}
		allowed := e.policy.AllowedChannels(m.Kind)
		for _, ch := range m.Channels.Sorted() {
			if !allowed.Has(ch) {
				r.add(CheckChannelNotAllowed, sources.SlackID, m.Email, "%s %s may not be in #%s", m.Kind, m.Name, ch)
			}
		}
	}
}

// checkUnclassified: members without a kind stay out of private and volunteer channels.
func (e *Engine) checkUnclassified(st *state, r *Result) {
	for _, m := range st.members {
		if m.Kind != people.KindNone {
			continue
		}
		restricted := people.NewSet()
		for ch := range m.PrivateChannels {
			restricted.Add(ch)
		}
		for ch := range m.VolunteerChannels {
			restricted.Add(ch)
		}
		for _, ch := range restricted.Sorted() {
			r.add(CheckUnclassifiedInRestrictedChannel, sources.SlackID, m.Email, "unclassified member %s is in restricted #%s", m.Name, ch)
		}
	}
}

// checkAccess: every account of an access source belongs to a roster volunteer.
func (e *Engine) checkAccess(id sources.ID, records []people.AccessRecord, st *state, r *Result) {
	admin := people.CanonicalEmail(e.policy.Access.AdminEmail)

	for _, rec := range records {
		email := people.CanonicalEmail(rec.Email)
		if rec.Invited || e.policy.IsExempt(id.String(), email) {
			continue
		}
		if id == sources.TelephonyID && admin != "" && email == admin {
			continue
		}

		p, ok := st.roster.Get(email)
		switch {
		case !ok:
			r.add(CheckAccessWithoutRoster, id, email, "%s has %s access but is not in the roster", displayName(rec), id)
		case !p.Kind.IsVolunteer():
			r.add(CheckAccessKindMismatch, id, email, "%s has %s access but is %s in the roster", p.DisplayName(), id, p.Kind)
		}
	}
}

// stats counts complete volunteer records and builds the mention string.
func (e *Engine) stats(st *state, r *Result) *Stats {
	s := &Stats{}
	var mentions []string

	for _, p := range st.roster.Volunteers() {
		s.Volunteers++

		var missing []string
		for _, field := range e.policy.RequiredFields {
			if v, _ := p.Field(field); strings.TrimSpace(v) == "" {
				missing = append(missing, field)
			}
		}

		m := st.byEmail[p.Email]
		if m != nil && !m.BillingActive {
			r.Warnings = append(r.Warnings, "volunteer "+p.DisplayName()+" has an inactive chat account")
		}

		if len(missing) == 0 {
			s.Complete++
			continue
		}
		s.Incomplete++
		s.Missing = append(s.Missing, MissingFields{Person: p.DisplayName(), Fields: missing})
		if m != nil {
			mentions = append(mentions, m.Mention())
		}
	}

	s.Mention = strings.Join(mentions, " ")
	return s
}

func displayName(rec people.AccessRecord) string {
	if rec.Name != "" {
		return rec.Name
	}
	return rec.Email
}


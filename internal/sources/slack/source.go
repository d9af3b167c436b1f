package slack

import (
	"context"
	"fmt"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/covidliste/directory/internal/transport"
	"github.com/covidliste/directory/pkg/constants"
	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/logging"
	"github.com/covidliste/directory/pkg/people"
	"github.com/covidliste/directory/pkg/policy"
	"github.com/covidliste/directory/pkg/sources"
)

// Source builds the chat membership state.
type Source struct {
	client  *Client
	policy  *policy.Policy
	workers int
}

// Option configures a Source.
type Option func(*Source)

// WithWorkers sets the number of concurrent channel member listings.
func WithWorkers(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New creates a Slack source.
func New(baseURL, token string, pol *policy.Policy, topts []transport.Option, opts ...Option) *Source {
	s := &Source{
		client:  NewClient(baseURL, token, topts...),
		policy:  pol,
		workers: constants.MaxConcurrentChannels,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID implements sources.Source.
func (s *Source) ID() sources.ID {
	return sources.SlackID
}

// FetchChat implements sources.ChatSource.
func (s *Source) FetchChat(ctx context.Context) (*sources.Chat, error) {
	logger := logging.FromContext(ctx)

	users, err := s.client.users(ctx)
	if err != nil {
		return nil, err
	}

	kinds, err := s.kinds(ctx)
	if err != nil {
		return nil, err
	}

	channels, err := s.channels(ctx)
	if err != nil {
		return nil, err
	}

	billing, err := s.client.billing(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*people.ChatMember, len(users))
	members := make([]*people.ChatMember, 0, len(users))
	for _, u := range users {
		email := people.CanonicalEmail(u.Profile.Email)
		if email == "" {
			logger.Debug().Str("member_id", u.ID).Bool("bot", u.IsBot).Msg("Member without email ignored")
			continue
		}
		name := u.Profile.RealName
		if name == "" {
			name = u.RealName
		}
		m := &people.ChatMember{
			ID:                       u.ID,
			Email:                    email,
			Name:                     name,
			Kind:                     kinds[u.ID],
			Deleted:                  u.Deleted,
			Bot:                      u.IsBot,
			BillingActive:            billing[u.ID],
			Channels:                 people.NewSet(),
			PublicChannels:           people.NewSet(),
			PrivateChannels:          people.NewSet(),
			VolunteerChannels:        people.NewSet(),
			MissingVolunteerChannels: people.NewSet(),
		}
		byID[u.ID] = m
		members = append(members, m)
	}

	for _, ch := range channels {
		volunteer := s.policy.IsVolunteerChannel(ch.Name)
		for id := range ch.Members {
			m, ok := byID[id]
			if !ok {
				continue
			}
			m.Channels.Add(ch.Name)
			if ch.Private {
				m.PrivateChannels.Add(ch.Name)
			} else {
				m.PublicChannels.Add(ch.Name)
			}
			if volunteer {
				m.VolunteerChannels.Add(ch.Name)
			}
		}
		if volunteer {
			for _, m := range members {
				if !ch.Members.Has(m.ID) {
					m.MissingVolunteerChannels.Add(ch.Name)
				}
			}
		}
	}

	logger.Debug().
		Int("members", len(members)).
		Int("channels", len(channels)).
		Msg("Chat membership assembled")

	return &sources.Chat{Members: members, Channels: channels}, nil
}

// kinds mirrors the roster categories from user group membership.
func (s *Source) kinds(ctx context.Context) (map[string]people.Kind, error) {
	groups, err := s.client.userGroups(ctx)
	if err != nil {
		return nil, err
	}

	handles := map[string]people.Kind{
		s.policy.Chat.Groups.Volunteer:       people.KindVolunteer,
		s.policy.Chat.Groups.FormerVolunteer: people.KindFormerVolunteer,
		s.policy.Chat.Groups.SpecialGuest:    people.KindSpecialGuest,
	}

	kinds := make(map[string]people.Kind)
	for _, g := range groups {
		kind, ok := handles[g.Handle]
		if !ok {
			continue
		}
		for _, id := range g.Users {
			if prev, dup := kinds[id]; dup && prev != kind {
				return nil, &errors.APIError{
					Source:  sources.SlackID.String(),
					Message: fmt.Sprintf("member %s is in both %s and %s groups", id, prev, kind),
				}
			}
			kinds[id] = kind
		}
	}
	return kinds, nil
}

// channels lists channels and their members with a bounded worker pool.
func (s *Source) channels(ctx context.Context) ([]*people.Channel, error) {
	convs, err := s.client.conversations(ctx)
	if err != nil {
		return nil, err
	}

	channels := make([]*people.Channel, len(convs))
	p := pool.New().
		WithMaxGoroutines(s.workers).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for i, conv := range convs {
		p.Go(func(ctx context.Context) error {
			ids, err := s.client.members(ctx, conv.ID)
			if err != nil {
				return err
			}
			channels[i] = &people.Channel{
				ID:      conv.ID,
				Name:    conv.Name,
				Private: conv.IsPrivate,
				Members: people.NewSet(ids...),
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(channels, func(i, j int) bool {
		return channels[i].Name < channels[j].Name
	})
	return channels, nil
}

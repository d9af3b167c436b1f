// Package website lists the accounts empowered on the website back office.
package website

import (
	"context"

	"github.com/covidliste/directory/internal/transport"
	"github.com/covidliste/directory/pkg/logging"
	"github.com/covidliste/directory/pkg/people"
	"github.com/covidliste/directory/pkg/sources"
)

type usersResponse struct {
	Users []struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Role    string `json:"role"`
		Invited bool   `json:"invited"`
	} `json:"users"`
}

// Source reads the back office user list.
type Source struct {
	url       string
	transport *transport.Client
}

// New creates a website source.
func New(url, token string, opts ...transport.Option) *Source {
	return &Source{
		url:       url,
		transport: transport.New(sources.WebsiteID.String(), &transport.BearerAuth{Token: token}, opts...),
	}
}

// ID implements sources.Source.
func (s *Source) ID() sources.ID {
	return sources.WebsiteID
}

// FetchAccess implements sources.AccessSource.
func (s *Source) FetchAccess(ctx context.Context) ([]people.AccessRecord, error) {
	var out usersResponse
	if err := s.transport.GetJSON(ctx, s.url, &out); err != nil {
		return nil, err
	}

	records := make([]people.AccessRecord, 0, len(out.Users))
	for _, u := range out.Users {
		email := people.CanonicalEmail(u.Email)
		if email == "" {
			logging.FromContext(ctx).Debug().Str("name", u.Name).Msg("User without email ignored")
			continue
		}
		records = append(records, people.AccessRecord{
			Email:   email,
			Name:    u.Name,
			Role:    u.Role,
			Invited: u.Invited,
		})
	}
	return records, nil
}

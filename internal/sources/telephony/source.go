// Package telephony lists the users of the Aircall account.
package telephony

import (
	"context"
	"net/url"
	"strconv"

	"github.com/covidliste/directory/internal/transport"
	"github.com/covidliste/directory/pkg/constants"
	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/people"
	"github.com/covidliste/directory/pkg/sources"
)

// pageSize is the largest page the API serves.
const pageSize = 50

type usersResponse struct {
	Users []struct {
		ID        int    `json:"id"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		Available bool   `json:"available"`
	} `json:"users"`
	Meta struct {
		NextPageLink *string `json:"next_page_link"`
	} `json:"meta"`
}

// Source reads the user list, following next page links.
type Source struct {
	url       string
	transport *transport.Client
}

// New creates a telephony source authenticated with basic auth.
func New(endpoint, apiID, apiToken string, opts ...transport.Option) *Source {
	return &Source{
		url:       endpoint,
		transport: transport.New(sources.TelephonyID.String(), &transport.BasicAuth{Username: apiID, Password: apiToken}, opts...),
	}
}

// ID implements sources.Source.
func (s *Source) ID() sources.ID {
	return sources.TelephonyID
}

// FetchAccess implements sources.AccessSource.
func (s *Source) FetchAccess(ctx context.Context) ([]people.AccessRecord, error) {
	next, err := url.Parse(s.url)
	if err != nil {
		return nil, errors.WrapAPI(sources.TelephonyID.String(), s.url, err)
	}
	q := next.Query()
	q.Set("per_page", strconv.Itoa(pageSize))
	next.RawQuery = q.Encode()
	link := next.String()

	var records []people.AccessRecord
	for page := 0; link != ""; page++ {
		if page == constants.MaxPages {
			return nil, &errors.APIError{Source: sources.TelephonyID.String(), Endpoint: s.url, Message: "pagination did not terminate"}
		}

		var out usersResponse
		if err := s.transport.GetJSON(ctx, link, &out); err != nil {
			return nil, err
		}
		for _, u := range out.Users {
			email := people.CanonicalEmail(u.Email)
			if email == "" {
				continue
			}
			records = append(records, people.AccessRecord{Email: email, Name: u.Name})
		}

		link = ""
		if out.Meta.NextPageLink != nil {
			link = *out.Meta.NextPageLink
		}
	}
	return records, nil
}

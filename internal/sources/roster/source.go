package roster

import (
	"bytes"
	"context"
	"net/http"

	"github.com/covidliste/directory/internal/transport"
	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/people"
	"github.com/covidliste/directory/pkg/policy"
	"github.com/covidliste/directory/pkg/sources"
)

var acceptCSV = http.Header{"Accept": []string{"text/csv"}}

// Source fetches the roster CSV export over HTTP.
type Source struct {
	url    string
	client *transport.Client
	parser *Parser
}

// New creates a roster source reading url.
func New(url string, pol *policy.Policy, opts ...transport.Option) *Source {
	return &Source{
		url:    url,
		client: transport.New(sources.RosterID.String(), &transport.NoAuth{}, opts...),
		parser: NewParser(pol),
	}
}

// ID implements sources.Source.
func (s *Source) ID() sources.ID {
	return sources.RosterID
}

// FetchRoster implements sources.RosterSource.
func (s *Source) FetchRoster(ctx context.Context) (*people.Roster, error) {
	resp, err := s.client.Get(ctx, s.url, acceptCSV)
	if err != nil {
		return nil, err
	}

	body, err := transport.ReadBody(resp)
	if err != nil {
		return nil, err
	}
	if !transport.IsSuccess(resp.StatusCode) {
		return nil, &errors.APIError{
			Source:     sources.RosterID.String(),
			StatusCode: resp.StatusCode,
			Endpoint:   s.url,
			Message:    "roster export failed",
		}
	}

	return s.parser.Parse(ctx, bytes.NewReader(body))
}

// Package knowledgebase lists the members of the Notion workspace.
package knowledgebase

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
const pageSize = 100

type usersResponse struct {
	Results []struct {
		Object string `json:"object"`
		ID     string `json:"id"`
		Type   string `json:"type"`
		Name   string `json:"name"`
		Person struct {
			Email string `json:"email"`
		} `json:"person"`
	} `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// Source reads workspace users with cursor pagination.
type Source struct {
	url       string
	transport *transport.Client
}

// New creates a knowledge base source. version is sent as Notion-Version.
func New(endpoint, token, version string, opts ...transport.Option) *Source {
	opts = append([]transport.Option{transport.WithHeader("Notion-Version", version)}, opts...)
	return &Source{
		url:       endpoint,
		transport: transport.New(sources.KnowledgeBaseID.String(), &transport.BearerAuth{Token: token}, opts...),
	}
}

// ID implements sources.Source.
func (s *Source) ID() sources.ID {
	return sources.KnowledgeBaseID
}

// FetchAccess implements sources.AccessSource. Bots are not people and are skipped.
func (s *Source) FetchAccess(ctx context.Context) ([]people.AccessRecord, error) {
	base, err := url.Parse(s.url)
	if err != nil {
		return nil, errors.WrapAPI(sources.KnowledgeBaseID.String(), s.url, err)
	}

	var records []people.AccessRecord
	cursor := ""
	for page := 0; ; page++ {
		if page == constants.MaxPages {
			return nil, &errors.APIError{Source: sources.KnowledgeBaseID.String(), Endpoint: s.url, Message: "pagination did not terminate"}
		}

		q := base.Query()
		q.Set("page_size", strconv.Itoa(pageSize))
		if cursor != "" {
			q.Set("start_cursor", cursor)
		}
		u := *base
		u.RawQuery = q.Encode()

		var out usersResponse
		if err := s.transport.GetJSON(ctx, u.String(), &out); err != nil {
			return nil, err
		}
		for _, r := range out.Results {
			if r.Type != "person" {
				continue
			}
			email := people.CanonicalEmail(r.Person.Email)
			if email == "" {
				continue
			}
			records = append(records, people.AccessRecord{Email: email, Name: r.Name, Role: r.Type})
		}

		if !out.HasMore || out.NextCursor == "" {
			return records, nil
		}
		cursor = out.NextCursor
	}
}

// Package helpdesk lists the teammates of the Intercom workspace.
package helpdesk

import (
	"context"

	"github.com/covidliste/directory/internal/transport"
	"github.com/covidliste/directory/pkg/logging"
	"github.com/covidliste/directory/pkg/people"
	"github.com/covidliste/directory/pkg/sources"
)

// APIVersion is sent in the Intercom-Version header.
const APIVersion = "2.10"

type adminsResponse struct {
	Admins []struct {
		Type  string `json:"type"`
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"admins"`
}

// Source reads the admin list.
type Source struct {
	url       string
	transport *transport.Client
}

// New creates a helpdesk source.
func New(url, token string, opts ...transport.Option) *Source {
	opts = append([]transport.Option{transport.WithHeader("Intercom-Version", APIVersion)}, opts...)
	return &Source{
		url:       url,
		transport: transport.New(sources.HelpdeskID.String(), &transport.BearerAuth{Token: token}, opts...),
	}
}

// ID implements sources.Source.
func (s *Source) ID() sources.ID {
	return sources.HelpdeskID
}

// FetchAccess implements sources.AccessSource. Team entries have no email
// and are skipped.
func (s *Source) FetchAccess(ctx context.Context) ([]people.AccessRecord, error) {
	var out adminsResponse
	if err := s.transport.GetJSON(ctx, s.url, &out); err != nil {
		return nil, err
	}

	records := make([]people.AccessRecord, 0, len(out.Admins))
	for _, a := range out.Admins {
		email := people.CanonicalEmail(a.Email)
		if email == "" {
			logging.FromContext(ctx).Debug().Str("admin_id", a.ID).Str("type", a.Type).Msg("Admin without email ignored")
			continue
		}
		records = append(records, people.AccessRecord{
			Email: email,
			Name:  a.Name,
			Role:  a.Type,
		})
	}
	return records, nil
}

// Package slack reads members, user groups and channels from the Slack Web API.
package slack

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/covidliste/directory/internal/transport"
	"github.com/covidliste/directory/pkg/constants"
	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/sources"
)

// Client calls Web API methods.
type Client struct {
	baseURL   string
	transport *transport.Client
}

// NewClient creates a client for the Web API at baseURL authenticated with token.
func NewClient(baseURL, token string, opts ...transport.Option) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: transport.New(sources.SlackID.String(), &transport.BearerAuth{Token: token}, opts...),
	}
}

// call invokes method and checks the ok envelope.
func (c *Client) call(ctx context.Context, method string, params url.Values, out response) error {
	endpoint := c.baseURL + "/" + method
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	if err := c.transport.GetJSON(ctx, endpoint, out); err != nil {
		return err
	}

	if env := out.status(); !env.OK {
		msg := env.Error
		if msg == "" {
			msg = "unknown error"
		}
		return &errors.APIError{
			Source:   sources.SlackID.String(),
			Endpoint: c.baseURL + "/" + method,
			Message:  msg,
		}
	}
	return nil
}

// paginate calls method until the cursor is exhausted; page is invoked with
// the decoded answer of every page.
func paginate[R response](ctx context.Context, c *Client, method string, params url.Values, newPage func() R, page func(R)) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("limit", strconv.Itoa(constants.DefaultPageSize))

	cursor := ""
	for i := 0; i < constants.MaxPages; i++ {
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		out := newPage()
		if err := c.call(ctx, method, params, out); err != nil {
			return err
		}
		page(out)

		cursor = out.status().Metadata.NextCursor
		if cursor == "" {
			return nil
		}
	}
	return &errors.APIError{
		Source:   sources.SlackID.String(),
		Endpoint: c.baseURL + "/" + method,
		Message:  "pagination did not terminate",
	}
}

// users lists every workspace member.
func (c *Client) users(ctx context.Context) ([]user, error) {
	var all []user
	err := paginate(ctx, c, "users.list", nil,
		func() *usersResponse { return &usersResponse{} },
		func(r *usersResponse) { all = append(all, r.Members...) })
	return all, err
}

// userGroups lists user groups with their members.
func (c *Client) userGroups(ctx context.Context) ([]userGroup, error) {
	var out userGroupsResponse
	params := url.Values{"include_users": []string{"true"}}
	if err := c.call(ctx, "usergroups.list", params, &out); err != nil {
		return nil, err
	}
	return out.UserGroups, nil
}

// conversations lists public and private channels that are not archived.
func (c *Client) conversations(ctx context.Context) ([]conversation, error) {
	var all []conversation
	params := url.Values{
		"types":            []string{"public_channel,private_channel"},
		"exclude_archived": []string{"true"},
	}
	err := paginate(ctx, c, "conversations.list", params,
		func() *conversationsResponse { return &conversationsResponse{} },
		func(r *conversationsResponse) { all = append(all, r.Channels...) })
	return all, err
}

// members lists the member ids of a channel.
func (c *Client) members(ctx context.Context, channelID string) ([]string, error) {
	var all []string
	params := url.Values{"channel": []string{channelID}}
	err := paginate(ctx, c, "conversations.members", params,
		func() *membersResponse { return &membersResponse{} },
		func(r *membersResponse) { all = append(all, r.Members...) })
	return all, err
}

// billing returns the billing-active flag per member id.
func (c *Client) billing(ctx context.Context) (map[string]bool, error) {
	var out billableResponse
	if err := c.call(ctx, "team.billableInfo", nil, &out); err != nil {
		return nil, err
	}
	active := make(map[string]bool, len(out.BillableInfo))
	for id, info := range out.BillableInfo {
		active[id] = info.BillingActive
	}
	return active, nil
}

package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/covidliste/directory/pkg/constants"
	"github.com/covidliste/directory/pkg/errors"
)

// Client performs authenticated requests against one upstream source.
// Its base headers are fixed at construction; per-call headers are layered
// on a copy so concurrent calls never see each other's headers.
type Client struct {
	source  string
	http    *http.Client
	auth    Authenticator
	headers http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-call timeout. The HTTP client is copied, so a
// client passed to WithHTTPClient keeps its own timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

// WithHeader adds a base header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// New creates a client for source with the given authenticator.
func New(source string, auth Authenticator, opts ...Option) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	c := &Client{
		source:  source,
		http:    &http.Client{Timeout: constants.DefaultHTTPTimeout},
		auth:    auth,
		headers: http.Header{"Accept": []string{"application/json"}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the source id the client reports errors under.
func (c *Client) Source() string {
	return c.source
}

// Headers returns a copy of the base headers.
func (c *Client) Headers() http.Header {
	return c.headers.Clone()
}

// Do sends req with the base headers, then the overlays, then authentication.
// The caller's request is not modified.
func (c *Client) Do(ctx context.Context, req *http.Request, overlay ...http.Header) (*http.Response, error) {
	out := req.Clone(ctx)
	out.Header = c.headers.Clone()
	for k, v := range req.Header {
		out.Header[k] = append([]string(nil), v...)
	}
	for _, h := range overlay {
		for k, v := range h {
			out.Header[k] = append([]string(nil), v...)
		}
	}
	c.auth.Apply(out)

	resp, err := c.http.Do(out)
	if err != nil {
		return nil, errors.WrapAPI(c.source, req.URL.String(), err)
	}
	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string, overlay ...http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapAPI(c.source, url, err)
	}
	return c.Do(ctx, req, overlay...)
}

// GetJSON performs a GET request and decodes a successful JSON answer into target.
func (c *Client) GetJSON(ctx context.Context, url string, target any, overlay ...http.Header) error {
	resp, err := c.Get(ctx, url, overlay...)
	if err != nil {
		return err
	}
	return DecodeResponse(c.source, resp, target)
}

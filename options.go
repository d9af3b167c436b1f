package directory

import (
	"net/http"
	"time"

	appconfig "github.com/covidliste/directory/internal/config"
	"github.com/covidliste/directory/internal/sources/helpdesk"
	"github.com/covidliste/directory/internal/sources/knowledgebase"
	"github.com/covidliste/directory/internal/sources/roster"
	"github.com/covidliste/directory/internal/sources/slack"
	"github.com/covidliste/directory/internal/sources/telephony"
	"github.com/covidliste/directory/internal/sources/website"
	"github.com/covidliste/directory/internal/transport"
	"github.com/covidliste/directory/pkg/constants"
	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/picture"
	"github.com/covidliste/directory/pkg/policy"
	"github.com/covidliste/directory/pkg/publish"
	"github.com/covidliste/directory/pkg/sources"
)

// Option is a function that configures a Directory
type Option func(*config) error

// config holds the configuration of a Directory
type config struct {
	policy      *policy.Policy
	credentials *appconfig.Credentials
	sources     *sources.Set
	pictures    publish.PictureResolver
	output      string
	picturesDir string
	timeout     time.Duration
	httpClient  *http.Client
	workers     int
}

func defaultConfig() *config {
	return &config{
		output:      constants.DefaultOutputPath,
		picturesDir: constants.DefaultPicturesPath,
		timeout:     constants.DefaultHTTPTimeout,
		workers:     constants.MaxConcurrentChannels,
	}
}

// WithPolicy sets the domain policy. The default policy is used otherwise.
func WithPolicy(p *policy.Policy) Option {
	return func(c *config) error {
		if p == nil {
			return errors.NewValidationError("policy", nil, "policy cannot be nil")
		}
		c.policy = p
		return nil
	}
}

// WithCredentials configures the upstream sources and the picture lookups
// from resolved credentials.
func WithCredentials(creds *appconfig.Credentials) Option {
	return func(c *config) error {
		if creds == nil {
			return errors.NewConfigError("credentials", "credentials cannot be nil", nil)
		}
		c.credentials = creds
		return nil
	}
}

// WithSources replaces the upstream sources.
func WithSources(set sources.Set) Option {
	return func(c *config) error {
		c.sources = &set
		return nil
	}
}

// WithPictures replaces the avatar resolver.
func WithPictures(r publish.PictureResolver) Option {
	return func(c *config) error {
		c.pictures = r
		return nil
	}
}

// WithOutput sets the path of the published JSON document.
func WithOutput(path string) Option {
	return func(c *config) error {
		if path == "" {
			return errors.NewValidationError("output", path, "output path cannot be empty")
		}
		c.output = path
		return nil
	}
}

// WithPicturesDir sets the directory avatars are written to.
func WithPicturesDir(dir string) Option {
	return func(c *config) error {
		if dir == "" {
			return errors.NewValidationError("pictures", dir, "pictures directory cannot be empty")
		}
		c.picturesDir = dir
		return nil
	}
}

// WithTimeout sets the timeout of every outbound call.
func WithTimeout(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return errors.NewValidationError("timeout", d, "timeout must be positive")
		}
		c.timeout = d
		return nil
	}
}

// WithHTTPClient sets the HTTP client shared by every outbound call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) error {
		c.httpClient = hc
		return nil
	}
}

// WithWorkers sets the size of the chat channel worker pool.
func WithWorkers(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return errors.NewValidationError("workers", n, "workers must be positive")
		}
		c.workers = n
		return nil
	}
}

// options applies opts and fills in what derives from the credentials.
func (d *directory) options(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(d.config); err != nil {
			return err
		}
	}

	c := d.config
	if c.policy == nil {
		c.policy = policy.Default()
	}

	if c.sources == nil {
		if c.credentials == nil {
			return errors.NewConfigError("sources", "credentials or sources are required", nil)
		}
		set := c.sourceSet()
		c.sources = &set
	}

	if c.pictures == nil && c.credentials != nil {
		c.pictures = picture.New(picture.Config{
			Dir:          c.picturesDir,
			GitHubURL:    c.credentials.GitHubURL,
			TwitterURL:   c.credentials.TwitterURL,
			TwitterToken: c.credentials.TwitterToken,
			Timeout:      c.timeout,
			HTTPClient:   c.httpClient,
		})
	}
	return nil
}

func (c *config) transportOptions() []transport.Option {
	var opts []transport.Option
	if c.httpClient != nil {
		opts = append(opts, transport.WithHTTPClient(c.httpClient))
	}
	return append(opts, transport.WithTimeout(c.timeout))
}

// sourceSet builds the six upstream sources from the credentials.
func (c *config) sourceSet() sources.Set {
	creds := c.credentials
	topts := c.transportOptions()

	return sources.Set{
		Roster: roster.New(creds.RosterURL, c.policy, topts...),
		Chat:   slack.New(creds.SlackURL, creds.SlackToken, c.policy, topts, slack.WithWorkers(c.workers)),
		Access: []sources.AccessSource{
			website.New(creds.WebsiteURL, creds.WebsiteToken, topts...),
			helpdesk.New(creds.HelpdeskURL, creds.HelpdeskToken, topts...),
			telephony.New(creds.TelephonyURL, creds.TelephonyAPIID, creds.TelephonyAPIToken, topts...),
			knowledgebase.New(creds.KnowledgeBaseURL, creds.KnowledgeBaseToken, creds.KnowledgeBaseVersion, topts...),
		},
	}
}

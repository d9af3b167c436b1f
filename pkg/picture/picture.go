// Package picture resolves, normalizes and stores volunteer avatars.
//
// A person may offer several picture candidates. They are tried in priority
// order and the first one that yields a usable image is stored as a square
// JPEG named after the person id. A failing candidate is logged and skipped;
// it never fails the build.
package picture

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/covidliste/directory/internal/transport"
	"github.com/covidliste/directory/pkg/constants"
	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/logging"
	"github.com/covidliste/directory/pkg/people"
)

// Config configures a Pipeline.
type Config struct {
	// Dir receives the avatar files.
	Dir string

	GitHubURL    string
	TwitterURL   string
	TwitterToken string

	// Size is the edge of the square avatar in pixels.
	Size int

	// Timeout bounds every outbound call.
	Timeout time.Duration

	HTTPClient *http.Client
}

// Pipeline turns a person's picture candidates into a stored avatar.
type Pipeline struct {
	dir        string
	size       int
	githubURL  string
	twitterURL string

	web     *transport.Client
	twitter *transport.Client

	mu       sync.Mutex
	staging  string
	produced map[string]bool
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Dir == "" {
		cfg.Dir = constants.DefaultPicturesPath
	}
	if cfg.Size <= 0 {
		cfg.Size = constants.AvatarSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultHTTPTimeout
	}

	var opts []transport.Option
	if cfg.HTTPClient != nil {
		opts = append(opts, transport.WithHTTPClient(cfg.HTTPClient))
	}
	opts = append(opts, transport.WithTimeout(cfg.Timeout))

	p := &Pipeline{
		dir:        cfg.Dir,
		size:       cfg.Size,
		githubURL:  cfg.GitHubURL,
		twitterURL: cfg.TwitterURL,
		web:        transport.New("picture", nil, opts...),
	}
	if cfg.TwitterToken != "" && cfg.TwitterURL != "" {
		p.twitter = transport.New("twitter", &transport.BearerAuth{Token: cfg.TwitterToken}, opts...)
	}
	return p
}

// Dir returns the directory avatars are written to.
func (p *Pipeline) Dir() string {
	return p.dir
}

// Resolve stages the first usable candidate of person and returns the
// avatar filename, or "" when no candidate worked. The file reaches the
// pictures directory on Commit.
func (p *Pipeline) Resolve(ctx context.Context, person *people.Person) string {
	if person.Anonymous {
		return ""
	}

	ctx = logging.WithPerson(ctx, person.ID, person.DisplayName())
	logger := logging.FromContext(ctx)

	for _, c := range p.candidates(person) {
		if c.resolve == nil {
			logger.Debug().Str("candidate", c.name).Msg("Candidate has no retrievable picture")
			continue
		}

		src, err := c.resolve(ctx, c.value)
		if err == nil {
			var filename string
			filename, err = p.store(ctx, person.ID, src)
			if err == nil {
				logger.Debug().Str("candidate", c.name).Str("file", filename).Msg("Picture stored")
				return filename
			}
		}

		perr := asPictureError(err, person.DisplayName(), c.name, src)
		logger.Warn().Err(perr).Str("candidate", c.name).Msg("Picture candidate failed")
	}

	return ""
}

// store downloads src, normalizes it and writes the avatar to staging.
func (p *Pipeline) store(ctx context.Context, id, src string) (string, error) {
	img, err := p.fetch(ctx, src)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	staging, err := p.stagingDir()
	if err != nil {
		return "", err
	}
	filename := people.AvatarFilename(id)
	if err := p.write(img, filepath.Join(staging, filename)); err != nil {
		return "", err
	}
	p.produced[filename] = true
	return filename, nil
}

func asPictureError(err error, person, candidate, src string) *errors.PictureError {
	if perr, ok := err.(*errors.PictureError); ok {
		perr.Person = person
		perr.Candidate = candidate
		if perr.URL == "" {
			perr.URL = src
		}
		return perr
	}
	return &errors.PictureError{
		Person:    person,
		Candidate: candidate,
		URL:       src,
		Message:   "unusable",
		Err:       err,
	}
}

// Package directory builds the public volunteer directory.
//
// A build reads the self-reported roster and the membership records of the
// chat platform and the SaaS tools, reconciles them, and only when every
// source agrees publishes the privacy-filtered volunteer list and avatars.
//
// Example usage:
//
//	d, err := directory.New(
//	    directory.WithCredentials(creds),
//	    directory.WithOutput("volunteers.json"),
//	)
//	if err != nil {
//	    return err
//	}
//	result, err := d.Build(ctx)
package directory

import (
	"context"
	"time"

	"github.com/covidliste/directory/pkg/publish"
	"github.com/covidliste/directory/pkg/reconcile"
)

// Directory runs directory builds.
type Directory interface {
	// Check fetches every source and reconciles them without writing anything.
	Check(ctx context.Context) (*Result, error)

	// Build checks the sources, then publishes when they agree.
	Build(ctx context.Context) (*Result, error)

	// OnViolation registers a callback for every reconciliation violation
	OnViolation(ViolationHook)

	// OnPublished registers a callback for a successful publication
	OnPublished(PublishedHook)
}

// Result is the outcome of one run.
type Result struct {
	RunID     string            `json:"run_id" yaml:"run_id"`
	Reconcile *reconcile.Result `json:"reconcile" yaml:"reconcile"`
	Publish   *publish.Report   `json:"publish,omitempty" yaml:"publish,omitempty"`
	Duration  time.Duration     `json:"duration" yaml:"duration"`
}

// directory is the internal implementation of the Directory interface
type directory struct {
	config *config
	hooks  *hooks
}

// New creates a new Directory with the given options.
func New(opts ...Option) (Directory, error) {
	d := &directory{
		config: defaultConfig(),
		hooks:  newHooks(),
	}

	if err := d.options(opts...); err != nil {
		return nil, err
	}
	return d, nil
}

// OnViolation registers a callback for every reconciliation violation
func (d *directory) OnViolation(fn ViolationHook) {
	d.hooks.OnViolation(fn)
}

// OnPublished registers a callback for a successful publication
func (d *directory) OnPublished(fn PublishedHook) {
	d.hooks.OnPublished(fn)
}

package directory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/covidliste/directory/pkg/logging"
	"github.com/covidliste/directory/pkg/publish"
	"github.com/covidliste/directory/pkg/reconcile"
	"github.com/covidliste/directory/pkg/sources"
)

// Check fetches and reconciles every source. A non-nil error means either a
// source could not be read or the sources disagree; in the latter case the
// returned Result lists every violation.
func (d *directory) Check(ctx context.Context) (*Result, error) {
	ctx, result := d.begin(ctx, "check")
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	_, err := d.check(ctx, result)
	return result, err
}

// Build checks the sources and publishes the volunteer list. Nothing is
// written unless the sources agree.
func (d *directory) Build(ctx context.Context) (*Result, error) {
	ctx, result := d.begin(ctx, "build")
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	// Step 1: fetch and reconcile
	snap, err := d.check(ctx, result)
	if err != nil {
		return result, err
	}

	// Step 2: publish in roster order
	publisher := publish.New(d.config.policy,
		publish.WithOutput(d.config.output),
		publish.WithPictures(d.config.pictures),
	)
	report, err := publisher.Publish(ctx, snap.Roster.People)
	if err != nil {
		logging.FromContext(ctx).Error().Err(err).Msg("Publication failed")
		return result, err
	}
	result.Publish = report

	// Step 3: notify
	d.hooks.triggerPublished(report)
	return result, nil
}

// begin tags the run with a fresh id.
func (d *directory) begin(ctx context.Context, operation string) (context.Context, *Result) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &Result{RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, result.RunID)
	ctx = logging.WithOperation(ctx, operation)
	return ctx, result
}

// check fetches every source and reconciles them.
func (d *directory) check(ctx context.Context, result *Result) (*sources.Snapshot, error) {
	snap, err := sources.FetchAll(ctx, *d.config.sources)
	if err != nil {
		return nil, err
	}

	rec := reconcile.New(d.config.policy).Reconcile(ctx, snap)
	result.Reconcile = rec

	if err := rec.Err(); err != nil {
		d.hooks.triggerViolations(rec.Violations)
		return nil, err
	}
	return snap, nil
}

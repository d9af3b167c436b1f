package sources

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/covidliste/directory/pkg/constants"
	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/logging"
	"github.com/covidliste/directory/pkg/people"
)

// Set groups the sources of one build.
type Set struct {
	Roster RosterSource
	Chat   ChatSource
	Access []AccessSource
}

// Snapshot is everything fetched for one build. There is no consistency
// guarantee across sources; each one is read once.
type Snapshot struct {
	Roster *people.Roster
	Chat   *Chat
	Access map[ID][]people.AccessRecord
	// AccessOrder lists the access source ids in Set order.
	AccessOrder []ID
}

// FetchAll fetches every source concurrently. The first failure cancels the
// remaining fetches and is returned; no partial snapshot is ever returned.
func FetchAll(ctx context.Context, set Set) (*Snapshot, error) {
	if set.Roster == nil || set.Chat == nil {
		return nil, errors.NewValidationError("sources", nil, "roster and chat sources are required")
	}

	logger := logging.FromContext(ctx)

	var (
		roster *people.Roster
		chat   *Chat
		access = make([][]people.AccessRecord, len(set.Access))
	)

	p := pool.New().
		WithMaxGoroutines(constants.MaxConcurrentSources).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	p.Go(func(ctx context.Context) error {
		return timed(ctx, set.Roster, func(ctx context.Context) (int, error) {
			r, err := set.Roster.FetchRoster(ctx)
			if err != nil {
				return 0, err
			}
			roster = r
			return r.Len(), nil
		})
	})

	p.Go(func(ctx context.Context) error {
		return timed(ctx, set.Chat, func(ctx context.Context) (int, error) {
			c, err := set.Chat.FetchChat(ctx)
			if err != nil {
				return 0, err
			}
			chat = c
			return len(c.Members), nil
		})
	})

	for i, src := range set.Access {
		p.Go(func(ctx context.Context) error {
			return timed(ctx, src, func(ctx context.Context) (int, error) {
				records, err := src.FetchAccess(ctx)
				if err != nil {
					return 0, err
				}
				access[i] = records
				return len(records), nil
			})
		})
	}

	if err := p.Wait(); err != nil {
		logger.Error().Err(err).Msg("Source fetch failed, nothing will be published")
		return nil, err
	}

	snap := &Snapshot{
		Roster: roster,
		Chat:   chat,
		Access: make(map[ID][]people.AccessRecord, len(set.Access)),
	}
	for i, src := range set.Access {
		snap.Access[src.ID()] = access[i]
		snap.AccessOrder = append(snap.AccessOrder, src.ID())
	}
	return snap, nil
}

// timed runs one fetch with the source's logger in context and logs its outcome.
func timed(ctx context.Context, src Source, fetch func(context.Context) (int, error)) error {
	ctx = logging.WithSource(ctx, src.ID().String())
	logger := logging.FromContext(ctx)

	logger.Info().Msg("Fetching")
	start := time.Now()

	n, err := fetch(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Fetch failed")
		return err
	}

	logger.Debug().
		Int("records", n).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched")
	return nil
}

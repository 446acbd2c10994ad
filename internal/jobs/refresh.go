package jobs

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/petrosk/trackfolio/internal/portfolio"
	"github.com/petrosk/trackfolio/internal/watchlist"
)

// RefreshJob re-syncs both resource families from the server. It refetches
// each collection and, when a selection exists, re-selects it so the detail
// view picks up server-side changes and pending children get reconciled.
type RefreshJob struct {
	portfolios *portfolio.Manager
	watchlists *watchlist.Manager
	log        zerolog.Logger
}

// NewRefreshJob creates a refresh job over both managers.
func NewRefreshJob(portfolios *portfolio.Manager, watchlists *watchlist.Manager, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		portfolios: portfolios,
		watchlists: watchlists,
		log:        log.With().Str("job", "refresh").Logger(),
	}
}

// Name implements scheduler.Job.
func (j *RefreshJob) Name() string {
	return "refresh"
}

// Run implements scheduler.Job.
func (j *RefreshJob) Run(ctx context.Context) error {
	j.portfolios.FetchCollection(ctx)
	if id := j.portfolios.CurrentID(); id != "" {
		j.portfolios.Select(ctx, id)
	}

	j.watchlists.FetchCollection(ctx)
	if id := j.watchlists.CurrentID(); id != "" {
		j.watchlists.Select(ctx, id)
	}

	j.log.Debug().Msg("Refresh complete")
	return nil
}

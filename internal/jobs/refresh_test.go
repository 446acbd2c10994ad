package jobs

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrosk/trackfolio/internal/api"
	"github.com/petrosk/trackfolio/internal/portfolio"
	"github.com/petrosk/trackfolio/internal/state"
	"github.com/petrosk/trackfolio/internal/watchlist"
)

// countingPortfolioBackend serves one fixed portfolio and counts calls.
type countingPortfolioBackend struct {
	mu              sync.Mutex
	collectionCalls int
	detailCalls     int
}

func (b *countingPortfolioBackend) FetchCollection(ctx context.Context) ([]portfolio.Portfolio, *api.Error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.collectionCalls++
	return []portfolio.Portfolio{{ID: "p1", Name: "Main"}}, nil
}

func (b *countingPortfolioBackend) FetchDetail(ctx context.Context, id string) (portfolio.Portfolio, []portfolio.Transaction, *api.Error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detailCalls++
	return portfolio.Portfolio{ID: id, Name: "Main"}, nil, nil
}

func (b *countingPortfolioBackend) Create(ctx context.Context, payload map[string]any) (portfolio.Portfolio, *api.Error) {
	return portfolio.Portfolio{}, api.NewValidationError("not supported")
}

func (b *countingPortfolioBackend) Update(ctx context.Context, id string, patch map[string]any) (portfolio.Portfolio, *api.Error) {
	return portfolio.Portfolio{}, api.NewValidationError("not supported")
}

func (b *countingPortfolioBackend) Delete(ctx context.Context, id string) *api.Error {
	return api.NewValidationError("not supported")
}

func (b *countingPortfolioBackend) AddChild(ctx context.Context, parentID string, payload map[string]any) (portfolio.Transaction, *api.Error) {
	return portfolio.Transaction{}, api.NewValidationError("not supported")
}

func (b *countingPortfolioBackend) RemoveChild(ctx context.Context, parentID, childID string) *api.Error {
	return api.NewValidationError("not supported")
}

// countingWatchlistBackend serves an empty collection and counts calls.
type countingWatchlistBackend struct {
	mu              sync.Mutex
	collectionCalls int
	detailCalls     int
}

func (b *countingWatchlistBackend) FetchCollection(ctx context.Context) ([]watchlist.Watchlist, *api.Error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.collectionCalls++
	return nil, nil
}

func (b *countingWatchlistBackend) FetchDetail(ctx context.Context, id string) (watchlist.Watchlist, []watchlist.Item, *api.Error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detailCalls++
	return watchlist.Watchlist{}, nil, &api.Error{Code: api.HTTPCode(404), Message: "not found", Status: 404}
}

func (b *countingWatchlistBackend) Create(ctx context.Context, payload map[string]any) (watchlist.Watchlist, *api.Error) {
	return watchlist.Watchlist{}, api.NewValidationError("not supported")
}

func (b *countingWatchlistBackend) Update(ctx context.Context, id string, patch map[string]any) (watchlist.Watchlist, *api.Error) {
	return watchlist.Watchlist{}, api.NewValidationError("not supported")
}

func (b *countingWatchlistBackend) Delete(ctx context.Context, id string) *api.Error {
	return api.NewValidationError("not supported")
}

func (b *countingWatchlistBackend) AddChild(ctx context.Context, parentID string, payload map[string]any) (watchlist.Item, *api.Error) {
	return watchlist.Item{}, api.NewValidationError("not supported")
}

func (b *countingWatchlistBackend) RemoveChild(ctx context.Context, parentID, childID string) *api.Error {
	return api.NewValidationError("not supported")
}

func TestRefreshJob_RefetchesAndReselects(t *testing.T) {
	pBackend := &countingPortfolioBackend{}
	wBackend := &countingWatchlistBackend{}

	portfolios := state.NewManager(state.Config[portfolio.Portfolio, portfolio.Transaction]{
		Family:  "portfolios",
		Backend: pBackend,
		Log:     zerolog.Nop(),
		Synthesize: func(parentID string, payload map[string]any) portfolio.Transaction {
			return portfolio.Transaction{}
		},
	})
	watchlists := state.NewManager(state.Config[watchlist.Watchlist, watchlist.Item]{
		Family:  "watchlists",
		Backend: wBackend,
		Log:     zerolog.Nop(),
		Synthesize: func(parentID string, payload map[string]any) watchlist.Item {
			return watchlist.Item{}
		},
	})

	// Establish a portfolio selection; watchlists stay unselected
	portfolios.FetchCollection(context.Background())
	portfolios.Select(context.Background(), "p1")
	require.Equal(t, "p1", portfolios.CurrentID())

	job := NewRefreshJob(portfolios, watchlists, zerolog.Nop())
	assert.Equal(t, "refresh", job.Name())

	detailBefore := pBackend.detailCalls
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 2, pBackend.collectionCalls)
	assert.Equal(t, detailBefore+1, pBackend.detailCalls, "a live selection is re-selected")
	assert.Equal(t, 1, wBackend.collectionCalls)
	assert.Zero(t, wBackend.detailCalls, "no selection, no detail fetch")
}

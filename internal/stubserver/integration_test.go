package stubserver

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/petrosk/trackfolio/internal/api"
	"github.com/petrosk/trackfolio/internal/events"
	"github.com/petrosk/trackfolio/internal/portfolio"
	"github.com/petrosk/trackfolio/internal/quotes"
	"github.com/petrosk/trackfolio/internal/snapshot"
	"github.com/petrosk/trackfolio/internal/state"
	"github.com/petrosk/trackfolio/internal/watchlist"
)

type memCreds struct{ token string }

func (m *memCreds) Token() string { return m.token }
func (m *memCreds) Clear()        { m.token = "" }

type harness struct {
	server     *httptest.Server
	store      *Store
	creds      *memCreds
	client     *api.Client
	portfolios *portfolio.Manager
	watchlists *watchlist.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := NewStore()
	store.SetQuote(quotes.Quote{Symbol: "AAPL", Price: 200})
	srv := New(Config{Token: "secret", Log: zerolog.Nop()}, store)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	snapshots, err := snapshot.NewStore(db, zerolog.Nop())
	require.NoError(t, err)

	creds := &memCreds{token: "secret"}
	client := api.NewClient(ts.URL, creds, zerolog.Nop())
	bus := events.NewBus(zerolog.Nop())

	h := &harness{
		server:     ts,
		store:      store,
		creds:      creds,
		client:     client,
		portfolios: portfolio.NewManager(portfolio.NewBackend(client, zerolog.Nop()), snapshots, bus, zerolog.Nop()),
		watchlists: watchlist.NewManager(watchlist.NewBackend(client, zerolog.Nop()), snapshots, bus, zerolog.Nop()),
	}
	state.NewAutoSelector(h.portfolios, bus, zerolog.Nop())
	state.NewAutoSelector(h.watchlists, bus, zerolog.Nop())
	return h
}

func TestEndToEnd_PortfolioLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Empty server, empty state
	h.portfolios.FetchCollection(ctx)
	st := h.portfolios.State()
	assert.Equal(t, state.CollectionPopulated, st.CollectionStatus)
	assert.Empty(t, st.Collection)
	assert.Nil(t, st.Current)

	// Creating selects the new portfolio
	h.portfolios.Create(ctx, map[string]any{"name": "Main"})
	st = h.portfolios.State()
	require.Len(t, st.Collection, 1)
	require.NotNil(t, st.Current)
	assert.Equal(t, "Main", st.Current.Name)

	// A funded buy shows up as a holding with server-computed aggregates
	h.portfolios.AddChild(ctx, st.Current.ID, map[string]any{
		"type": "deposit", "amount": 5000.0,
	})
	h.portfolios.AddChild(ctx, h.portfolios.CurrentID(), map[string]any{
		"type": "buy", "symbol": "AAPL", "shares": 10.0, "price": 150.0,
	})

	st = h.portfolios.State()
	require.NotNil(t, st.Current)
	assert.Len(t, st.Children, 2)
	require.Len(t, st.Current.Holdings, 1)
	assert.Equal(t, "AAPL", st.Current.Holdings[0].Symbol)
	assert.InDelta(t, 3500.0, st.Current.CashBalance, 1e-9)

	// Deleting the selected portfolio clears the selection
	h.portfolios.Delete(ctx, st.Current.ID)
	st = h.portfolios.State()
	assert.Empty(t, st.Collection)
	assert.Nil(t, st.Current)
}

func TestEndToEnd_AutoSelectionOnFetch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.store.CreateWatchlist("Growth", "")
	h.store.CreateWatchlist("Value", "")

	h.watchlists.FetchCollection(ctx)

	st := h.watchlists.State()
	require.Len(t, st.Collection, 2)
	require.NotNil(t, st.Current, "the watcher selects the first watchlist")
	assert.Equal(t, "Growth", st.Current.Name)
}

func TestEndToEnd_OfflineFallbackAndRecovery(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.store.CreateWatchlist("Growth", "")
	h.watchlists.FetchCollection(ctx)
	require.Len(t, h.watchlists.State().Collection, 1)

	// Point the client at a dead address; reads keep working from cache
	h.client.SetBaseURL("http://127.0.0.1:1")
	h.watchlists.FetchCollection(ctx)

	st := h.watchlists.State()
	assert.Equal(t, state.CollectionDegraded, st.CollectionStatus)
	require.Len(t, st.Collection, 1)
	assert.NotEmpty(t, st.Warning)

	// Back online, the warning clears
	h.client.SetBaseURL(h.server.URL)
	h.watchlists.FetchCollection(ctx)
	st = h.watchlists.State()
	assert.Equal(t, state.CollectionPopulated, st.CollectionStatus)
	assert.Empty(t, st.Warning)
}

func TestEndToEnd_OfflineAddSynthesizesPendingItem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.store.CreateWatchlist("Growth", "")
	h.watchlists.FetchCollection(ctx)
	require.NotNil(t, h.watchlists.State().Current)
	wlID := h.watchlists.CurrentID()

	h.client.SetBaseURL("http://127.0.0.1:1")
	h.watchlists.AddChild(ctx, wlID, map[string]any{"symbol": "AAPL"})

	st := h.watchlists.State()
	require.Len(t, st.Children, 1)
	assert.True(t, st.Children[0].Pending)

	// Reconnecting and re-selecting drops the unconfirmed item, because the
	// server never saw it
	h.client.SetBaseURL(h.server.URL)
	h.watchlists.Select(ctx, wlID)
	assert.Empty(t, h.watchlists.State().Children)
}

func TestEndToEnd_401ClearsCredential(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.creds.token = "wrong"
	h.portfolios.FetchCollection(ctx)

	st := h.portfolios.State()
	assert.Equal(t, state.CollectionEmpty, st.CollectionStatus)
	assert.Empty(t, h.creds.Token(), "the stored credential is cleared on 401")
}

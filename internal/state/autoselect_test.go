package state

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrosk/trackfolio/internal/events"
)

func newWatchedManager(t *testing.T, backend *fakeBackend) (*Manager[testItem, testChild], *AutoSelector[testItem, testChild]) {
	t.Helper()
	bus := events.NewBus(zerolog.Nop())
	mgr := NewManager(Config[testItem, testChild]{
		Family:  "widgets",
		Backend: backend,
		Bus:     bus,
		Log:     zerolog.Nop(),
		Synthesize: func(parentID string, payload map[string]any) testChild {
			return testChild{ID: "local", ParentID: parentID, Pending: true}
		},
	})
	auto := NewAutoSelector(mgr, bus, zerolog.Nop())
	return mgr, auto
}

func TestAutoSelector_SelectsFirstWhenCollectionAppears(t *testing.T) {
	backend := newFakeBackend()
	backend.items = []testItem{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}}
	mgr, _ := newWatchedManager(t, backend)

	mgr.FetchCollection(context.Background())

	st := mgr.State()
	require.NotNil(t, st.Current)
	assert.Equal(t, "a", st.Current.ID)
	assert.Equal(t, SelectionSelected, st.SelectionStatus)
}

func TestAutoSelector_DoesNotOverrideExistingSelection(t *testing.T) {
	backend := newFakeBackend()
	backend.items = []testItem{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}}
	mgr, _ := newWatchedManager(t, backend)

	mgr.FetchCollection(context.Background())
	mgr.Select(context.Background(), "b")

	// A later refresh must leave the explicit choice alone
	mgr.FetchCollection(context.Background())

	assert.Equal(t, "b", mgr.CurrentID())
}

func TestAutoSelector_DoesNotLoopOnFailedSelection(t *testing.T) {
	backend := newFakeBackend()
	backend.items = []testItem{{ID: "a", Name: "Alpha"}}
	mgr, _ := newWatchedManager(t, backend)

	mgr.FetchCollection(context.Background())
	require.Equal(t, "a", mgr.CurrentID())

	// Selection starts failing. The explicit call fails and clears the
	// selection, which changes the watcher's inputs exactly once, so the
	// watcher retries exactly once and then stays quiet.
	backend.fail()
	before := backend.detailCalls
	mgr.Select(context.Background(), "a")

	assert.Equal(t, before+2, backend.detailCalls)
	assert.Equal(t, SelectionFailed, mgr.State().SelectionStatus)
}

func TestAutoSelector_DoesNotSelectOnEmptyCollection(t *testing.T) {
	backend := newFakeBackend()
	mgr, _ := newWatchedManager(t, backend)

	mgr.FetchCollection(context.Background())

	assert.Nil(t, mgr.State().Current)
	assert.Zero(t, backend.detailCalls)
}

func TestAutoSelector_StopDisablesWatcher(t *testing.T) {
	backend := newFakeBackend()
	backend.items = []testItem{{ID: "a", Name: "Alpha"}}
	mgr, auto := newWatchedManager(t, backend)

	auto.Stop()
	mgr.FetchCollection(context.Background())

	assert.Nil(t, mgr.State().Current)
}

func TestAutoSelector_ReactsAfterDeleteEmptiesSelection(t *testing.T) {
	backend := newFakeBackend()
	backend.items = []testItem{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}}
	mgr, _ := newWatchedManager(t, backend)

	mgr.FetchCollection(context.Background())
	require.Equal(t, "a", mgr.CurrentID())

	// Deleting the selected item clears the selection; the watcher then
	// promotes the remaining item.
	mgr.Delete(context.Background(), "a")

	assert.Equal(t, "b", mgr.CurrentID())
}

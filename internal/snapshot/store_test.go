package snapshot

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

type fixture struct {
	Names []string `msgpack:"names"`
	Count int      `msgpack:"count"`
}

func setupStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db, zerolog.Nop())
	require.NoError(t, err)
	return store, db
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store, _ := setupStore(t)

	saved := fixture{Names: []string{"alpha", "beta"}, Count: 2}
	require.NoError(t, store.Save("widgets", saved))

	var loaded fixture
	found, err := store.Load("widgets", &loaded)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, saved, loaded)
}

func TestLoad_MissingFamilyReportsAbsent(t *testing.T) {
	store, _ := setupStore(t)

	var loaded fixture
	found, err := store.Load("nothing", &loaded)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSave_ReplacesPreviousSnapshot(t *testing.T) {
	store, db := setupStore(t)

	require.NoError(t, store.Save("widgets", fixture{Count: 1}))
	require.NoError(t, store.Save("widgets", fixture{Count: 2}))

	var loaded fixture
	found, err := store.Load("widgets", &loaded)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, loaded.Count)

	var rows int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&rows))
	assert.Equal(t, 1, rows, "one family holds exactly one row")
}

func TestLoad_CorruptBlobIsDiscarded(t *testing.T) {
	store, db := setupStore(t)

	require.NoError(t, store.Save("widgets", fixture{Count: 7}))

	// Scribble over the stored blob
	_, err := db.Exec("UPDATE snapshots SET data = ? WHERE family = ?", []byte{0xc1, 0xff, 0x00}, "widgets")
	require.NoError(t, err)

	var loaded fixture
	found, err := store.Load("widgets", &loaded)
	require.NoError(t, err, "a corrupt snapshot is treated as absent, not as a failure")
	assert.False(t, found)

	// The bad row is gone; a later save starts clean
	var rows int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&rows))
	assert.Equal(t, 0, rows)
}

func TestDelete_RemovesSnapshot(t *testing.T) {
	store, _ := setupStore(t)

	require.NoError(t, store.Save("widgets", fixture{Count: 1}))
	require.NoError(t, store.Delete("widgets"))

	var loaded fixture
	found, err := store.Load("widgets", &loaded)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSavedAt_TracksWrites(t *testing.T) {
	store, _ := setupStore(t)

	_, found, err := store.SavedAt("widgets")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save("widgets", fixture{Count: 1}))

	at, found, err := store.SavedAt("widgets")
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, at.IsZero())
}

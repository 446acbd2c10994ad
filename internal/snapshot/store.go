// Package snapshot persists last-known-good copies of remote collections.
// Each resource family owns a single serialized blob holding the collection
// and all children across all parents. The blob is written in one statement,
// so readers never observe a partially-written snapshot.
package snapshot

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	family   TEXT PRIMARY KEY,
	data     BLOB NOT NULL,
	saved_at INTEGER NOT NULL
);
`

// Store provides snapshot persistence for resource families.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a snapshot store, ensuring the backing table exists.
func NewStore(db *sql.DB, log zerolog.Logger) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create snapshots table: %w", err)
	}
	return &Store{
		db:  db,
		log: log.With().Str("component", "snapshot_store").Logger(),
	}, nil
}

// Save serializes the snapshot and upserts it in a single statement.
func (s *Store) Save(family string, snapshot any) error {
	blob, err := msgpack.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for %s: %w", family, err)
	}

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO snapshots (family, data, saved_at) VALUES (?, ?, ?)",
		family, blob, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store snapshot for %s: %w", family, err)
	}

	s.log.Debug().Str("family", family).Int("bytes", len(blob)).Msg("Snapshot saved")
	return nil
}

// Load reads the snapshot for a family into target. It returns false when no
// snapshot exists. A snapshot that cannot be decoded is logged, discarded and
// reported as absent - stale knowledge is recoverable, a corrupt blob is not.
func (s *Store) Load(family string, target any) (bool, error) {
	var blob []byte
	err := s.db.QueryRow("SELECT data FROM snapshots WHERE family = ?", family).Scan(&blob)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read snapshot for %s: %w", family, err)
	}

	if err := msgpack.Unmarshal(blob, target); err != nil {
		s.log.Warn().
			Err(err).
			Str("family", family).
			Str("code", "CACHE_PARSE_ERROR").
			Msg("Discarding corrupted snapshot")
		if delErr := s.Delete(family); delErr != nil {
			s.log.Error().Err(delErr).Str("family", family).Msg("Failed to discard corrupted snapshot")
		}
		return false, nil
	}

	return true, nil
}

// Delete removes the snapshot for a family.
func (s *Store) Delete(family string) error {
	if _, err := s.db.Exec("DELETE FROM snapshots WHERE family = ?", family); err != nil {
		return fmt.Errorf("failed to delete snapshot for %s: %w", family, err)
	}
	return nil
}

// SavedAt reports when the family's snapshot was last written.
func (s *Store) SavedAt(family string) (time.Time, bool, error) {
	var unix int64
	err := s.db.QueryRow("SELECT saved_at FROM snapshots WHERE family = ?", family).Scan(&unix)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read snapshot age for %s: %w", family, err)
	}
	return time.Unix(unix, 0), true, nil
}

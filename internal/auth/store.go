// Package auth stores the bearer credential used by the API client.
package auth

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

const tokenKey = "api_token"

// Store is a settings-backed credential store. The token is cached in memory
// and persisted so a restart does not require signing in again.
type Store struct {
	db    *sql.DB
	mu    sync.RWMutex
	token string
	log   zerolog.Logger
}

// NewStore creates the credential store, ensuring the settings table exists
// and loading any persisted token.
func NewStore(db *sql.DB, log zerolog.Logger) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	s := &Store{
		db:  db,
		log: log.With().Str("component", "credential_store").Logger(),
	}

	var value string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", tokenKey).Scan(&value)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to load stored credential: %w", err)
	}
	s.token = value

	return s, nil
}

// Token returns the current bearer token, empty when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken stores a new bearer token in memory and on disk.
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO settings (key, value, updated_at) VALUES (?, ?, ?)",
		tokenKey, token, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	return nil
}

// Clear removes the credential from memory and disk. Called by the API client
// when the server answers 401.
func (s *Store) Clear() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM settings WHERE key = ?", tokenKey); err != nil {
		s.log.Error().Err(err).Msg("Failed to delete persisted credential")
	}
}

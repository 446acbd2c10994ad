package watchlist

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/petrosk/trackfolio/internal/api"
	"github.com/petrosk/trackfolio/internal/events"
	"github.com/petrosk/trackfolio/internal/snapshot"
	"github.com/petrosk/trackfolio/internal/state"
	"github.com/petrosk/trackfolio/internal/validate"
)

// Family is the resource family name used for snapshots and events.
const Family = "watchlists"

// Manager is the watchlist resource manager.
type Manager = state.Manager[Watchlist, Item]

// NewManager wires a watchlist manager over the given backend, cache and bus.
func NewManager(backend *Backend, cache *snapshot.Store, bus *events.Bus, log zerolog.Logger) *Manager {
	return state.NewManager(state.Config[Watchlist, Item]{
		Family:         Family,
		Backend:        backend,
		Cache:          cache,
		Bus:            bus,
		Log:            log,
		ValidateCreate: validateCreate,
		ValidatePatch:  validatePatch,
		ValidateChild:  validateItem,
		Synthesize:     synthesizeItem,
		SortChildren:   sortItems,
	})
}

func validateCreate(payload map[string]any) *api.Error {
	name, _ := payload["name"].(string)
	if !validate.Name(name) {
		return api.NewValidationError("watchlist name is required")
	}
	return nil
}

func validatePatch(patch map[string]any) *api.Error {
	if raw, ok := patch["name"]; ok {
		name, _ := raw.(string)
		if !validate.Name(name) {
			return api.NewValidationError("watchlist name cannot be empty")
		}
	}
	return nil
}

func validateItem(payload map[string]any) *api.Error {
	symbol, _ := payload["symbol"].(string)
	if !validate.Symbol(symbol) {
		return api.NewValidationError("invalid symbol: " + symbol)
	}
	return nil
}

// synthesizeItem builds a local placeholder item when the remote write
// fails. It carries no quote data and stays Pending until a refresh replaces
// it with the server's record.
func synthesizeItem(parentID string, payload map[string]any) Item {
	symbol, _ := payload["symbol"].(string)
	notes, _ := payload["notes"].(string)
	return Item{
		ID:          uuid.New().String(),
		WatchlistID: parentID,
		Symbol:      symbol,
		Notes:       notes,
		AddedAt:     time.Now().UTC(),
		Pending:     true,
	}
}

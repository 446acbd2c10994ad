package portfolio

import (
	"encoding/json"
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
const Family = "portfolios"

// Manager is the portfolio resource manager.
type Manager = state.Manager[Portfolio, Transaction]

// NewManager wires a portfolio manager over the given backend, cache and bus.
func NewManager(backend *Backend, cache *snapshot.Store, bus *events.Bus, log zerolog.Logger) *Manager {
	return state.NewManager(state.Config[Portfolio, Transaction]{
		Family:         Family,
		Backend:        backend,
		Cache:          cache,
		Bus:            bus,
		Log:            log,
		ValidateCreate: validateCreate,
		ValidatePatch:  validatePatch,
		ValidateChild:  validateTransaction,
		Synthesize:     synthesizeTransaction,
		SortChildren:   sortTransactions,
	})
}

func validateCreate(payload map[string]any) *api.Error {
	name, _ := payload["name"].(string)
	if !validate.Name(name) {
		return api.NewValidationError("portfolio name is required")
	}
	return nil
}

func validatePatch(patch map[string]any) *api.Error {
	if raw, ok := patch["name"]; ok {
		name, _ := raw.(string)
		if !validate.Name(name) {
			return api.NewValidationError("portfolio name cannot be empty")
		}
	}
	return nil
}

func validateTransaction(payload map[string]any) *api.Error {
	typ, _ := payload["type"].(string)
	if !TransactionType(typ).Valid() {
		return api.NewValidationError("unknown transaction type: " + typ)
	}

	switch TransactionType(typ) {
	case TransactionDeposit, TransactionWithdrawal:
		if numField(payload, "amount") <= 0 {
			return api.NewValidationError("amount must be positive")
		}
	default:
		symbol, _ := payload["symbol"].(string)
		if !validate.Symbol(symbol) {
			return api.NewValidationError("invalid symbol: " + symbol)
		}
		if numField(payload, "shares") <= 0 {
			return api.NewValidationError("shares must be positive")
		}
	}
	return nil
}

// synthesizeTransaction builds a local placeholder transaction when the
// remote write fails. It is flagged Pending until a later refresh replaces it
// with the server's record.
func synthesizeTransaction(parentID string, payload map[string]any) Transaction {
	return Transaction{
		ID:          uuid.New().String(),
		PortfolioID: parentID,
		Symbol:      strField(payload, "symbol"),
		Type:        TransactionType(strField(payload, "type")),
		Shares:      numField(payload, "shares"),
		Price:       numField(payload, "price"),
		Amount:      numField(payload, "amount"),
		Fees:        numField(payload, "fees"),
		Date:        time.Now().UTC(),
		Pending:     true,
	}
}

func strField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}

func numField(payload map[string]any, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

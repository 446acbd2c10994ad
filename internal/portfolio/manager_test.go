package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCreate(t *testing.T) {
	assert.Nil(t, validateCreate(map[string]any{"name": "Main"}))
	assert.NotNil(t, validateCreate(map[string]any{"name": "   "}))
	assert.NotNil(t, validateCreate(map[string]any{}))
}

func TestValidatePatch(t *testing.T) {
	assert.Nil(t, validatePatch(map[string]any{"description": "notes only"}))
	assert.Nil(t, validatePatch(map[string]any{"name": "Renamed"}))
	assert.NotNil(t, validatePatch(map[string]any{"name": ""}))
}

func TestValidateTransaction(t *testing.T) {
	assert.Nil(t, validateTransaction(map[string]any{
		"type": "buy", "symbol": "AAPL", "shares": 10.0, "price": 150.0,
	}))
	assert.Nil(t, validateTransaction(map[string]any{
		"type": "deposit", "amount": 500.0,
	}))

	assert.NotNil(t, validateTransaction(map[string]any{"type": "barter"}), "unknown type")
	assert.NotNil(t, validateTransaction(map[string]any{
		"type": "buy", "symbol": "aapl", "shares": 10.0,
	}), "lowercase symbol")
	assert.NotNil(t, validateTransaction(map[string]any{
		"type": "buy", "symbol": "AAPL", "shares": 0.0,
	}), "zero shares")
	assert.NotNil(t, validateTransaction(map[string]any{
		"type": "withdrawal", "amount": -5.0,
	}), "negative amount")
}

func TestSynthesizeTransaction(t *testing.T) {
	tx := synthesizeTransaction("p1", map[string]any{
		"type": "buy", "symbol": "AAPL", "shares": 10.0, "price": 150.0, "fees": 1.5,
	})

	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "p1", tx.PortfolioID)
	assert.Equal(t, TransactionBuy, tx.Type)
	assert.Equal(t, "AAPL", tx.Symbol)
	assert.InDelta(t, 10.0, tx.Shares, 1e-9)
	assert.InDelta(t, 150.0, tx.Price, 1e-9)
	assert.InDelta(t, 1.5, tx.Fees, 1e-9)
	assert.True(t, tx.Pending, "a synthesized entry is unconfirmed")
	assert.False(t, tx.Date.IsZero())

	// Two synthesized entries never collide
	other := synthesizeTransaction("p1", map[string]any{"type": "buy", "symbol": "AAPL"})
	assert.NotEqual(t, tx.ID, other.ID)
}

func TestSortTransactions_NewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	txs := []Transaction{
		{ID: "old", Date: base},
		{ID: "new", Date: base.AddDate(0, 0, 2)},
		{ID: "mid", Date: base.AddDate(0, 0, 1)},
	}

	sortTransactions(txs)

	require.Len(t, txs, 3)
	assert.Equal(t, "new", txs[0].ID)
	assert.Equal(t, "mid", txs[1].ID)
	assert.Equal(t, "old", txs[2].ID)
}

func TestTransactionTypeValid(t *testing.T) {
	for _, typ := range []TransactionType{
		TransactionBuy, TransactionSell, TransactionDividend,
		TransactionSplit, TransactionDeposit, TransactionWithdrawal,
	} {
		assert.True(t, typ.Valid(), string(typ))
	}
	assert.False(t, TransactionType("").Valid())
	assert.False(t, TransactionType("loan").Valid())
}

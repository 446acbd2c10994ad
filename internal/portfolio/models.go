// Package portfolio defines the portfolio resource family: the portfolio
// collection items and their transaction ledger children. Holdings are
// server-computed and carried on the portfolio detail itself.
package portfolio

import (
	"sort"
	"time"
)

// Portfolio is a named, user-owned collection item. The aggregate fields are
// computed server-side; the client never derives them locally.
type Portfolio struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	TotalValue  float64   `json:"total_value"`
	TotalCost   float64   `json:"total_cost"`
	CashBalance float64   `json:"cash_balance"`
	Holdings    []Holding `json:"holdings,omitempty"`
}

// ItemID returns the portfolio id
func (p Portfolio) ItemID() string { return p.ID }

// Holding is a server-computed position within a portfolio.
type Holding struct {
	ID           string   `json:"id"`
	PortfolioID  string   `json:"portfolio_id"`
	Symbol       string   `json:"symbol"`
	Shares       float64  `json:"shares"`
	AverageCost  *float64 `json:"average_cost"`
	CurrentPrice *float64 `json:"current_price"`
}

// TransactionType enumerates the supported ledger entry kinds.
type TransactionType string

const (
	TransactionBuy        TransactionType = "buy"
	TransactionSell       TransactionType = "sell"
	TransactionDividend   TransactionType = "dividend"
	TransactionSplit      TransactionType = "split"
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionBuy, TransactionSell, TransactionDividend,
		TransactionSplit, TransactionDeposit, TransactionWithdrawal:
		return true
	}
	return false
}

// Transaction is a ledger entry owned by exactly one portfolio.
// Amount carries the cash value of flow entries (deposit, withdrawal,
// dividend); trade entries are priced through Shares and Price.
type Transaction struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolio_id"`
	Symbol      string          `json:"symbol,omitempty"`
	Type        TransactionType `json:"type"`
	Shares      float64         `json:"shares,omitempty"`
	Price       float64         `json:"price,omitempty"`
	Amount      float64         `json:"amount"`
	Fees        float64         `json:"fees,omitempty"`
	Date        time.Time       `json:"date"`
	// Pending marks a locally synthesized entry the server has not confirmed.
	// Reconciled (replaced wholesale) by the next successful detail fetch.
	Pending bool `json:"pending,omitempty"`
}

// ChildID returns the transaction id
func (t Transaction) ChildID() string { return t.ID }

// ChildParentID returns the owning portfolio id
func (t Transaction) ChildParentID() string { return t.PortfolioID }

// IsPending reports whether the entry is unconfirmed
func (t Transaction) IsPending() bool { return t.Pending }

// sortTransactions applies the canonical ledger order: newest first.
func sortTransactions(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})
}

package stubserver

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petrosk/trackfolio/internal/portfolio"
	"github.com/petrosk/trackfolio/internal/quotes"
	"github.com/petrosk/trackfolio/internal/watchlist"
)

// Store is the in-memory backing store for the stub server. It recomputes
// portfolio aggregates whenever the transaction ledger changes, the same way
// the production backend does.
type Store struct {
	mu           sync.Mutex
	portfolios   map[string]*portfolio.Portfolio
	transactions map[string][]portfolio.Transaction
	watchlists   map[string]*watchlist.Watchlist
	items        map[string][]watchlist.Item
	quotes       map[string]quotes.Quote
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		portfolios:   make(map[string]*portfolio.Portfolio),
		transactions: make(map[string][]portfolio.Transaction),
		watchlists:   make(map[string]*watchlist.Watchlist),
		items:        make(map[string][]watchlist.Item),
		quotes:       make(map[string]quotes.Quote),
	}
}

// SetQuote seeds or updates the quote for a symbol. Watchlist items and
// portfolio valuations pick it up on the next read.
func (s *Store) SetQuote(q quotes.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[q.Symbol] = q
}

// GetQuote returns the quote for a symbol.
func (s *Store) GetQuote(symbol string) (quotes.Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[symbol]
	return q, ok
}

// ListPortfolios returns all portfolios sorted by name.
func (s *Store) ListPortfolios() []portfolio.Portfolio {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]portfolio.Portfolio, 0, len(s.portfolios))
	for _, p := range s.portfolios {
		out = append(out, *p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// GetPortfolio returns one portfolio with its transactions, newest first.
func (s *Store) GetPortfolio(id string) (portfolio.Portfolio, []portfolio.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.portfolios[id]
	if !ok {
		return portfolio.Portfolio{}, nil, false
	}

	txs := make([]portfolio.Transaction, len(s.transactions[id]))
	copy(txs, s.transactions[id])
	sort.SliceStable(txs, func(a, b int) bool { return txs[a].Date.After(txs[b].Date) })
	return *p, txs, true
}

// CreatePortfolio creates a portfolio with a fresh id.
func (s *Store) CreatePortfolio(name, description string) portfolio.Portfolio {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &portfolio.Portfolio{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Holdings:    []portfolio.Holding{},
	}
	s.portfolios[p.ID] = p
	return *p
}

// UpdatePortfolio applies a partial update. Returns false when the id is
// unknown.
func (s *Store) UpdatePortfolio(id string, patch map[string]any) (portfolio.Portfolio, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.portfolios[id]
	if !ok {
		return portfolio.Portfolio{}, false
	}
	if name, ok := patch["name"].(string); ok {
		p.Name = name
	}
	if desc, ok := patch["description"].(string); ok {
		p.Description = desc
	}
	return *p, true
}

// DeletePortfolio removes a portfolio and its ledger.
func (s *Store) DeletePortfolio(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.portfolios[id]; !ok {
		return false
	}
	delete(s.portfolios, id)
	delete(s.transactions, id)
	return true
}

// AddTransaction appends a transaction to a portfolio's ledger and
// recomputes the portfolio's aggregates.
func (s *Store) AddTransaction(portfolioID string, tx portfolio.Transaction) (portfolio.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.portfolios[portfolioID]
	if !ok {
		return portfolio.Transaction{}, false
	}

	tx.ID = uuid.New().String()
	tx.PortfolioID = portfolioID
	tx.Pending = false
	if tx.Date.IsZero() {
		tx.Date = time.Now().UTC()
	}
	s.transactions[portfolioID] = append(s.transactions[portfolioID], tx)
	s.recomputeLocked(p)
	return tx, true
}

// RemoveTransaction deletes a transaction and recomputes aggregates.
// Removing an unknown transaction is a no-op that still reports success, so
// repeated deletes are harmless.
func (s *Store) RemoveTransaction(portfolioID, txID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.portfolios[portfolioID]
	if !ok {
		return false
	}

	txs := s.transactions[portfolioID]
	for i := range txs {
		if txs[i].ID == txID {
			s.transactions[portfolioID] = append(txs[:i], txs[i+1:]...)
			break
		}
	}
	s.recomputeLocked(p)
	return true
}

// recomputeLocked rebuilds holdings and portfolio totals from the ledger.
// Caller must hold the mutex.
func (s *Store) recomputeLocked(p *portfolio.Portfolio) {
	type position struct {
		shares float64
		cost   float64
	}
	positions := make(map[string]*position)
	cash := 0.0

	txs := make([]portfolio.Transaction, len(s.transactions[p.ID]))
	copy(txs, s.transactions[p.ID])
	sort.SliceStable(txs, func(a, b int) bool { return txs[a].Date.Before(txs[b].Date) })

	for _, tx := range txs {
		switch tx.Type {
		case portfolio.TransactionDeposit:
			cash += tx.Amount
		case portfolio.TransactionWithdrawal:
			cash -= tx.Amount
		case portfolio.TransactionBuy:
			pos := positions[tx.Symbol]
			if pos == nil {
				pos = &position{}
				positions[tx.Symbol] = pos
			}
			pos.shares += tx.Shares
			pos.cost += tx.Shares*tx.Price + tx.Fees
			cash -= tx.Shares*tx.Price + tx.Fees
		case portfolio.TransactionSell:
			pos := positions[tx.Symbol]
			if pos != nil && pos.shares > 0 {
				costPerShare := pos.cost / pos.shares
				pos.shares -= tx.Shares
				pos.cost -= tx.Shares * costPerShare
				if pos.shares <= 0 {
					delete(positions, tx.Symbol)
				}
			}
			cash += tx.Shares*tx.Price - tx.Fees
		case portfolio.TransactionDividend:
			cash += tx.Amount
		case portfolio.TransactionSplit:
			pos := positions[tx.Symbol]
			if pos != nil && tx.Shares > 0 {
				pos.shares *= tx.Shares
			}
		}
	}

	symbols := make([]string, 0, len(positions))
	for sym := range positions {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	holdings := make([]portfolio.Holding, 0, len(symbols))
	totalValue := cash
	totalCost := 0.0
	for _, sym := range symbols {
		pos := positions[sym]
		h := portfolio.Holding{
			ID:          uuid.New().String(),
			PortfolioID: p.ID,
			Symbol:      sym,
			Shares:      pos.shares,
		}
		if pos.shares > 0 {
			avg := pos.cost / pos.shares
			h.AverageCost = &avg
		}
		if q, ok := s.quotes[sym]; ok {
			price := q.Price
			h.CurrentPrice = &price
			totalValue += pos.shares * price
		}
		totalCost += pos.cost
		holdings = append(holdings, h)
	}

	p.Holdings = holdings
	p.CashBalance = cash
	p.TotalValue = totalValue
	p.TotalCost = totalCost
}

// ListWatchlists returns all watchlists sorted by name.
func (s *Store) ListWatchlists() []watchlist.Watchlist {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]watchlist.Watchlist, 0, len(s.watchlists))
	for _, w := range s.watchlists {
		out = append(out, *w)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// GetWatchlist returns one watchlist with its items, newest first. Item
// quote fields are filled from the current quote table.
func (s *Store) GetWatchlist(id string) (watchlist.Watchlist, []watchlist.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.watchlists[id]
	if !ok {
		return watchlist.Watchlist{}, nil, false
	}

	items := make([]watchlist.Item, len(s.items[id]))
	copy(items, s.items[id])
	for i := range items {
		if q, ok := s.quotes[items[i].Symbol]; ok {
			price, change, pct := q.Price, q.Change, q.ChangePercent
			items[i].Price = &price
			items[i].Change = &change
			items[i].ChangePercent = &pct
		}
	}
	sort.SliceStable(items, func(a, b int) bool { return items[a].AddedAt.After(items[b].AddedAt) })
	return *w, items, true
}

// CreateWatchlist creates a watchlist with a fresh id.
func (s *Store) CreateWatchlist(name, description string) watchlist.Watchlist {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := &watchlist.Watchlist{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
	}
	s.watchlists[w.ID] = w
	return *w
}

// UpdateWatchlist applies a partial update.
func (s *Store) UpdateWatchlist(id string, patch map[string]any) (watchlist.Watchlist, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.watchlists[id]
	if !ok {
		return watchlist.Watchlist{}, false
	}
	if name, ok := patch["name"].(string); ok {
		w.Name = name
	}
	if desc, ok := patch["description"].(string); ok {
		w.Description = desc
	}
	return *w, true
}

// DeleteWatchlist removes a watchlist and its items.
func (s *Store) DeleteWatchlist(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.watchlists[id]; !ok {
		return false
	}
	delete(s.watchlists, id)
	delete(s.items, id)
	return true
}

// AddItem appends a symbol to a watchlist.
func (s *Store) AddItem(watchlistID string, item watchlist.Item) (watchlist.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.watchlists[watchlistID]; !ok {
		return watchlist.Item{}, false
	}

	item.ID = uuid.New().String()
	item.WatchlistID = watchlistID
	item.Pending = false
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now().UTC()
	}
	if q, ok := s.quotes[item.Symbol]; ok {
		price, change, pct := q.Price, q.Change, q.ChangePercent
		item.Price = &price
		item.Change = &change
		item.ChangePercent = &pct
	}
	s.items[watchlistID] = append(s.items[watchlistID], item)
	return item, true
}

// RemoveItem deletes an item from a watchlist. Unknown items are a no-op.
func (s *Store) RemoveItem(watchlistID, itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.watchlists[watchlistID]; !ok {
		return false
	}

	items := s.items[watchlistID]
	for i := range items {
		if items[i].ID == itemID {
			s.items[watchlistID] = append(items[:i], items[i+1:]...)
			break
		}
	}
	return true
}

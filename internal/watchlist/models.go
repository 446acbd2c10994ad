package watchlist

import (
	"sort"
	"time"
)

// Watchlist is a named collection of tracked symbols.
type Watchlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ItemID implements state.Item.
func (w Watchlist) ItemID() string { return w.ID }

// Item is one tracked symbol on a watchlist. Price fields are filled by the
// server when a quote is available and nil otherwise.
type Item struct {
	ID            string    `json:"id"`
	WatchlistID   string    `json:"watchlist_id"`
	Symbol        string    `json:"symbol"`
	Notes         string    `json:"notes,omitempty"`
	Price         *float64  `json:"price"`
	Change        *float64  `json:"change"`
	ChangePercent *float64  `json:"change_percent"`
	AddedAt       time.Time `json:"added_at"`
	Pending       bool      `json:"pending,omitempty"`
}

// ChildID implements state.Child.
func (i Item) ChildID() string { return i.ID }

// ChildParentID implements state.Child.
func (i Item) ChildParentID() string { return i.WatchlistID }

// IsPending implements state.Child.
func (i Item) IsPending() bool { return i.Pending }

// sortItems orders items newest first.
func sortItems(items []Item) {
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].AddedAt.After(items[b].AddedAt)
	})
}

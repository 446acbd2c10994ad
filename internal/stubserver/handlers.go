package stubserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/petrosk/trackfolio/internal/portfolio"
	"github.com/petrosk/trackfolio/internal/validate"
	"github.com/petrosk/trackfolio/internal/watchlist"
)

func (s *Server) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"portfolios": s.store.ListPortfolios(),
	})
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, txs, ok := s.store.GetPortfolio(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "portfolio not found")
		return
	}

	if r.URL.Query().Get("include_items") == "true" {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"portfolio": p,
			"items":     txs,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"portfolio": p})
}

func (s *Server) handleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}
	if !validate.Name(body.Name) {
		s.writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	p := s.store.CreatePortfolio(strings.TrimSpace(body.Name), body.Description)
	s.writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch map[string]any
	if !s.decodeBody(w, r, &patch) {
		return
	}
	if raw, ok := patch["name"]; ok {
		name, _ := raw.(string)
		if !validate.Name(name) {
			s.writeError(w, http.StatusUnprocessableEntity, "name cannot be empty")
			return
		}
	}

	p, ok := s.store.UpdatePortfolio(id, patch)
	if !ok {
		s.writeError(w, http.StatusNotFound, "portfolio not found")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !s.store.DeletePortfolio(id) {
		s.writeError(w, http.StatusNotFound, "portfolio not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Symbol string  `json:"symbol"`
		Type   string  `json:"type"`
		Shares float64 `json:"shares"`
		Price  float64 `json:"price"`
		Amount float64 `json:"amount"`
		Fees   float64 `json:"fees"`
		Date   string  `json:"date"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}

	txType := portfolio.TransactionType(body.Type)
	if !txType.Valid() {
		s.writeError(w, http.StatusUnprocessableEntity, "unknown transaction type")
		return
	}
	switch txType {
	case portfolio.TransactionDeposit, portfolio.TransactionWithdrawal:
		if body.Amount <= 0 {
			s.writeError(w, http.StatusUnprocessableEntity, "amount must be positive")
			return
		}
	default:
		if !validate.Symbol(body.Symbol) {
			s.writeError(w, http.StatusUnprocessableEntity, "invalid symbol")
			return
		}
		if body.Shares <= 0 {
			s.writeError(w, http.StatusUnprocessableEntity, "shares must be positive")
			return
		}
	}

	tx := portfolio.Transaction{
		Symbol: body.Symbol,
		Type:   txType,
		Shares: body.Shares,
		Price:  body.Price,
		Amount: body.Amount,
		Fees:   body.Fees,
	}
	if body.Date != "" {
		if parsed, err := time.Parse(time.RFC3339, body.Date); err == nil {
			tx.Date = parsed
		}
	}

	created, ok := s.store.AddTransaction(id, tx)
	if !ok {
		s.writeError(w, http.StatusNotFound, "portfolio not found")
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")

	if !s.store.RemoveTransaction(id, itemID) {
		s.writeError(w, http.StatusNotFound, "portfolio not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleListWatchlists(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"watchlists": s.store.ListWatchlists(),
	})
}

func (s *Server) handleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	wl, items, ok := s.store.GetWatchlist(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "watchlist not found")
		return
	}

	if r.URL.Query().Get("include_items") == "true" {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"watchlist": wl,
			"items":     items,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"watchlist": wl})
}

func (s *Server) handleCreateWatchlist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}
	if !validate.Name(body.Name) {
		s.writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	wl := s.store.CreateWatchlist(strings.TrimSpace(body.Name), body.Description)
	s.writeJSON(w, http.StatusCreated, wl)
}

func (s *Server) handleUpdateWatchlist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch map[string]any
	if !s.decodeBody(w, r, &patch) {
		return
	}
	if raw, ok := patch["name"]; ok {
		name, _ := raw.(string)
		if !validate.Name(name) {
			s.writeError(w, http.StatusUnprocessableEntity, "name cannot be empty")
			return
		}
	}

	wl, ok := s.store.UpdateWatchlist(id, patch)
	if !ok {
		s.writeError(w, http.StatusNotFound, "watchlist not found")
		return
	}
	s.writeJSON(w, http.StatusOK, wl)
}

func (s *Server) handleDeleteWatchlist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !s.store.DeleteWatchlist(id) {
		s.writeError(w, http.StatusNotFound, "watchlist not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Symbol string `json:"symbol"`
		Notes  string `json:"notes"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}
	if !validate.Symbol(body.Symbol) {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid symbol")
		return
	}

	item, ok := s.store.AddItem(id, watchlist.Item{
		Symbol: body.Symbol,
		Notes:  body.Notes,
	})
	if !ok {
		s.writeError(w, http.StatusNotFound, "watchlist not found")
		return
	}
	s.writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")

	if !s.store.RemoveItem(id, itemID) {
		s.writeError(w, http.StatusNotFound, "watchlist not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	q, ok := s.store.GetQuote(symbol)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no quote for "+symbol)
		return
	}
	s.writeJSON(w, http.StatusOK, q)
}

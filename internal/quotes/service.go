package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/petrosk/trackfolio/internal/api"
)

// quoteTTL keeps quotes fresh enough for display without hammering the server.
const quoteTTL = 10 * time.Minute

// Quote is a point-in-time price for one symbol.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// Service fetches symbol quotes through the API client with a TTL cache in
// front, so repeated lookups within the TTL never hit the network.
type Service struct {
	client *api.Client
	cache  *gocache.Cache
	log    zerolog.Logger
}

// NewService creates a quote service.
func NewService(client *api.Client, log zerolog.Logger) *Service {
	return &Service{
		client: client,
		cache:  gocache.New(quoteTTL, 2*quoteTTL),
		log:    log.With().Str("component", "quotes").Logger(),
	}
}

// Get returns the quote for a symbol, from cache when fresh.
func (s *Service) Get(ctx context.Context, symbol string) (Quote, error) {
	if cached, found := s.cache.Get(symbol); found {
		return cached.(Quote), nil
	}

	res := s.client.Get(ctx, "/quotes/"+symbol)
	if !res.Success {
		return Quote{}, fmt.Errorf("quote fetch failed for %s: %s", symbol, res.Err.Message)
	}

	var q Quote
	if err := json.Unmarshal(res.Data, &q); err != nil {
		return Quote{}, fmt.Errorf("failed to decode quote for %s: %w", symbol, err)
	}

	s.cache.Set(symbol, q, gocache.DefaultExpiration)
	return q, nil
}

// Invalidate drops a symbol's cached quote, forcing the next Get to refetch.
func (s *Service) Invalidate(symbol string) {
	s.cache.Delete(symbol)
}

// Flush drops every cached quote.
func (s *Service) Flush() {
	s.cache.Flush()
}

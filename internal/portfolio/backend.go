package portfolio

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/petrosk/trackfolio/internal/api"
)

// Backend translates between the portfolio wire contract and typed models.
// It implements state.Backend for the portfolio family.
type Backend struct {
	client *api.Client
	log    zerolog.Logger
}

// NewBackend creates a portfolio backend on top of the API client.
func NewBackend(client *api.Client, log zerolog.Logger) *Backend {
	return &Backend{
		client: client,
		log:    log.With().Str("backend", "portfolio").Logger(),
	}
}

// FetchCollection retrieves all portfolios.
func (b *Backend) FetchCollection(ctx context.Context) ([]Portfolio, *api.Error) {
	res := b.client.Get(ctx, "/portfolios")
	if !res.Success {
		return nil, res.Err
	}

	raw, apiErr := api.UnwrapList(res.Data, "portfolios")
	if apiErr != nil {
		return nil, apiErr
	}

	var items []Portfolio
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &api.Error{Code: api.CodeNetworkError, Message: "failed to decode portfolio list: " + err.Error()}
	}

	b.log.Debug().Int("count", len(items)).Msg("Fetched portfolio collection")
	return items, nil
}

// FetchDetail retrieves one portfolio with its transaction ledger.
func (b *Backend) FetchDetail(ctx context.Context, id string) (Portfolio, []Transaction, *api.Error) {
	res := b.client.Get(ctx, "/portfolios/"+id+"?include_items=true")
	if !res.Success {
		return Portfolio{}, nil, res.Err
	}

	var detail struct {
		Portfolio Portfolio     `json:"portfolio"`
		Items     []Transaction `json:"items"`
	}
	if apiErr := res.Decode(&detail); apiErr != nil {
		return Portfolio{}, nil, apiErr
	}

	return detail.Portfolio, detail.Items, nil
}

// Create creates a new portfolio.
func (b *Backend) Create(ctx context.Context, payload map[string]any) (Portfolio, *api.Error) {
	res := b.client.Post(ctx, "/portfolios", payload)
	if !res.Success {
		return Portfolio{}, res.Err
	}

	var created Portfolio
	if apiErr := res.Decode(&created); apiErr != nil {
		return Portfolio{}, apiErr
	}
	return created, nil
}

// Update patches an existing portfolio.
func (b *Backend) Update(ctx context.Context, id string, patch map[string]any) (Portfolio, *api.Error) {
	res := b.client.Patch(ctx, "/portfolios/"+id, patch)
	if !res.Success {
		return Portfolio{}, res.Err
	}

	var updated Portfolio
	if apiErr := res.Decode(&updated); apiErr != nil {
		return Portfolio{}, apiErr
	}
	return updated, nil
}

// Delete removes a portfolio. The remote store owns the cascade to children.
func (b *Backend) Delete(ctx context.Context, id string) *api.Error {
	res := b.client.Delete(ctx, "/portfolios/"+id)
	if !res.Success {
		return res.Err
	}
	return nil
}

// AddChild records a new transaction against a portfolio.
func (b *Backend) AddChild(ctx context.Context, parentID string, payload map[string]any) (Transaction, *api.Error) {
	res := b.client.Post(ctx, "/portfolios/"+parentID+"/items", payload)
	if !res.Success {
		return Transaction{}, res.Err
	}

	var created Transaction
	if apiErr := res.Decode(&created); apiErr != nil {
		return Transaction{}, apiErr
	}
	return created, nil
}

// RemoveChild deletes a transaction from a portfolio.
func (b *Backend) RemoveChild(ctx context.Context, parentID, childID string) *api.Error {
	res := b.client.Delete(ctx, "/portfolios/"+parentID+"/items/"+childID)
	if !res.Success {
		return res.Err
	}
	return nil
}

package watchlist

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/petrosk/trackfolio/internal/api"
)

// Backend translates between the watchlist wire contract and typed models.
// It implements state.Backend for the watchlist family.
type Backend struct {
	client *api.Client
	log    zerolog.Logger
}

// NewBackend creates a watchlist backend on top of the API client.
func NewBackend(client *api.Client, log zerolog.Logger) *Backend {
	return &Backend{
		client: client,
		log:    log.With().Str("backend", "watchlist").Logger(),
	}
}

// FetchCollection retrieves all watchlists.
func (b *Backend) FetchCollection(ctx context.Context) ([]Watchlist, *api.Error) {
	res := b.client.Get(ctx, "/watchlists")
	if !res.Success {
		return nil, res.Err
	}

	raw, apiErr := api.UnwrapList(res.Data, "watchlists")
	if apiErr != nil {
		return nil, apiErr
	}

	var lists []Watchlist
	if err := json.Unmarshal(raw, &lists); err != nil {
		return nil, &api.Error{Code: api.CodeNetworkError, Message: "failed to decode watchlist list: " + err.Error()}
	}

	b.log.Debug().Int("count", len(lists)).Msg("Fetched watchlist collection")
	return lists, nil
}

// FetchDetail retrieves one watchlist with its items.
func (b *Backend) FetchDetail(ctx context.Context, id string) (Watchlist, []Item, *api.Error) {
	res := b.client.Get(ctx, "/watchlists/"+id+"?include_items=true")
	if !res.Success {
		return Watchlist{}, nil, res.Err
	}

	var detail struct {
		Watchlist Watchlist `json:"watchlist"`
		Items     []Item    `json:"items"`
	}
	if apiErr := res.Decode(&detail); apiErr != nil {
		return Watchlist{}, nil, apiErr
	}

	return detail.Watchlist, detail.Items, nil
}

// Create creates a new watchlist.
func (b *Backend) Create(ctx context.Context, payload map[string]any) (Watchlist, *api.Error) {
	res := b.client.Post(ctx, "/watchlists", payload)
	if !res.Success {
		return Watchlist{}, res.Err
	}

	var created Watchlist
	if apiErr := res.Decode(&created); apiErr != nil {
		return Watchlist{}, apiErr
	}
	return created, nil
}

// Update patches an existing watchlist.
func (b *Backend) Update(ctx context.Context, id string, patch map[string]any) (Watchlist, *api.Error) {
	res := b.client.Patch(ctx, "/watchlists/"+id, patch)
	if !res.Success {
		return Watchlist{}, res.Err
	}

	var updated Watchlist
	if apiErr := res.Decode(&updated); apiErr != nil {
		return Watchlist{}, apiErr
	}
	return updated, nil
}

// Delete removes a watchlist and its items.
func (b *Backend) Delete(ctx context.Context, id string) *api.Error {
	res := b.client.Delete(ctx, "/watchlists/"+id)
	if !res.Success {
		return res.Err
	}
	return nil
}

// AddChild adds a symbol to a watchlist.
func (b *Backend) AddChild(ctx context.Context, parentID string, payload map[string]any) (Item, *api.Error) {
	res := b.client.Post(ctx, "/watchlists/"+parentID+"/items", payload)
	if !res.Success {
		return Item{}, res.Err
	}

	var created Item
	if apiErr := res.Decode(&created); apiErr != nil {
		return Item{}, apiErr
	}
	return created, nil
}

// RemoveChild deletes an item from a watchlist.
func (b *Backend) RemoveChild(ctx context.Context, parentID, childID string) *api.Error {
	res := b.client.Delete(ctx, "/watchlists/"+parentID+"/items/"+childID)
	if !res.Success {
		return res.Err
	}
	return nil
}

// Package state implements the client-side state-synchronization core.
// A Manager owns the in-memory view of one remote resource family
// (portfolios or watchlists): the collection, the currently selected item and
// that item's children. Every operation follows the same protocol - attempt
// the remote call, fall back to the cached snapshot on read failures, record
// the error otherwise - and notifies observers through the event bus once the
// mutation is complete.
package state

import (
	"context"

	"github.com/petrosk/trackfolio/internal/api"
)

// Item is a top-level owned resource in a collection.
type Item interface {
	ItemID() string
}

// Child belongs to exactly one Item via its parent id.
type Child interface {
	ChildID() string
	ChildParentID() string
	// IsPending reports whether the child was synthesized locally after a
	// failed remote add and has not been confirmed by the server yet.
	IsPending() bool
}

// Backend performs the remote calls for one resource family.
// Implementations translate between the wire contract and typed models;
// failures arrive pre-normalized as *api.Error.
type Backend[I Item, C Child] interface {
	FetchCollection(ctx context.Context) ([]I, *api.Error)
	FetchDetail(ctx context.Context, id string) (I, []C, *api.Error)
	Create(ctx context.Context, payload map[string]any) (I, *api.Error)
	Update(ctx context.Context, id string, patch map[string]any) (I, *api.Error)
	Delete(ctx context.Context, id string) *api.Error
	AddChild(ctx context.Context, parentID string, payload map[string]any) (C, *api.Error)
	RemoveChild(ctx context.Context, parentID, childID string) *api.Error
}

// CollectionStatus tracks the collection half of the manager state machine.
type CollectionStatus string

const (
	CollectionIdle      CollectionStatus = "idle"
	CollectionLoading   CollectionStatus = "loading"
	CollectionPopulated CollectionStatus = "populated"
	// CollectionDegraded - populated from the cached snapshot after a remote
	// failure; usable, but stale
	CollectionDegraded CollectionStatus = "degraded"
	// CollectionEmpty - remote failed and no snapshot was available
	CollectionEmpty CollectionStatus = "empty"
)

// SelectionStatus tracks the orthogonal selection state machine.
type SelectionStatus string

const (
	SelectionNone     SelectionStatus = "none"
	SelectionPending  SelectionStatus = "pending"
	SelectionSelected SelectionStatus = "selected"
	SelectionFailed   SelectionStatus = "failed"
)

// State is an immutable snapshot of a manager's state, safe to read after the
// manager moves on.
type State[I Item, C Child] struct {
	Collection []I
	Current    *I
	Children   []C
	Loading    bool
	// Error holds the message of a fatal failure (blocking indicator)
	Error string
	// Warning holds the message of a non-fatal degradation, e.g. a read that
	// fell back to cached data (banner indicator)
	Warning string

	CollectionStatus CollectionStatus
	SelectionStatus  SelectionStatus
}

// CurrentID returns the id of the selected item, empty when none.
func (s State[I, C]) CurrentID() string {
	if s.Current == nil {
		return ""
	}
	return (*s.Current).ItemID()
}

// snapshotData is the denormalized per-family payload persisted by the
// snapshot store: the full collection plus all children across all parents.
type snapshotData[I Item, C Child] struct {
	Collection []I `msgpack:"collection"`
	Children   []C `msgpack:"children"`
}

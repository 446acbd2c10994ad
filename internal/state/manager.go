package state

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/petrosk/trackfolio/internal/api"
	"github.com/petrosk/trackfolio/internal/events"
	"github.com/petrosk/trackfolio/internal/snapshot"
)

// Config assembles a Manager for one resource family.
type Config[I Item, C Child] struct {
	// Family is the resource family name, e.g. "portfolios". It keys the
	// cached snapshot and tags emitted events.
	Family  string
	Backend Backend[I, C]
	// Cache is the fallback snapshot store. Optional: without it, read
	// failures surface directly.
	Cache *snapshot.Store
	// Bus receives state-change notifications. Optional.
	Bus *events.Bus
	Log zerolog.Logger

	// ValidateCreate/ValidatePatch/ValidateChild run before the remote call
	// and reject malformed input with a VALIDATION_ERROR. All optional.
	ValidateCreate func(payload map[string]any) *api.Error
	ValidatePatch  func(patch map[string]any) *api.Error
	ValidateChild  func(payload map[string]any) *api.Error

	// Synthesize fabricates a pending child when a remote add fails, so the
	// UI stays responsive. Required for AddChild's optimistic degrade.
	Synthesize func(parentID string, payload map[string]any) C

	// SortChildren applies the family's canonical child ordering. Optional.
	SortChildren func(children []C)
}

// Manager owns the synchronized state of one resource family.
// Operations are serialized by an internal mutex; observers are notified
// after each mutation completes, outside the lock, so handlers may call back
// into the manager.
type Manager[I Item, C Child] struct {
	mu  sync.Mutex
	cfg Config[I, C]
	log zerolog.Logger

	collection []I
	current    *I
	children   []C
	loading    bool
	errMsg     string
	warning    string
	colStatus  CollectionStatus
	selStatus  SelectionStatus
}

// NewManager creates a manager in the idle state.
func NewManager[I Item, C Child](cfg Config[I, C]) *Manager[I, C] {
	return &Manager[I, C]{
		cfg:       cfg,
		log:       cfg.Log.With().Str("component", "state_manager").Str("family", cfg.Family).Logger(),
		colStatus: CollectionIdle,
		selStatus: SelectionNone,
	}
}

// Family returns the resource family name.
func (m *Manager[I, C]) Family() string {
	return m.cfg.Family
}

// State returns a copy of the current state.
func (m *Manager[I, C]) State() State[I, C] {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := State[I, C]{
		Collection:       make([]I, len(m.collection)),
		Children:         make([]C, len(m.children)),
		Loading:          m.loading,
		Error:            m.errMsg,
		Warning:          m.warning,
		CollectionStatus: m.colStatus,
		SelectionStatus:  m.selStatus,
	}
	copy(st.Collection, m.collection)
	copy(st.Children, m.children)
	if m.current != nil {
		item := *m.current
		st.Current = &item
	}
	return st
}

// CurrentID returns the id of the selected item, empty when none.
func (m *Manager[I, C]) CurrentID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return (*m.current).ItemID()
}

// FetchCollection loads the full collection from the backend. On failure it
// falls back to the cached snapshot when one exists, recording the underlying
// error as a non-fatal warning; otherwise the error is fatal and the
// collection stays empty.
func (m *Manager[I, C]) FetchCollection(ctx context.Context) {
	m.beginOp()

	items, apiErr := m.cfg.Backend.FetchCollection(ctx)
	if apiErr == nil {
		m.mutate(func() {
			m.collection = items
			m.errMsg = ""
			m.warning = ""
			m.colStatus = CollectionPopulated
		})
		m.updateSnapshotCollection(items)
		m.emit(events.CollectionLoaded, map[string]interface{}{"count": len(items)})
		m.stateChanged()
		return
	}

	var snap snapshotData[I, C]
	if m.loadSnapshot(&snap) {
		m.log.Warn().Str("code", string(apiErr.Code)).Msg("Collection fetch failed, using cached snapshot")
		m.mutate(func() {
			m.collection = snap.Collection
			m.errMsg = ""
			m.warning = apiErr.Message
			m.colStatus = CollectionDegraded
		})
		m.emit(events.CollectionDegraded, map[string]interface{}{"error": apiErr.Message})
		m.stateChanged()
		return
	}

	m.log.Error().Str("code", string(apiErr.Code)).Str("message", apiErr.Message).Msg("Collection fetch failed, no snapshot available")
	m.mutate(func() {
		m.collection = nil
		m.errMsg = apiErr.Message
		m.colStatus = CollectionEmpty
	})
	m.emit(events.ErrorOccurred, map[string]interface{}{"error": apiErr.Message})
	m.stateChanged()
}

// Select makes the item with the given id current and loads its children.
// The id is not required to exist in the collection; the call yields whatever
// the remote or the snapshot knows about it, defaulting to no selection.
func (m *Manager[I, C]) Select(ctx context.Context, id string) {
	m.beginSelect()

	item, children, apiErr := m.cfg.Backend.FetchDetail(ctx, id)
	if apiErr == nil {
		if m.cfg.SortChildren != nil {
			m.cfg.SortChildren(children)
		}
		m.mutate(func() {
			m.current = &item
			m.children = children
			m.errMsg = ""
			m.warning = ""
			m.selStatus = SelectionSelected
		})
		m.updateSnapshotDetail(item, id, children)
		m.emit(events.SelectionChanged, map[string]interface{}{"id": id})
		m.stateChanged()
		return
	}

	var snap snapshotData[I, C]
	if m.loadSnapshot(&snap) {
		cached := findItem(snap.Collection, id)
		children := filterChildren(snap.Children, id)
		if m.cfg.SortChildren != nil {
			m.cfg.SortChildren(children)
		}
		m.log.Warn().Str("id", id).Str("code", string(apiErr.Code)).Msg("Detail fetch failed, using cached snapshot")
		m.mutate(func() {
			m.current = cached
			m.children = children
			m.errMsg = ""
			m.warning = apiErr.Message
			if cached != nil {
				m.selStatus = SelectionSelected
			} else {
				m.selStatus = SelectionFailed
			}
		})
		m.emit(events.CollectionDegraded, map[string]interface{}{"id": id, "error": apiErr.Message})
		m.stateChanged()
		return
	}

	m.log.Error().Str("id", id).Str("code", string(apiErr.Code)).Msg("Detail fetch failed, no snapshot available")
	m.mutate(func() {
		m.current = nil
		m.children = nil
		m.errMsg = apiErr.Message
		m.selStatus = SelectionFailed
	})
	m.emit(events.ErrorOccurred, map[string]interface{}{"id": id, "error": apiErr.Message})
	m.stateChanged()
}

// Create creates a new collection item remotely, then re-fetches the
// canonical collection and selects the new item. There is no offline
// fallback: a creation that did not reach the server did not happen.
func (m *Manager[I, C]) Create(ctx context.Context, payload map[string]any) {
	if m.cfg.ValidateCreate != nil {
		if vErr := m.cfg.ValidateCreate(payload); vErr != nil {
			m.recordError(vErr)
			return
		}
	}

	m.beginOp()
	item, apiErr := m.cfg.Backend.Create(ctx, payload)
	if apiErr != nil {
		m.mutate(func() { m.errMsg = apiErr.Message })
		m.emit(events.ErrorOccurred, map[string]interface{}{"error": apiErr.Message})
		m.stateChanged()
		return
	}
	m.mutate(func() {})

	m.FetchCollection(ctx)
	m.Select(ctx, item.ItemID())
}

// Update patches a collection item remotely, re-fetches the collection and
// refreshes the selection when the updated item is current.
func (m *Manager[I, C]) Update(ctx context.Context, id string, patch map[string]any) {
	if m.cfg.ValidatePatch != nil {
		if vErr := m.cfg.ValidatePatch(patch); vErr != nil {
			m.recordError(vErr)
			return
		}
	}

	m.beginOp()
	_, apiErr := m.cfg.Backend.Update(ctx, id, patch)
	if apiErr != nil {
		m.mutate(func() { m.errMsg = apiErr.Message })
		m.emit(events.ErrorOccurred, map[string]interface{}{"id": id, "error": apiErr.Message})
		m.stateChanged()
		return
	}
	m.mutate(func() {})

	wasCurrent := m.CurrentID() == id
	m.FetchCollection(ctx)
	if wasCurrent {
		m.Select(ctx, id)
	}
}

// Delete removes a collection item remotely. When the deleted item was
// current, the selection is cleared before the collection is re-fetched -
// the auto-selection watcher only ever promotes, never demotes.
func (m *Manager[I, C]) Delete(ctx context.Context, id string) {
	m.beginOp()
	apiErr := m.cfg.Backend.Delete(ctx, id)
	if apiErr != nil {
		m.mutate(func() { m.errMsg = apiErr.Message })
		m.emit(events.ErrorOccurred, map[string]interface{}{"id": id, "error": apiErr.Message})
		m.stateChanged()
		return
	}

	cleared := false
	m.mutate(func() {
		if m.current != nil && (*m.current).ItemID() == id {
			m.current = nil
			m.children = nil
			m.selStatus = SelectionNone
			cleared = true
		}
	})
	if cleared {
		m.emit(events.SelectionCleared, map[string]interface{}{"id": id})
	}

	m.FetchCollection(ctx)
}

// AddChild adds a child to the given parent. On success, the parent is
// re-selected to pick up server-computed fields (recalculated aggregates).
// On failure, a locally synthesized child tagged pending is appended instead
// so the UI stays responsive; the warning indicator is set, the fatal error
// is not. Pending children are reconciled by the next successful Select.
func (m *Manager[I, C]) AddChild(ctx context.Context, parentID string, payload map[string]any) {
	if m.cfg.ValidateChild != nil {
		if vErr := m.cfg.ValidateChild(payload); vErr != nil {
			m.recordError(vErr)
			return
		}
	}

	m.beginOp()
	_, apiErr := m.cfg.Backend.AddChild(ctx, parentID, payload)
	if apiErr == nil {
		m.mutate(func() {})
		m.Select(ctx, parentID)
		return
	}

	child := m.cfg.Synthesize(parentID, payload)
	m.log.Warn().
		Str("parent_id", parentID).
		Str("child_id", child.ChildID()).
		Str("code", string(apiErr.Code)).
		Msg("Remote add failed, keeping locally synthesized child")
	m.mutate(func() {
		if m.current == nil || (*m.current).ItemID() == parentID {
			m.children = append(m.children, child)
		}
		m.errMsg = ""
		m.warning = apiErr.Message
	})
	m.emit(events.ChildPending, map[string]interface{}{"parent_id": parentID, "child_id": child.ChildID()})
	m.stateChanged()
}

// RemoveChild removes a child from the given parent. The in-memory list is
// spliced immediately on success; no re-fetch round-trip is needed since the
// child is already known. Removing an id that is no longer present is a
// no-op, which makes the operation idempotent. Pending children are spliced
// without a remote call - the server never saw them.
func (m *Manager[I, C]) RemoveChild(ctx context.Context, parentID, childID string) {
	existing, found := m.findChild(childID)
	if !found {
		m.log.Debug().Str("child_id", childID).Msg("Child already removed, nothing to do")
		return
	}

	if !existing.IsPending() {
		m.beginOp()
		apiErr := m.cfg.Backend.RemoveChild(ctx, parentID, childID)
		if apiErr != nil {
			m.mutate(func() { m.errMsg = apiErr.Message })
			m.emit(events.ErrorOccurred, map[string]interface{}{"child_id": childID, "error": apiErr.Message})
			m.stateChanged()
			return
		}
		m.mutate(func() { m.spliceChild(childID) })
	} else {
		m.mu.Lock()
		m.spliceChild(childID)
		m.mu.Unlock()
	}

	m.stateChanged()
}

// --- internals ---

// beginOp marks the start of a collection-level operation.
func (m *Manager[I, C]) beginOp() {
	m.mu.Lock()
	m.loading = true
	if m.colStatus == CollectionIdle {
		m.colStatus = CollectionLoading
	}
	m.mu.Unlock()
}

// beginSelect marks the start of a selection operation.
func (m *Manager[I, C]) beginSelect() {
	m.mu.Lock()
	m.loading = true
	m.selStatus = SelectionPending
	m.mu.Unlock()
}

// mutate applies fn under the lock and drops the loading flag. Every
// operation funnels its final state write through here so loading toggles
// false exactly once per operation, regardless of outcome.
func (m *Manager[I, C]) mutate(fn func()) {
	m.mu.Lock()
	fn()
	m.loading = false
	m.mu.Unlock()
}

// recordError stores a pre-remote failure (validation) as the fatal error.
func (m *Manager[I, C]) recordError(apiErr *api.Error) {
	m.mu.Lock()
	m.errMsg = apiErr.Message
	m.mu.Unlock()
	m.emit(events.ErrorOccurred, map[string]interface{}{"error": apiErr.Message})
	m.stateChanged()
}

func (m *Manager[I, C]) findChild(childID string) (C, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.children {
		if c.ChildID() == childID {
			return c, true
		}
	}
	var zero C
	return zero, false
}

// spliceChild removes a child in place. Caller holds the lock.
func (m *Manager[I, C]) spliceChild(childID string) {
	kept := m.children[:0]
	for _, c := range m.children {
		if c.ChildID() != childID {
			kept = append(kept, c)
		}
	}
	m.children = kept
}

func (m *Manager[I, C]) emit(t events.EventType, data map[string]interface{}) {
	if m.cfg.Bus == nil {
		return
	}
	m.cfg.Bus.Emit(t, m.cfg.Family, data)
}

func (m *Manager[I, C]) stateChanged() {
	m.emit(events.StateChanged, nil)
}

// loadSnapshot reads the family snapshot, treating any failure as absence.
func (m *Manager[I, C]) loadSnapshot(snap *snapshotData[I, C]) bool {
	if m.cfg.Cache == nil {
		return false
	}
	ok, err := m.cfg.Cache.Load(m.cfg.Family, snap)
	if err != nil {
		m.log.Error().Err(err).Msg("Snapshot read failed")
		return false
	}
	return ok
}

// updateSnapshotCollection replaces the cached collection, preserving the
// cached children of all parents.
func (m *Manager[I, C]) updateSnapshotCollection(items []I) {
	if m.cfg.Cache == nil {
		return
	}
	var snap snapshotData[I, C]
	m.loadSnapshot(&snap)
	snap.Collection = items
	if err := m.cfg.Cache.Save(m.cfg.Family, snap); err != nil {
		m.log.Error().Err(err).Msg("Snapshot write failed")
	}
}

// updateSnapshotDetail refreshes the cached copy of one item and replaces
// that parent's children wholesale.
func (m *Manager[I, C]) updateSnapshotDetail(item I, parentID string, children []C) {
	if m.cfg.Cache == nil {
		return
	}
	var snap snapshotData[I, C]
	m.loadSnapshot(&snap)

	replaced := false
	for i, existing := range snap.Collection {
		if existing.ItemID() == parentID {
			snap.Collection[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		snap.Collection = append(snap.Collection, item)
	}

	kept := snap.Children[:0]
	for _, c := range snap.Children {
		if c.ChildParentID() != parentID {
			kept = append(kept, c)
		}
	}
	snap.Children = append(kept, children...)

	if err := m.cfg.Cache.Save(m.cfg.Family, snap); err != nil {
		m.log.Error().Err(err).Msg("Snapshot write failed")
	}
}

func findItem[I Item](items []I, id string) *I {
	for i := range items {
		if items[i].ItemID() == id {
			item := items[i]
			return &item
		}
	}
	return nil
}

func filterChildren[C Child](children []C, parentID string) []C {
	var out []C
	for _, c := range children {
		if c.ChildParentID() == parentID {
			out = append(out, c)
		}
	}
	return out
}

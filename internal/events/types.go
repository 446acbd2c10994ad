// Package events provides event management functionality.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	// StateChanged fires after every state mutation of a resource manager.
	// The auto-selection watcher keys off this event.
	StateChanged EventType = "STATE_CHANGED"

	// CollectionLoaded fires when a collection fetch succeeds
	CollectionLoaded EventType = "COLLECTION_LOADED"
	// CollectionDegraded fires when a read falls back to the cached snapshot
	CollectionDegraded EventType = "COLLECTION_DEGRADED"
	// SelectionChanged fires when the current item changes
	SelectionChanged EventType = "SELECTION_CHANGED"
	// SelectionCleared fires when the current item is removed
	SelectionCleared EventType = "SELECTION_CLEARED"
	// ChildPending fires when a child is synthesized locally after a failed
	// remote add
	ChildPending EventType = "CHILD_PENDING"
	// ErrorOccurred fires when an operation records a fatal error
	ErrorOccurred EventType = "ERROR_OCCURRED"
)

// Event represents a state-layer event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// Package pubsub fans out resolution run events to long-lived subscribers
// such as server-sent event streams.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
)

// Topics published during resolution runs
const (
	TopicRunStatus = "run_status" // Progress of the current run
	TopicGraph     = "graph"      // Summary of each completed graph
)

// ErrClosed is returned by a publisher after Close
var ErrClosed = errors.New("publisher is closed")

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "run_status", "graph")
	Type    string          `json:"type"`    // Event type (e.g., "loading_facts", "classifying", "ready")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Per-topic sequence number
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data any) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// RunStatus is the payload of run_status events
type RunStatus struct {
	State   string `json:"state"`   // loading_facts, collecting, classifying, finalizing, ready, error
	Message string `json:"message"` // Human-readable status message
	Step    int    `json:"step"`    // Current step number (1-based)
	Total   int    `json:"total"`   // Total number of steps
}

// GraphSummary is the payload of graph events
type GraphSummary struct {
	Reason        string `json:"reason"`
	Entities      int    `json:"entities"`
	Relationships int    `json:"relationships"`
	Unresolved    int    `json:"unresolved"`
	Cycles        int    `json:"cycles"`
	Changed       bool   `json:"changed"` // False when a rerun produced an identical graph
	DurationMs    int64  `json:"durationMs"`
}

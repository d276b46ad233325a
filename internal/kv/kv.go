// Package kv defines the raw key-value contract that mailbox storage is built
// on: point get, upsert, idempotent delete, prefix scan and an optional prefix
// watch. Keys are strings; values are opaque bytes.
package kv

import (
	"context"

	"github.com/CHESTERFIELD/simple-chat/internal/errs"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errs.ErrNotFound

// Pair is one entry returned by Scan.
type Pair struct {
	Key   string
	Value []byte
}

// Store is implemented by every backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Put upserts; an existing value is overwritten silently.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Scan returns every pair whose key starts with prefix, in ascending key order.
	Scan(ctx context.Context, prefix string) ([]Pair, error)
	Ping(ctx context.Context) error
	Close() error
}

// EventType distinguishes change notifications.
type EventType int

const (
	EventPut EventType = iota + 1
	EventDelete
)

func (t EventType) String() string {
	switch t {
	case EventPut:
		return "put"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Event describes one change under a watched prefix.
type Event struct {
	Type EventType
	Key  string
}

// Subscription is a live prefix watch.
type Subscription interface {
	// Events is closed once the subscription ends.
	Events() <-chan Event
	// Cancel stops the subscription. No events are delivered after it returns.
	Cancel()
}

// Watcher is implemented by stores that can notify about changes.
type Watcher interface {
	Watch(ctx context.Context, prefix string) (Subscription, error)
}

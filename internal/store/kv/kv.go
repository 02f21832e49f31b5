// Package kv defines the backing synchronized key-value store contract:
// bulk get/set/remove with hard quotas and cross-instance change
// notifications. The chunk codec is written against this interface; the
// Redis implementation backs production and the memory implementation
// backs tests and degraded mode.
package kv

import (
	"context"
	"errors"
)

const (
	// QuotaBytes is the hard total-size quota across all keys.
	QuotaBytes = 102_400

	// QuotaBytesPerItem is the hard per-key size ceiling
	// (key length + value length).
	QuotaBytesPerItem = 8_192
)

var (
	// ErrQuotaExceeded means a Set would push total usage past
	// QuotaBytes. Nothing is written; the caller can free space and
	// retry the identical operation.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrItemTooLarge means a single key+value pair exceeds
	// QuotaBytesPerItem. Records are sized to always fit one slot, so
	// hitting this is an internal-consistency bug, not a user condition.
	ErrItemTooLarge = errors.New("item exceeds per-key size limit")

	// ErrUnavailable means the backing store itself failed. Fatal for
	// the current operation; distinct from any data-validation error.
	ErrUnavailable = errors.New("storage unavailable")
)

// Change carries the old and/or new value of one key. Either side may be
// absent (key created, key removed, or the publisher did not read the
// previous value).
type Change struct {
	OldValue *string `json:"oldValue,omitempty"`
	NewValue *string `json:"newValue,omitempty"`
}

// Event is a change notification delivered to all subscribed instances.
// Sender identifies the writing instance so a writer can ignore its own
// events. Delivery is best-effort: no ordering guarantee relative to the
// Set that produced it, and no exactly-once guarantee.
type Event struct {
	Sender  string            `json:"sender"`
	Changes map[string]Change `json:"changes"`
}

// Store is the synchronized key-value store.
type Store interface {
	// Get returns the values for the requested keys. Absent keys are
	// silently omitted from the result, never an error.
	Get(ctx context.Context, keys []string) (map[string]string, error)

	// Set writes all items or none. Enforces both quotas.
	Set(ctx context.Context, items map[string]string) error

	// Remove deletes the given keys. Absent keys are ignored.
	Remove(ctx context.Context, keys []string) error

	// Usage returns the bytes currently in use (sum of key and value
	// lengths).
	Usage(ctx context.Context) (int, error)

	// Subscribe delivers change events until ctx is cancelled. Events
	// include this instance's own writes; filter on Event.Sender.
	Subscribe(ctx context.Context) (<-chan Event, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// itemSize is the quota accounting unit: key length plus value length.
func itemSize(key, value string) int {
	return len(key) + len(value)
}

// checkItems validates per-item sizes and returns the total payload size.
func checkItems(items map[string]string) (int, error) {
	total := 0
	for k, v := range items {
		size := itemSize(k, v)
		if size > QuotaBytesPerItem {
			return 0, ErrItemTooLarge
		}
		total += size
	}
	return total, nil
}

func strptr(s string) *string { return &s }

package journal

import "context"

// Repository is the port (interface) for persisting journal entries.
// The checkout flow depends on this abstraction, not on SQLite directly,
// so you can swap the implementation for in-memory (tests) or nothing at all.
type Repository interface {
	// Append persists a new entry. The journal is an append-only audit log,
	// not an upsert.
	Append(ctx context.Context, entry *Entry) error

	// ListByFlow returns all entries for one flow instance in insertion
	// order.
	ListByFlow(ctx context.Context, flowID string) ([]Entry, error)
}

package storage

import "context"

// Fixed keys for the two persisted blobs. The values are opaque JSON owned
// by the store that writes them; this package never inspects their contents.
const (
	KeyCart    = "panaderia_cart"
	KeySession = "panaderia_session"
)

// Snapshots is the port (interface) for durable snapshot persistence.
// The cart and session stores depend on this abstraction, not on SQLite or
// Redis directly, so tests can swap in an in-memory fake.
type Snapshots interface {
	// Load returns the blob stored under key, or (nil, nil) if absent.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save replaces the blob stored under key.
	Save(ctx context.Context, key string, data []byte) error

	// Delete removes the blob stored under key. Absent keys are not an error.
	Delete(ctx context.Context, key string) error
}

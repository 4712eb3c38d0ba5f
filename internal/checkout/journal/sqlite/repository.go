// Package sqlite provides a SQLite-backed implementation of
// journal.Repository.
//
// The journal shares the snapshot database file, so a single local file
// holds everything the storefront persists on the device.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lahorneada/storefront/internal/checkout/journal"
)

// schema is the DDL executed once on startup.
// The table is append-only: each row is an immutable event in the flow's
// lifecycle.
const schema = `
CREATE TABLE IF NOT EXISTS checkout_journal (
    -- Surrogate primary key — auto-incremented by SQLite.
    id          INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Checkout flow instance identifier.
    -- Not UNIQUE because multiple rows exist per flow (one per event).
    flow_id     TEXT        NOT NULL,

    -- Action that was attempted (e.g. "SUBMIT_ORDER").
    event       TEXT        NOT NULL,

    -- Flow state after the event was handled.
    state       TEXT        NOT NULL,

    -- Event-specific context. Never secrets.
    detail      TEXT        NOT NULL DEFAULT '',

    -- State-local error message; empty on success.
    error       TEXT        NOT NULL DEFAULT '',

    -- Request id from the local HTTP surface, for log correlation.
    request_id  TEXT        NOT NULL DEFAULT '',

    -- Wall-clock timestamp (RFC3339 stored as TEXT, SQLite idiom).
    created_at  TEXT        NOT NULL
);

-- Index for the most common query: "give me all events for flow X in order".
CREATE INDEX IF NOT EXISTS idx_checkout_journal_flow_id ON checkout_journal(flow_id, created_at);
`

// Repository implements journal.Repository on SQLite.
type Repository struct {
	db *sql.DB
}

var _ journal.Repository = (*Repository)(nil)

// New applies the schema and returns a ready repository. The *sql.DB is
// shared with the snapshot store and stays owned by the caller.
func New(db *sql.DB) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("journal sqlite: apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Append(ctx context.Context, entry *journal.Entry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO checkout_journal (flow_id, event, state, detail, error, request_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.FlowID, string(entry.Event), entry.State, entry.Detail, entry.Error,
		entry.RequestID, createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("journal sqlite: append: %w", err)
	}
	return nil
}

func (r *Repository) ListByFlow(ctx context.Context, flowID string) ([]journal.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT flow_id, event, state, detail, error, request_id, created_at
		 FROM checkout_journal WHERE flow_id = ? ORDER BY id`,
		flowID,
	)
	if err != nil {
		return nil, fmt.Errorf("journal sqlite: list %s: %w", flowID, err)
	}
	defer rows.Close()

	var entries []journal.Entry
	for rows.Next() {
		var e journal.Entry
		var event, createdAt string
		if err := rows.Scan(&e.FlowID, &event, &e.State, &e.Detail, &e.Error, &e.RequestID, &createdAt); err != nil {
			return nil, fmt.Errorf("journal sqlite: scan: %w", err)
		}
		e.Event = journal.Event(event)
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("journal sqlite: parse time %q: %w", createdAt, err)
		}
		e.CreatedAt = t
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

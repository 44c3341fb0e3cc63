// Package postgres implements the event log using the transactional outbox
// pattern. Events are written to the outbox table in the same database as
// the ledger state and drained to Kafka by the outbox worker, so a recorded
// state change can never lose its event.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events"
)

// Store implements events.Log backed by the outbox table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Schema is the DDL for the outbox table. Applied by migrations; exposed
// here so integration tests can bootstrap a scratch database.
const Schema = `
CREATE TABLE IF NOT EXISTS event_outbox (
	id           UUID PRIMARY KEY,
	seq          BIGSERIAL,
	kind         TEXT        NOT NULL,
	payload      JSONB       NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	published_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS event_outbox_unpublished
	ON event_outbox (seq) WHERE published_at IS NULL;
`

// Append writes the event to the outbox. The database sequence is the
// authoritative ordering; the in-struct Seq is informational for consumers.
func (s *Store) Append(ctx context.Context, event events.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	payload, err := events.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	query := `
		INSERT INTO event_outbox (id, kind, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.db.ExecContext(ctx, query, event.ID, string(event.Kind), payload, time.Now()); err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// Entry is an undelivered outbox row.
type Entry struct {
	ID      uuid.UUID
	Kind    string
	Payload []byte
}

// FetchUnpublished returns up to limit undelivered entries in sequence
// order.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, kind, payload
		FROM event_outbox
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkPublished stamps the entries as delivered. Re-delivery after a crash
// between publish and mark is possible; consumers deduplicate on event ID.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `
		UPDATE event_outbox
		SET published_at = $1
		WHERE id = ANY($2)
	`
	if _, err := s.db.ExecContext(ctx, query, time.Now(), ids); err != nil {
		return fmt.Errorf("mark outbox entries published: %w", err)
	}
	return nil
}

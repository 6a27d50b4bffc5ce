package postgres

import (
	"context"
	"database/sql"
	"fmt"

	audit "custodia/pkg/platform/audit"

	"github.com/google/uuid"
)

// Store persists audit events in PostgreSQL. Events are append-only; there is
// no update or delete path.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Schema creates the audit_events table when absent. Called at startup and by
// integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	category    TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	actor       TEXT NOT NULL DEFAULT '',
	subject     TEXT NOT NULL DEFAULT '',
	action      TEXT NOT NULL,
	from_holder TEXT NOT NULL DEFAULT '',
	to_holder   TEXT NOT NULL DEFAULT '',
	amount      BIGINT NOT NULL DEFAULT 0,
	proof_id    BIGINT NOT NULL DEFAULT 0,
	reason      TEXT NOT NULL DEFAULT '',
	request_id  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_subject_idx ON audit_events (subject);
`

// EnsureSchema applies the audit schema.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events
			(id, category, occurred_at, actor, subject, action, from_holder, to_holder, amount, proof_id, reason, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.NewString(),
		string(event.Category),
		event.Timestamp,
		event.Actor,
		event.Subject,
		event.Action,
		event.From,
		event.To,
		event.Amount,
		int64(event.ProofID),
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, occurred_at, actor, subject, action, from_holder, to_holder, amount, proof_id, reason, request_id
		FROM audit_events
		WHERE subject = $1
		ORDER BY occurred_at ASC`, subject)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, occurred_at, actor, subject, action, from_holder, to_holder, amount, proof_id, reason, request_id
		FROM audit_events
		ORDER BY occurred_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		var category string
		var proofID int64
		if err := rows.Scan(&category, &e.Timestamp, &e.Actor, &e.Subject, &e.Action,
			&e.From, &e.To, &e.Amount, &proofID, &e.Reason, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		e.ProofID = uint64(proofID)
		events = append(events, e)
	}
	return events, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"patchdesk/internal/audit"
	txcontext "patchdesk/pkg/platform/tx"
)

// Schema for the audit_events table. The seq column breaks timestamp ties by
// insertion order.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	seq             BIGSERIAL PRIMARY KEY,
	event_id        TEXT NOT NULL UNIQUE,
	event_type      TEXT NOT NULL,
	actor_id        TEXT NOT NULL DEFAULT '',
	actor_role      TEXT NOT NULL DEFAULT '',
	timestamp_iso   TIMESTAMPTZ NOT NULL,
	dataset_id      TEXT NOT NULL DEFAULT '',
	file_id         TEXT NOT NULL DEFAULT '',
	record_id       TEXT NOT NULL DEFAULT '',
	field_key       TEXT NOT NULL DEFAULT '',
	patch_request_id TEXT NOT NULL DEFAULT '',
	before_value    TEXT NOT NULL DEFAULT '',
	after_value     TEXT NOT NULL DEFAULT '',
	metadata        JSONB
);
CREATE INDEX IF NOT EXISTS idx_audit_events_patch ON audit_events (patch_request_id);
`

// Store persists audit events in PostgreSQL. There is no update or delete
// path; the table is append-only by construction.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	var metadata []byte
	if event.Metadata != nil {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
	}

	query := `
		INSERT INTO audit_events (
			event_id, event_type, actor_id, actor_role, timestamp_iso,
			dataset_id, file_id, record_id, field_key, patch_request_id,
			before_value, after_value, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		event.EventID,
		event.EventType,
		event.ActorID,
		event.ActorRole,
		event.Timestamp,
		event.DatasetID,
		event.FileID,
		event.RecordID,
		event.FieldKey,
		event.PatchRequestID,
		event.BeforeValue,
		event.AfterValue,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]audit.Event, error) {
	query := `
		SELECT event_id, event_type, actor_id, actor_role, timestamp_iso,
			   dataset_id, file_id, record_id, field_key, patch_request_id,
			   before_value, after_value, metadata
		FROM audit_events
		ORDER BY timestamp_iso ASC, seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			metadata []byte
		)
		err := rows.Scan(
			&event.EventID,
			&event.EventType,
			&event.ActorID,
			&event.ActorRole,
			&event.Timestamp,
			&event.DatasetID,
			&event.FileID,
			&event.RecordID,
			&event.FieldKey,
			&event.PatchRequestID,
			&event.BeforeValue,
			&event.AfterValue,
			&metadata,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

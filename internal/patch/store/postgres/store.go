package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"patchdesk/internal/patch/models"
	"patchdesk/pkg/platform/sentinel"
	txcontext "patchdesk/pkg/platform/tx"
)

// Schema for the patch_requests table. Evidence fields and the preflight
// snapshot are written once at creation; only status and updated_at change
// afterwards.
const Schema = `
CREATE TABLE IF NOT EXISTS patch_requests (
	request_id        TEXT PRIMARY KEY,
	author            TEXT NOT NULL,
	author_role       TEXT NOT NULL,
	status            TEXT NOT NULL,
	patch_kind        TEXT NOT NULL,
	target            TEXT NOT NULL DEFAULT '',
	sheet             TEXT NOT NULL DEFAULT '',
	field             TEXT NOT NULL DEFAULT '',
	condition_type    TEXT NOT NULL DEFAULT 'OTHER',
	action_type       TEXT NOT NULL DEFAULT 'OTHER',
	severity          TEXT NOT NULL DEFAULT '',
	risk              TEXT NOT NULL DEFAULT '',
	because           TEXT NOT NULL,
	rationale         TEXT NOT NULL,
	evidence_observation   TEXT NOT NULL,
	evidence_expected      TEXT NOT NULL,
	evidence_justification TEXT NOT NULL,
	evidence_repro         TEXT NOT NULL,
	proposed_value    TEXT NOT NULL DEFAULT '',
	current_value     TEXT NOT NULL DEFAULT '',
	preflight_context JSONB,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);
`

// Store persists patch requests in PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Save(ctx context.Context, req *models.PatchRequest) error {
	var preflight []byte
	if req.PreflightContext != nil {
		var err error
		preflight, err = json.Marshal(req.PreflightContext)
		if err != nil {
			return fmt.Errorf("marshal preflight context: %w", err)
		}
	}

	query := `
		INSERT INTO patch_requests (
			request_id, author, author_role, status, patch_kind,
			target, sheet, field, condition_type, action_type,
			severity, risk, because, rationale,
			evidence_observation, evidence_expected, evidence_justification, evidence_repro,
			proposed_value, current_value, preflight_context, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (request_id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		req.RequestID, req.Author, string(req.AuthorRole), string(req.Status), string(req.PatchKind),
		req.Target, req.Sheet, req.Field, string(req.ConditionType), string(req.ActionType),
		req.Severity, req.Risk, req.Because, req.Rationale,
		req.EvidenceObservation, req.EvidenceExpected, req.EvidenceJustification, req.EvidenceRepro,
		req.ProposedValue, req.CurrentValue, preflight, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save patch request: %w", err)
	}
	return nil
}

const selectColumns = `
	request_id, author, author_role, status, patch_kind,
	target, sheet, field, condition_type, action_type,
	severity, risk, because, rationale,
	evidence_observation, evidence_expected, evidence_justification, evidence_repro,
	proposed_value, current_value, preflight_context, created_at, updated_at
`

func (s *Store) Get(ctx context.Context, id string) (*models.PatchRequest, error) {
	query := `SELECT ` + selectColumns + ` FROM patch_requests WHERE request_id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, id)
	req, err := scanRequest(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patch request: %w", err)
	}
	return req, nil
}

func (s *Store) List(ctx context.Context) ([]*models.PatchRequest, error) {
	query := `SELECT ` + selectColumns + ` FROM patch_requests ORDER BY created_at ASC, request_id ASC`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list patch requests: %w", err)
	}
	defer rows.Close()

	var out []*models.PatchRequest
	for rows.Next() {
		req, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan patch request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patch requests: %w", err)
	}
	return out, nil
}

func scanRequest(scan func(dest ...any) error) (*models.PatchRequest, error) {
	var (
		req       models.PatchRequest
		preflight []byte
	)
	err := scan(
		&req.RequestID, &req.Author, &req.AuthorRole, &req.Status, &req.PatchKind,
		&req.Target, &req.Sheet, &req.Field, &req.ConditionType, &req.ActionType,
		&req.Severity, &req.Risk, &req.Because, &req.Rationale,
		&req.EvidenceObservation, &req.EvidenceExpected, &req.EvidenceJustification, &req.EvidenceRepro,
		&req.ProposedValue, &req.CurrentValue, &preflight, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(preflight) > 0 {
		req.PreflightContext = &models.PreflightContext{}
		if err := json.Unmarshal(preflight, req.PreflightContext); err != nil {
			return nil, fmt.Errorf("unmarshal preflight context: %w", err)
		}
	}
	return &req, nil
}

// Package export builds the distributable artifacts: the multi-sheet
// workbook (clean or full governance mode), the deterministic export
// filename, and the Kiwi JSON payload.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"patchdesk/internal/audit"
	"patchdesk/internal/identity"
	"patchdesk/internal/patch/models"
	"patchdesk/internal/platform/metrics"
	dErrors "patchdesk/pkg/domain-errors"
)

// Governance sheet names. Clean exports must never contain these.
const (
	SheetGovMeta         = "GOV_META"
	SheetOrchestrateMeta = "_orchestrate_meta"
	SheetAuditLog        = "Audit_Log"
)

// AuditLogHeader is the fixed column order of the Audit_Log sheet. Downstream
// consumers address columns positionally; never reorder.
var AuditLogHeader = []string{
	"event_id",
	"event_type",
	"actor_id",
	"actor_role",
	"timestamp_iso",
	"dataset_id",
	"file_id",
	"record_id",
	"field_key",
	"patch_request_id",
	"before_value",
	"after_value",
	"metadata",
}

// Sheet is one named tab: an ordered grid of rows (first row is the header)
// plus presentation-only fill metadata keyed by cell reference.
type Sheet struct {
	Name  string              `json:"name"`
	Rows  [][]string          `json:"rows"`
	Fills map[string]CellFill `json:"fills,omitempty"`
}

// Workbook is the ephemeral export artifact. It is built on demand and never
// persisted as a domain entity.
type Workbook struct {
	SheetNames []string          `json:"sheet_names"`
	Sheets     map[string]*Sheet `json:"sheets"`
}

// AppendSheet adds a sheet, preserving append order.
func (w *Workbook) AppendSheet(s *Sheet) {
	if w.Sheets == nil {
		w.Sheets = make(map[string]*Sheet)
	}
	w.SheetNames = append(w.SheetNames, s.Name)
	w.Sheets[s.Name] = s
}

// HasSheet reports whether a sheet with the given name exists.
func (w *Workbook) HasSheet(name string) bool {
	_, ok := w.Sheets[name]
	return ok
}

// SheetData is the live state of one data sheet, pulled from the grid
// collaborator at export time.
type SheetData struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	// CellStates carries per-cell export states ("R<row>C<col>" refs) used
	// only for fill styling. Values never come from here.
	CellStates map[string]string `json:"cell_states,omitempty"`
}

// GridSnapshot is the read-only view of the grid the builder consumes. It is
// assembled by the caller per export so the workbook always reflects live,
// corrected values rather than a cached copy.
type GridSnapshot struct {
	SheetOrder   []string             `json:"sheet_order"`
	ActiveSheet  string               `json:"active_sheet"`
	Sheets       map[string]SheetData `json:"sheets"`
	TotalRecords int                  `json:"total_records"`
	UserName     string               `json:"user_name"`
	UserRole     models.Role          `json:"user_role"`
	StatusLabel  string               `json:"status_label"`
}

// Builder assembles export workbooks from a grid snapshot plus the audit
// timeline and identity context.
type Builder struct {
	ident    identity.Context
	timeline *audit.Timeline
	metrics  *metrics.Metrics
	now      func() time.Time
}

// BuilderOption configures the Builder.
type BuilderOption func(*Builder)

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *metrics.Metrics) BuilderOption {
	return func(b *Builder) { b.metrics = m }
}

func NewBuilder(ident identity.Context, timeline *audit.Timeline, opts ...BuilderOption) *Builder {
	b := &Builder{ident: ident, timeline: timeline, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build produces the workbook. full=false yields the clean distributable
// artifact (data sheets only); full=true appends GOV_META, _orchestrate_meta,
// and Audit_Log.
func (b *Builder) Build(ctx context.Context, snap *GridSnapshot, full bool) (*Workbook, error) {
	start := b.now()
	wb := &Workbook{}

	for _, name := range snap.SheetOrder {
		data, ok := snap.Sheets[name]
		if !ok {
			return nil, dErrors.New(dErrors.CodeInvariantViolation,
				"sheet order references unknown sheet: "+name)
		}
		sheet := buildDataSheet(name, data)
		applyCellFills(sheet, data.CellStates)
		wb.AppendSheet(sheet)
	}

	if full {
		events, err := b.timeline.List(ctx)
		if err != nil {
			return nil, err
		}
		resolved := ResolveExportStatus(snap.UserRole, snap.StatusLabel)
		wb.AppendSheet(b.buildGovMetaSheet(snap, resolved))
		wb.AppendSheet(b.buildOrchestrateMetaSheet(snap, len(events)))
		wb.AppendSheet(buildAuditLogSheet(events))
	}

	if b.metrics != nil {
		mode := "clean"
		if full {
			mode = "full"
		}
		b.metrics.ExportsBuilt.WithLabelValues(mode).Inc()
		b.metrics.ExportDuration.Observe(b.now().Sub(start).Seconds())
	}
	return wb, nil
}

// buildDataSheet copies header and rows; values pass through untouched so
// in-session corrections already present in the snapshot survive verbatim.
func buildDataSheet(name string, data SheetData) *Sheet {
	rows := make([][]string, 0, len(data.Rows)+1)
	rows = append(rows, append([]string(nil), data.Headers...))
	for _, row := range data.Rows {
		rows = append(rows, append([]string(nil), row...))
	}
	return &Sheet{Name: name, Rows: rows}
}

func (b *Builder) buildGovMetaSheet(snap *GridSnapshot, status ExportStatus) *Sheet {
	rows := [][]string{
		{"key", "value"},
		{"export_status", string(status)},
		{"batch_id", b.ident.BatchID},
		{"dataset_id", b.ident.DatasetID},
		{"workspace_id", b.ident.WorkspaceID},
		{"tenant_id", b.ident.TenantID},
		{"division_id", b.ident.DivisionID},
		{"exported_by", snap.UserName},
		{"exported_role", string(snap.UserRole)},
		{"generated_at_utc", b.now().UTC().Format(time.RFC3339)},
	}
	return &Sheet{Name: SheetGovMeta, Rows: rows}
}

func (b *Builder) buildOrchestrateMetaSheet(snap *GridSnapshot, eventCount int) *Sheet {
	rows := [][]string{
		{"key", "value"},
		{"batch_id", b.ident.BatchID},
		{"tenant_id", b.ident.TenantID},
		{"division_id", b.ident.DivisionID},
		{"dataset_id", b.ident.DatasetID},
		{"workspace_id", b.ident.WorkspaceID},
		{"active_sheet", snap.ActiveSheet},
		{"sheet_count", strconv.Itoa(len(snap.SheetOrder))},
		{"record_count", strconv.Itoa(snap.TotalRecords)},
		{"audit_event_count", strconv.Itoa(eventCount)},
	}
	return &Sheet{Name: SheetOrchestrateMeta, Rows: rows}
}

// buildAuditLogSheet emits one row per timeline event under the fixed header,
// which is present even when the timeline is empty.
func buildAuditLogSheet(events []audit.Event) *Sheet {
	rows := make([][]string, 0, len(events)+1)
	rows = append(rows, append([]string(nil), AuditLogHeader...))
	for _, e := range events {
		metadata := ""
		if e.Metadata != nil {
			if raw, err := json.Marshal(e.Metadata); err == nil {
				metadata = string(raw)
			}
		}
		rows = append(rows, []string{
			e.EventID,
			e.EventType,
			e.ActorID,
			e.ActorRole,
			e.Timestamp.UTC().Format(time.RFC3339),
			e.DatasetID,
			e.FileID,
			e.RecordID,
			e.FieldKey,
			e.PatchRequestID,
			e.BeforeValue,
			e.AfterValue,
			metadata,
		})
	}
	return &Sheet{Name: SheetAuditLog, Rows: rows}
}

// CellRef formats the cell reference used for fill metadata.
func CellRef(row, col int) string {
	return fmt.Sprintf("R%dC%d", row, col)
}

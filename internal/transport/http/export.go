package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"patchdesk/internal/export"
	"patchdesk/internal/identity"
	"patchdesk/internal/patch/models"
	"patchdesk/internal/platform/middleware"
	"patchdesk/internal/transport/http/shared"
	dErrors "patchdesk/pkg/domain-errors"
)

// DriveSaver is the drive collaborator the export handler posts full
// workbooks to.
type DriveSaver interface {
	Save(ctx context.Context, workspaceID, fileName string, wb *export.Workbook) error
}

// ExportHandler builds workbook downloads, drive saves, and Kiwi payloads.
type ExportHandler struct {
	builder *export.Builder
	kiwi    *export.KiwiSerializer
	drive   DriveSaver
	ident   identity.Context
	logger  *slog.Logger
	now     func() time.Time
}

// ExportOption configures the ExportHandler.
type ExportOption func(*ExportHandler)

// WithExportClock overrides the filename time source for tests.
func WithExportClock(now func() time.Time) ExportOption {
	return func(h *ExportHandler) { h.now = now }
}

func NewExportHandler(builder *export.Builder, kiwi *export.KiwiSerializer, drive DriveSaver, ident identity.Context, logger *slog.Logger, opts ...ExportOption) *ExportHandler {
	h := &ExportHandler{
		builder: builder,
		kiwi:    kiwi,
		drive:   drive,
		ident:   ident,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type workbookRequest struct {
	Snapshot    *export.GridSnapshot `json:"snapshot"`
	Full        bool                 `json:"full"`
	SaveToDrive bool                 `json:"save_to_drive"`
}

type workbookResponse struct {
	FileName     string           `json:"file_name"`
	Workbook     *export.Workbook `json:"workbook"`
	SavedToDrive bool             `json:"saved_to_drive"`
}

// Workbook handles POST /export/workbook. The caller posts the live grid
// snapshot; the acting user and role come from the token. Drive saves always
// use the full artifact, so save_to_drive forces full mode.
func (h *ExportHandler) Workbook(w http.ResponseWriter, r *http.Request) {
	var req workbookRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	if req.Snapshot == nil || len(req.Snapshot.SheetOrder) == 0 {
		shared.WriteError(w, r, h.logger,
			dErrors.New(dErrors.CodeValidation, "snapshot with at least one sheet is required"))
		return
	}

	req.Snapshot.UserName = middleware.GetDisplayName(r.Context())
	req.Snapshot.UserRole = models.Role(middleware.GetRole(r.Context()))

	full := req.Full || req.SaveToDrive
	wb, err := h.builder.Build(r.Context(), req.Snapshot, full)
	if err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}

	fileName := export.BuildExportFilename(
		h.ident.BatchID, req.Snapshot.StatusLabel, h.ident.WorkspaceID, h.now())

	saved := false
	if req.SaveToDrive {
		if err := h.drive.Save(r.Context(), h.ident.WorkspaceID, fileName, wb); err != nil {
			shared.WriteError(w, r, h.logger, err)
			return
		}
		saved = true
	}
	shared.WriteJSON(w, http.StatusOK, workbookResponse{
		FileName:     fileName,
		Workbook:     wb,
		SavedToDrive: saved,
	})
}

type kiwiRequestBody struct {
	RequestIDs []string `json:"request_ids"`
}

// Kiwi handles POST /export/kiwi, returning the serialized payload directly.
func (h *ExportHandler) Kiwi(w http.ResponseWriter, r *http.Request) {
	var body kiwiRequestBody
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	if len(body.RequestIDs) == 0 {
		shared.WriteError(w, r, h.logger,
			dErrors.New(dErrors.CodeValidation, "request_ids is required"))
		return
	}

	payload, err := h.kiwi.Export(r.Context(), body.RequestIDs)
	if err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

package export

import (
	"regexp"
	"strings"

	"patchdesk/internal/patch/models"
)

// ExportStatus is the governance stage baked into GOV_META and the export
// filename.
type ExportStatus string

const (
	StatusInProgressAnalyst ExportStatus = "IN_PROGRESS_ANALYST"
	StatusAnalystDone       ExportStatus = "ANALYST_DONE"
	StatusVerifierDone      ExportStatus = "VERIFIER_DONE"
	StatusAdminFinal        ExportStatus = "ADMIN_FINAL"
	StatusRejected          ExportStatus = "REJECTED"
)

// statusAliases maps sanitized free-form labels onto the closed enum. Keys
// are post-sanitization (upper snake case). The table is deliberately
// narrow: beyond the canonical names only the two IN_PROGRESS spellings are
// recognized, and every other label collapses to IN_PROGRESS_ANALYST.
var statusAliases = map[string]ExportStatus{
	"IN_PROGRESS":         StatusInProgressAnalyst,
	"INPROGRESS":          StatusInProgressAnalyst,
	"IN_PROGRESS_ANALYST": StatusInProgressAnalyst,
	"ANALYST_DONE":        StatusAnalystDone,
	"VERIFIER_DONE":       StatusVerifierDone,
	"ADMIN_FINAL":         StatusAdminFinal,
	"REJECTED":            StatusRejected,
}

var nonStatusChars = regexp.MustCompile(`[^A-Z0-9]+`)

// NormalizeExportStatus maps an arbitrary label onto the export status enum.
// Empty and unrecognizable input both collapse to IN_PROGRESS_ANALYST so a
// filename can always be built.
func NormalizeExportStatus(raw string) ExportStatus {
	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	cleaned = nonStatusChars.ReplaceAllString(cleaned, "_")
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		return StatusInProgressAnalyst
	}
	if status, ok := statusAliases[cleaned]; ok {
		return status
	}
	return StatusInProgressAnalyst
}

// ResolveExportStatus derives the governance stage recorded in GOV_META.
// Terminal labels pass through; otherwise the stage advances with the
// exporting role, never backwards from role alone.
func ResolveExportStatus(role models.Role, raw string) ExportStatus {
	normalized := NormalizeExportStatus(raw)
	if normalized == StatusAdminFinal || normalized == StatusRejected {
		return normalized
	}
	switch role {
	case models.RoleAnalyst:
		return StatusInProgressAnalyst
	case models.RoleVerifier:
		return StatusVerifierDone
	case models.RoleAdmin:
		return StatusAdminFinal
	default:
		return normalized
	}
}

package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const maxFilenamePartLen = 64

var (
	spreadsheetExt   = regexp.MustCompile(`(?i)\.(xlsx|xls|csv)$`)
	unsafeFileChars  = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)
	repeatUnderscore = regexp.MustCompile(`_{2,}`)
)

// sanitizeFilenamePart makes a value safe for use inside the double
// underscore delimited filename. Spreadsheet extensions are stripped first so
// a batch named after its source file does not embed ".xlsx" mid-name.
func sanitizeFilenamePart(value, fallback string) string {
	part := spreadsheetExt.ReplaceAllString(strings.TrimSpace(value), "")
	part = unsafeFileChars.ReplaceAllString(part, "_")
	part = repeatUnderscore.ReplaceAllString(part, "_")
	part = strings.Trim(part, "_.")
	if part == "" {
		part = fallback
	}
	if len(part) > maxFilenamePartLen {
		part = part[:maxFilenamePartLen]
		part = strings.Trim(part, "_.")
	}
	return part
}

// BuildExportFilename produces the deterministic export name:
//
//	<batch>__<STATUS>__<YYYY-MM-DD_HH-mm>__<workspace>.xlsx
//
// The status segment always comes from the normalized enum, so the name is
// parseable regardless of what label the caller passed in.
func BuildExportFilename(batchID, statusLabel, workspaceID string, now time.Time) string {
	return fmt.Sprintf("%s__%s__%s__%s.xlsx",
		sanitizeFilenamePart(batchID, "dataset"),
		NormalizeExportStatus(statusLabel),
		now.UTC().Format("2006-01-02_15-04"),
		sanitizeFilenamePart(workspaceID, "workspace"),
	)
}

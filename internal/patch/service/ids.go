package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateID produces a patch request id. The millisecond timestamp prefix
// (base36) keeps ids approximately chronological when sorted as strings; the
// UUID fragment supplies collision resistance within the same millisecond.
func GenerateID(now time.Time) string {
	ts := strconv.FormatInt(now.UnixMilli(), 36)
	frag := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return "pr_" + ts + "_" + frag
}

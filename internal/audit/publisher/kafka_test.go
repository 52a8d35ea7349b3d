package publisher

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchdesk/internal/audit"
)

func TestEncodeRecord(t *testing.T) {
	event := audit.Event{
		EventID:        "evt_1",
		EventType:      audit.EventPatchSubmitted,
		ActorID:        "alice",
		ActorRole:      "analyst",
		Timestamp:      time.Date(2026, 2, 18, 16, 45, 0, 0, time.UTC),
		DatasetID:      "dataset_dev",
		PatchRequestID: "pr_1",
		BeforeValue:    "Draft",
		AfterValue:     "Submitted",
	}

	record, err := EncodeRecord(event, "patchdesk.audit-events")
	require.NoError(t, err)

	assert.Equal(t, "patchdesk.audit-events", record.Topic)
	assert.Equal(t, "pr_1", string(record.Key),
		"records are keyed by patch request id so per-request order holds within a partition")

	var decoded audit.Event
	require.NoError(t, json.Unmarshal(record.Value, &decoded))
	assert.Equal(t, event, decoded)
}

func TestEncodeRecordTimestampField(t *testing.T) {
	event := audit.Event{
		EventID:   "evt_1",
		Timestamp: time.Date(2026, 2, 18, 16, 45, 0, 0, time.UTC),
	}
	record, err := EncodeRecord(event, "t")
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(record.Value, &raw))
	assert.Contains(t, raw, "timestamp_iso")
}

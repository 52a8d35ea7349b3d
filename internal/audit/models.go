// Package audit is the append-only governance timeline. Events are created
// once at transition time and never mutated or deleted; the timeline, not the
// patch request's current status, is the durable record of what happened.
package audit

import "time"

// EventType names for the governance vocabulary. One type per transition
// edge, plus FIELD_UPDATED for applied value corrections.
const (
	EventPatchSubmitted             = "PATCH_SUBMITTED"
	EventPatchClarificationRequest  = "PATCH_CLARIFICATION_REQUESTED"
	EventPatchClarificationAnswered = "PATCH_CLARIFICATION_ANSWERED"
	EventPatchVerifierApproved      = "PATCH_VERIFIER_APPROVED"
	EventPatchAdminHold             = "PATCH_ADMIN_HOLD"
	EventPatchAdminApproved         = "PATCH_ADMIN_APPROVED"
	EventPatchSentToKiwi            = "PATCH_SENT_TO_KIWI"
	EventPatchKiwiReturned          = "PATCH_KIWI_RETURNED"
	EventPatchApplied               = "PATCH_APPLIED"
	EventPatchRejected              = "PATCH_REJECTED"
	EventPatchCancelled             = "PATCH_CANCELLED"
	EventFieldUpdated               = "FIELD_UPDATED"
)

// Event is one immutable audit record. The field set and its serialization
// order in exports form a positional compatibility contract with downstream
// consumers; do not reorder.
type Event struct {
	EventID        string            `json:"event_id"`
	EventType      string            `json:"event_type"`
	ActorID        string            `json:"actor_id"`
	ActorRole      string            `json:"actor_role"`
	Timestamp      time.Time         `json:"timestamp_iso"`
	DatasetID      string            `json:"dataset_id"`
	FileID         string            `json:"file_id"`
	RecordID       string            `json:"record_id"`
	FieldKey       string            `json:"field_key"`
	PatchRequestID string            `json:"patch_request_id"`
	BeforeValue    string            `json:"before_value"`
	AfterValue     string            `json:"after_value"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Clone deep-copies the event so timeline reads cannot alias stored state.
func (e Event) Clone() Event {
	out := e
	if e.Metadata != nil {
		out.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

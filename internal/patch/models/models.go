// Package models defines the patch request aggregate: a proposed comment or
// data correction against one dataset field, awaiting governance review.
package models

import "time"

// Role is a governance actor role. Roles gate which status transitions an
// actor may perform.
type Role string

const (
	RoleAnalyst  Role = "analyst"
	RoleVerifier Role = "verifier"
	RoleAdmin    Role = "admin"
)

// Status is the review state of a patch request. The set is closed; status
// only ever changes through the transition machine.
type Status string

const (
	StatusDraft              Status = "Draft"
	StatusSubmitted          Status = "Submitted"
	StatusNeedsClarification Status = "Needs_Clarification"
	StatusVerifierResponded  Status = "Verifier_Responded"
	StatusVerifierApproved   Status = "Verifier_Approved"
	StatusAdminHold          Status = "Admin_Hold"
	StatusAdminApproved      Status = "Admin_Approved"
	StatusSentToKiwi         Status = "Sent_to_Kiwi"
	StatusKiwiReturned       Status = "Kiwi_Returned"
	StatusApplied            Status = "Applied"
	StatusRejected           Status = "Rejected"
	StatusCancelled          Status = "Cancelled"
)

// KnownStatus reports whether s belongs to the closed status set.
func KnownStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusNeedsClarification,
		StatusVerifierResponded, StatusVerifierApproved,
		StatusAdminHold, StatusAdminApproved,
		StatusSentToKiwi, StatusKiwiReturned,
		StatusApplied, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApplied, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Kind distinguishes a narrative comment from a proposed value change.
type Kind string

const (
	KindComment    Kind = "comment"
	KindCorrection Kind = "correction"
)

// ConditionType describes why a patch is proposed.
type ConditionType string

const (
	ConditionMissingValue   ConditionType = "MISSING_VALUE"
	ConditionIncorrectValue ConditionType = "INCORRECT_VALUE"
	ConditionFormatMismatch ConditionType = "FORMAT_MISMATCH"
	ConditionSourceConflict ConditionType = "SOURCE_CONFLICT"
	ConditionOther          ConditionType = "OTHER"
)

// ActionType describes what action the patch requests.
type ActionType string

const (
	ActionUpdateValue ActionType = "UPDATE_VALUE"
	ActionClearValue  ActionType = "CLEAR_VALUE"
	ActionAddComment  ActionType = "ADD_COMMENT"
	ActionEscalate    ActionType = "ESCALATE"
	ActionOther       ActionType = "OTHER"
)

// GateColor is the traffic-light preflight classification.
type GateColor string

const (
	GateRed    GateColor = "RED"
	GateYellow GateColor = "YELLOW"
	GateGreen  GateColor = "GREEN"
)

// Finding is one pre-submission validation finding captured by preflight.
type Finding struct {
	Scope  string `json:"scope"`
	Code   string `json:"code"`
	Label  string `json:"label"`
	Status string `json:"status"`
	Reason string `json:"reason"`
	Value  string `json:"value"`
}

// PreflightContext is a snapshot of preflight validation state captured
// verbatim at creation time. It is never recomputed or mutated afterwards.
type PreflightContext struct {
	Source          string    `json:"source"`
	RecordKey       string    `json:"record_key"`
	SubmitKind      string    `json:"submit_kind"`
	CapturedAtUTC   string    `json:"captured_at_utc"`
	GateColor       GateColor `json:"gate_color"`
	HealthScore     float64   `json:"health_score"`
	PendingFindings []Finding `json:"pending_findings"`
}

// Clone deep-copies the context so stored snapshots cannot alias caller data.
func (p *PreflightContext) Clone() *PreflightContext {
	if p == nil {
		return nil
	}
	out := *p
	out.PendingFindings = append([]Finding(nil), p.PendingFindings...)
	return &out
}

// PatchRequest is a proposed change or comment against one dataset
// field/record. The evidence bundle and preflight context are immutable after
// creation; status advances only through the transition machine.
type PatchRequest struct {
	RequestID  string `json:"request_id"`
	Author     string `json:"author"`
	AuthorRole Role   `json:"author_role"`
	Status     Status `json:"status"`
	PatchKind  Kind   `json:"patch_kind"`

	Target string `json:"target"`
	Sheet  string `json:"sheet"`
	Field  string `json:"field"`

	ConditionType ConditionType `json:"condition_type"`
	ActionType    ActionType    `json:"action_type"`
	Severity      string        `json:"severity"`
	Risk          string        `json:"risk"`

	Because               string `json:"because"`
	Rationale             string `json:"rationale"`
	EvidenceObservation   string `json:"evidence_observation"`
	EvidenceExpected      string `json:"evidence_expected"`
	EvidenceJustification string `json:"evidence_justification"`
	EvidenceRepro         string `json:"evidence_repro"`

	ProposedValue string `json:"proposed_value,omitempty"`
	CurrentValue  string `json:"current_value,omitempty"`

	PreflightContext *PreflightContext `json:"preflight_context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the request.
func (r *PatchRequest) Clone() *PatchRequest {
	if r == nil {
		return nil
	}
	out := *r
	out.PreflightContext = r.PreflightContext.Clone()
	return &out
}

package models

import (
	dErrors "patchdesk/pkg/domain-errors"
)

// CreateRequest carries the caller-supplied fields for a new patch request.
// RequestID, Status, and timestamps are assigned by the lifecycle service.
type CreateRequest struct {
	Author     string `json:"author"`
	AuthorRole Role   `json:"author_role"`
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
}

var validKinds = map[Kind]bool{
	KindComment:    true,
	KindCorrection: true,
}

var validConditionTypes = map[ConditionType]bool{
	ConditionMissingValue:   true,
	ConditionIncorrectValue: true,
	ConditionFormatMismatch: true,
	ConditionSourceConflict: true,
	ConditionOther:          true,
}

var validActionTypes = map[ActionType]bool{
	ActionUpdateValue: true,
	ActionClearValue:  true,
	ActionAddComment:  true,
	ActionEscalate:    true,
	ActionOther:       true,
}

// Validate enforces the creation contract: every evidence field is required,
// and the closed enumerations must hold declared members.
func (c *CreateRequest) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"author", c.Author},
		{"because", c.Because},
		{"rationale", c.Rationale},
		{"evidence_observation", c.EvidenceObservation},
		{"evidence_expected", c.EvidenceExpected},
		{"evidence_justification", c.EvidenceJustification},
		{"evidence_repro", c.EvidenceRepro},
	}
	for _, field := range required {
		if field.value == "" {
			return dErrors.New(dErrors.CodeValidation, "missing required field: "+field.name).
				Add("field", field.name)
		}
	}
	if !validKinds[c.PatchKind] {
		return dErrors.New(dErrors.CodeValidation, "invalid patch_kind: "+string(c.PatchKind))
	}
	if !validConditionTypes[c.ConditionType] {
		return dErrors.New(dErrors.CodeValidation, "invalid condition_type: "+string(c.ConditionType))
	}
	if !validActionTypes[c.ActionType] {
		return dErrors.New(dErrors.CodeValidation, "invalid action_type: "+string(c.ActionType))
	}
	return nil
}

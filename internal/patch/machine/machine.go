// Package machine is the status transition graph for patch requests. The
// graph is fixed at compile time; each edge is gated by the actor roles
// permitted to traverse it. Advancing status and constructing the paired
// audit event happen in one operation (Apply) so no code path can do one
// without the other.
package machine

import (
	"time"

	"patchdesk/internal/audit"
	"patchdesk/internal/identity"
	"patchdesk/internal/patch/models"
	dErrors "patchdesk/pkg/domain-errors"
)

type edge struct {
	from, to models.Status
}

// transitions is the complete directed graph. Absent edges are illegal for
// every role. Terminal statuses (Applied, Rejected, Cancelled) have no
// outgoing edges.
var transitions = map[edge][]models.Role{
	{models.StatusDraft, models.StatusSubmitted}: {models.RoleAnalyst, models.RoleAdmin},
	{models.StatusDraft, models.StatusCancelled}: {models.RoleAnalyst, models.RoleAdmin},

	{models.StatusSubmitted, models.StatusNeedsClarification}: {models.RoleVerifier, models.RoleAdmin},
	{models.StatusSubmitted, models.StatusVerifierApproved}:   {models.RoleVerifier, models.RoleAdmin},
	{models.StatusSubmitted, models.StatusRejected}:           {models.RoleVerifier, models.RoleAdmin},
	{models.StatusSubmitted, models.StatusCancelled}:          {models.RoleAdmin},

	{models.StatusNeedsClarification, models.StatusVerifierResponded}: {models.RoleAnalyst, models.RoleAdmin},
	{models.StatusNeedsClarification, models.StatusCancelled}:         {models.RoleAdmin},

	{models.StatusVerifierResponded, models.StatusVerifierApproved}: {models.RoleVerifier, models.RoleAdmin},
	{models.StatusVerifierResponded, models.StatusRejected}:         {models.RoleVerifier, models.RoleAdmin},

	{models.StatusVerifierApproved, models.StatusAdminHold}:     {models.RoleAdmin},
	{models.StatusVerifierApproved, models.StatusAdminApproved}: {models.RoleAdmin},
	{models.StatusVerifierApproved, models.StatusRejected}:      {models.RoleAdmin},
	{models.StatusVerifierApproved, models.StatusSentToKiwi}:    {models.RoleAdmin},

	{models.StatusAdminHold, models.StatusAdminApproved}: {models.RoleAdmin},
	{models.StatusAdminHold, models.StatusRejected}:      {models.RoleAdmin},

	{models.StatusAdminApproved, models.StatusApplied}:    {models.RoleAdmin},
	{models.StatusAdminApproved, models.StatusSentToKiwi}: {models.RoleAdmin},

	{models.StatusSentToKiwi, models.StatusKiwiReturned}: {models.RoleAdmin},

	{models.StatusKiwiReturned, models.StatusApplied}:  {models.RoleAdmin},
	{models.StatusKiwiReturned, models.StatusRejected}: {models.RoleAdmin},
}

// eventTypes maps each target status to the audit vocabulary for the edge
// that reaches it.
var eventTypes = map[models.Status]string{
	models.StatusSubmitted:          audit.EventPatchSubmitted,
	models.StatusNeedsClarification: audit.EventPatchClarificationRequest,
	models.StatusVerifierResponded:  audit.EventPatchClarificationAnswered,
	models.StatusVerifierApproved:   audit.EventPatchVerifierApproved,
	models.StatusAdminHold:          audit.EventPatchAdminHold,
	models.StatusAdminApproved:      audit.EventPatchAdminApproved,
	models.StatusSentToKiwi:         audit.EventPatchSentToKiwi,
	models.StatusKiwiReturned:       audit.EventPatchKiwiReturned,
	models.StatusApplied:            audit.EventPatchApplied,
	models.StatusRejected:           audit.EventPatchRejected,
	models.StatusCancelled:          audit.EventPatchCancelled,
}

// CanTransition reports whether the edge exists and the role may traverse it.
// The returned error distinguishes a missing edge from a role denial via the
// "reason" metadata key ("no_edge" or "role").
func CanTransition(from, to models.Status, role models.Role) error {
	roles, ok := transitions[edge{from, to}]
	if !ok {
		return dErrors.New(dErrors.CodeTransitionDenied,
			"no transition from "+string(from)+" to "+string(to)).
			Add("reason", "no_edge")
	}
	for _, r := range roles {
		if r == role {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeTransitionDenied,
		"role "+string(role)+" may not move "+string(from)+" to "+string(to)).
		Add("reason", "role")
}

// Result pairs the transitioned request with the audit event describing the
// transition. Callers persist both or neither.
type Result struct {
	Request *models.PatchRequest
	Event   audit.Event
}

// Apply validates the transition and, when legal, returns a copy of the
// request at the new status together with its audit event. The input request
// is never mutated; on rejection nothing is produced.
func Apply(req *models.PatchRequest, to models.Status, actor string, role models.Role, ident identity.Context, now time.Time) (*Result, error) {
	if err := CanTransition(req.Status, to, role); err != nil {
		return nil, err
	}

	updated := req.Clone()
	before := req.Status
	updated.Status = to
	updated.UpdatedAt = now

	return &Result{
		Request: updated,
		Event: audit.Event{
			EventType:      eventTypes[to],
			ActorID:        actor,
			ActorRole:      string(role),
			Timestamp:      now,
			DatasetID:      ident.DatasetID,
			FileID:         req.Sheet,
			RecordID:       req.Target,
			FieldKey:       req.Field,
			PatchRequestID: req.RequestID,
			BeforeValue:    string(before),
			AfterValue:     string(to),
		},
	}, nil
}

// Package service is the patch request lifecycle manager: it creates
// requests, routes status changes through the transition machine, and keeps
// the status write and its audit event atomic with respect to each other.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"patchdesk/internal/audit"
	"patchdesk/internal/identity"
	"patchdesk/internal/patch/machine"
	"patchdesk/internal/patch/models"
	"patchdesk/internal/platform/metrics"
	dErrors "patchdesk/pkg/domain-errors"
	"patchdesk/pkg/platform/sentinel"
)

// Store is the persistence surface the lifecycle needs.
type Store interface {
	Save(ctx context.Context, req *models.PatchRequest) error
	Get(ctx context.Context, id string) (*models.PatchRequest, error)
	List(ctx context.Context) ([]*models.PatchRequest, error)
}

// Service orchestrates patch request creation and transitions.
type Service struct {
	store    Store
	timeline *audit.Timeline
	tx       TxRunner
	ident    identity.Context
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, timeline *audit.Timeline, tx TxRunner, ident identity.Context, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		timeline: timeline,
		tx:       tx,
		ident:    ident,
		logger:   logger,
		tracer:   otel.Tracer("patchdesk/patch"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the evidence bundle, assigns an id, and persists the new
// request at Draft. The preflight context is stored verbatim; the returned
// object is the stored one.
func (s *Service) Create(ctx context.Context, input *models.CreateRequest) (*models.PatchRequest, error) {
	ctx, span := s.tracer.Start(ctx, "patch.Create")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	req := &models.PatchRequest{
		RequestID:  GenerateID(now),
		Author:     input.Author,
		AuthorRole: input.AuthorRole,
		Status:     models.StatusDraft,
		PatchKind:  input.PatchKind,

		Target: input.Target,
		Sheet:  input.Sheet,
		Field:  input.Field,

		ConditionType: input.ConditionType,
		ActionType:    input.ActionType,
		Severity:      input.Severity,
		Risk:          input.Risk,

		Because:               input.Because,
		Rationale:             input.Rationale,
		EvidenceObservation:   input.EvidenceObservation,
		EvidenceExpected:      input.EvidenceExpected,
		EvidenceJustification: input.EvidenceJustification,
		EvidenceRepro:         input.EvidenceRepro,

		ProposedValue: input.ProposedValue,
		CurrentValue:  input.CurrentValue,

		PreflightContext: input.PreflightContext.Clone(),

		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Save(ctx, req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist patch request")
	}
	if s.metrics != nil {
		s.metrics.PatchRequestsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "patch request created",
		"request_id", req.RequestID,
		"patch_kind", req.PatchKind,
		"author_role", req.AuthorRole,
	)
	return req.Clone(), nil
}

// Get loads a single request.
func (s *Service) Get(ctx context.Context, id string) (*models.PatchRequest, error) {
	req, err := s.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "patch request not found: "+id)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load patch request")
	}
	return req, nil
}

// List returns all requests in creation order.
func (s *Service) List(ctx context.Context) ([]*models.PatchRequest, error) {
	reqs, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list patch requests")
	}
	return reqs, nil
}

// Submit moves a request to Submitted. Resubmitting an already-Submitted
// request is rejected by the machine, not silently accepted.
func (s *Service) Submit(ctx context.Context, id string, actor string, role models.Role) (*models.PatchRequest, error) {
	return s.UpdateStatus(ctx, id, models.StatusSubmitted, actor, role)
}

// UpdateStatus is the generalized transition entry point. The whole
// read-validate-write-audit cycle runs inside the transaction boundary:
// current status is re-read under the lock so racing actors cannot both
// validate against a stale state, and a transition is never observable
// without its audit event.
func (s *Service) UpdateStatus(ctx context.Context, id string, to models.Status, actor string, role models.Role) (*models.PatchRequest, error) {
	ctx, span := s.tracer.Start(ctx, "patch.UpdateStatus")
	defer span.End()

	var updated *models.PatchRequest
	err := s.tx.RunInTx(ctx, id, func(ctx context.Context) error {
		current, err := s.store.Get(ctx, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "patch request not found: "+id)
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load patch request")
		}

		result, err := machine.Apply(current, to, actor, role, s.ident, s.now().UTC())
		if err != nil {
			if s.metrics != nil {
				reason := "no_edge"
				var de *dErrors.DomainError
				if errors.As(err, &de) {
					if r, ok := de.Load("reason"); ok {
						reason = r
					}
				}
				s.metrics.TransitionsDenied.WithLabelValues(reason).Inc()
			}
			return err
		}

		if err := s.store.Save(ctx, result.Request); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist status transition")
		}
		if err := s.timeline.Emit(ctx, result.Event); err != nil {
			// Without the audit event the new status must not survive. Under
			// SQLTx the rollback undoes the save; the in-memory runner
			// compensates by restoring the prior state before reporting.
			if restoreErr := s.store.Save(ctx, current); restoreErr != nil {
				s.logger.ErrorContext(ctx, "failed to restore status after audit failure",
					"request_id", id,
					"error", restoreErr,
				)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "transition aborted: audit event not recorded")
		}

		updated = result.Request
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TransitionsApplied.WithLabelValues(string(to)).Inc()
		s.metrics.AuditEventsEmitted.Inc()
	}
	s.logger.InfoContext(ctx, "patch request transitioned",
		"request_id", id,
		"to_status", to,
		"actor_role", role,
	)
	return updated, nil
}

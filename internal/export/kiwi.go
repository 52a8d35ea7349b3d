package export

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"patchdesk/internal/patch/models"
	"patchdesk/pkg/platform/sentinel"
)

// RequestGetter is the slice of the patch store the serializer needs.
type RequestGetter interface {
	Get(ctx context.Context, requestID string) (*models.PatchRequest, error)
}

// EvidencePack groups the narrative evidence fields for downstream Kiwi
// consumption.
type EvidencePack struct {
	Because       string `json:"because"`
	Rationale     string `json:"rationale"`
	Observation   string `json:"observation"`
	Expected      string `json:"expected"`
	Justification string `json:"justification"`
	Repro         string `json:"repro"`
}

type kiwiRequest struct {
	*models.PatchRequest
	EvidencePack EvidencePack `json:"evidence_pack"`
}

type kiwiEnvelope struct {
	Requests []kiwiRequest `json:"requests"`
}

// KiwiSerializer renders patch requests into the Kiwi interchange payload.
type KiwiSerializer struct {
	store  RequestGetter
	logger *slog.Logger
}

func NewKiwiSerializer(store RequestGetter, logger *slog.Logger) *KiwiSerializer {
	return &KiwiSerializer{store: store, logger: logger}
}

// Export serializes the requests with the given ids as {"requests":[...]}.
// Unknown ids are skipped, not errors; partial hand-offs are expected when a
// request was cancelled between selection and export.
func (s *KiwiSerializer) Export(ctx context.Context, requestIDs []string) ([]byte, error) {
	envelope := kiwiEnvelope{Requests: make([]kiwiRequest, 0, len(requestIDs))}
	for _, id := range requestIDs {
		req, err := s.store.Get(ctx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				s.logger.Warn("kiwi export skipping unknown request", "request_id", id)
				continue
			}
			return nil, err
		}
		envelope.Requests = append(envelope.Requests, kiwiRequest{
			PatchRequest: req,
			EvidencePack: EvidencePack{
				Because:       req.Because,
				Rationale:     req.Rationale,
				Observation:   req.EvidenceObservation,
				Expected:      req.EvidenceExpected,
				Justification: req.EvidenceJustification,
				Repro:         req.EvidenceRepro,
			},
		})
	}
	return json.Marshal(envelope)
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"patchdesk/internal/audit"
	auditmemory "patchdesk/internal/audit/store/memory"
	"patchdesk/internal/export"
	"patchdesk/internal/identity"
	"patchdesk/internal/jwtauth"
	"patchdesk/internal/patch/models"
	"patchdesk/internal/patch/service"
	patchmemory "patchdesk/internal/patch/store/memory"
	"patchdesk/internal/platform/secrets"
	"patchdesk/internal/transport/http/mocks"
)

const testClientSecret = "s3cret"

type RouterSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	drive    *mocks.MockDriveSaver
	jwt      *jwtauth.Service
	store    *patchmemory.Store
	timeline *audit.Timeline
	server   *httptest.Server
}

func (s *RouterSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.drive = mocks.NewMockDriveSaver(s.ctrl)

	logger := slog.New(slog.DiscardHandler)
	ident := identity.Context{
		TenantID:    "tenant_dev",
		DivisionID:  "division_dev",
		DatasetID:   "dataset_dev",
		WorkspaceID: "ws_demo",
		BatchID:     "batch_001",
	}
	s.store = patchmemory.New()
	s.timeline = audit.NewTimeline(auditmemory.New(), logger)
	svc := service.New(s.store, s.timeline, service.NewShardedTx(), ident, logger)

	s.jwt = jwtauth.NewService("test-key", "patchdesk")
	secretHash, err := secrets.HashSecret(testClientSecret)
	s.Require().NoError(err)

	builder := export.NewBuilder(ident, s.timeline,
		export.WithClock(func() time.Time {
			return time.Date(2026, 2, 18, 16, 45, 0, 0, time.UTC)
		}))
	kiwi := export.NewKiwiSerializer(s.store, logger)

	router := NewRouter(RouterDeps{
		JWT:           s.jwt,
		Auth:          NewAuthHandler(s.jwt, secretHash, ident.WorkspaceID, logger),
		PatchRequests: NewPatchRequestHandler(svc, logger),
		Audit:         NewAuditHandler(s.timeline, logger),
		Export: NewExportHandler(builder, kiwi, s.drive, ident, logger,
			WithExportClock(func() time.Time {
				return time.Date(2026, 2, 18, 16, 45, 0, 0, time.UTC)
			})),
		Logger:        logger,
	})
	s.server = httptest.NewServer(router)
	s.T().Cleanup(s.server.Close)
}

func (s *RouterSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) request(method, path, token string, body any) (*http.Response, []byte) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, payload
}

func (s *RouterSuite) token(role string) string {
	token, err := s.jwt.GenerateAccessToken("u_1", "Test User", role, "ws_demo", time.Hour)
	s.Require().NoError(err)
	return token
}

func createBody() map[string]any {
	return map[string]any{
		"patch_kind":             "correction",
		"target":                 "row_42",
		"sheet":                  "Contracts",
		"field":                  "termination_date",
		"condition_type":         "INCORRECT_VALUE",
		"action_type":            "UPDATE_VALUE",
		"severity":               "major",
		"risk":                   "medium",
		"because":                "date precedes signature date",
		"rationale":              "source contract shows 2027-01-31",
		"evidence_observation":   "cell holds 2026-01-31",
		"evidence_expected":      "2027-01-31",
		"evidence_justification": "matches executed amendment",
		"evidence_repro":         "open contract PDF page 4",
		"proposed_value":         "2027-01-31",
		"current_value":          "2026-01-31",
	}
}

func (s *RouterSuite) createRequest(token string) string {
	resp, payload := s.request(http.MethodPost, "/api/v2.5/patch-requests", token, createBody())
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(payload))

	var created models.PatchRequest
	s.Require().NoError(json.Unmarshal(payload, &created))
	return created.RequestID
}

func (s *RouterSuite) TestTokenIssuance() {
	s.Run("issues a token for a valid secret", func() {
		resp, payload := s.request(http.MethodPost, "/api/v2.5/auth/token", "", map[string]string{
			"user_id":       "u_1",
			"display_name":  "Alice",
			"role":          "analyst",
			"client_secret": testClientSecret,
		})
		s.Require().Equal(http.StatusOK, resp.StatusCode, string(payload))

		var body tokenResponse
		s.Require().NoError(json.Unmarshal(payload, &body))
		s.Equal("Bearer", body.TokenType)

		claims, err := s.jwt.ValidateToken(body.AccessToken)
		s.Require().NoError(err)
		s.Equal("analyst", claims.Role)
		s.Equal("ws_demo", claims.WorkspaceID)
	})

	s.Run("rejects a wrong secret", func() {
		resp, _ := s.request(http.MethodPost, "/api/v2.5/auth/token", "", map[string]string{
			"user_id":       "u_1",
			"role":          "analyst",
			"client_secret": "wrong",
		})
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("rejects an unknown role", func() {
		resp, _ := s.request(http.MethodPost, "/api/v2.5/auth/token", "", map[string]string{
			"user_id":       "u_1",
			"role":          "superuser",
			"client_secret": testClientSecret,
		})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *RouterSuite) TestAuthIsRequired() {
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v2.5/patch-requests"},
		{http.MethodPost, "/api/v2.5/patch-requests"},
		{http.MethodGet, "/api/v2.5/audit-events"},
		{http.MethodPost, "/api/v2.5/export/workbook"},
		{http.MethodPost, "/api/v2.5/export/kiwi"},
	}
	for _, tc := range paths {
		resp, _ := s.request(tc.method, tc.path, "", nil)
		s.Equal(http.StatusUnauthorized, resp.StatusCode, tc.path)
	}
}

func (s *RouterSuite) TestPatchRequestLifecycle() {
	analyst := s.token("analyst")
	verifier := s.token("verifier")

	id := s.createRequest(analyst)

	s.Run("get returns the stored request", func() {
		resp, payload := s.request(http.MethodGet, "/api/v2.5/patch-requests/"+id, analyst, nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		var got models.PatchRequest
		s.Require().NoError(json.Unmarshal(payload, &got))
		s.Equal("Draft", string(got.Status))
		s.Equal("Test User", got.Author, "author comes from the token")
	})

	s.Run("submit advances the status", func() {
		resp, payload := s.request(http.MethodPost, "/api/v2.5/patch-requests/"+id+"/submit", analyst, nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode, string(payload))

		var got models.PatchRequest
		s.Require().NoError(json.Unmarshal(payload, &got))
		s.Equal(models.StatusSubmitted, got.Status)
	})

	s.Run("verifier approves via status endpoint", func() {
		resp, payload := s.request(http.MethodPost, "/api/v2.5/patch-requests/"+id+"/status", verifier,
			map[string]string{"status": "Verifier_Approved"})
		s.Require().Equal(http.StatusOK, resp.StatusCode, string(payload))
	})

	s.Run("illegal transition returns 403", func() {
		resp, _ := s.request(http.MethodPost, "/api/v2.5/patch-requests/"+id+"/status", analyst,
			map[string]string{"status": "Applied"})
		s.Equal(http.StatusForbidden, resp.StatusCode)
	})

	s.Run("unknown status returns 400", func() {
		resp, _ := s.request(http.MethodPost, "/api/v2.5/patch-requests/"+id+"/status", analyst,
			map[string]string{"status": "Telepathic"})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("audit events recorded per transition", func() {
		resp, payload := s.request(http.MethodGet, "/api/v2.5/audit-events", analyst, nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		var body auditListResponse
		s.Require().NoError(json.Unmarshal(payload, &body))
		s.Equal(2, body.Total)
		s.Equal(audit.EventPatchSubmitted, body.Events[0].EventType)
		s.Equal(audit.EventPatchVerifierApproved, body.Events[1].EventType)
	})

	s.Run("list includes the request", func() {
		resp, payload := s.request(http.MethodGet, "/api/v2.5/patch-requests", analyst, nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		var body listResponse
		s.Require().NoError(json.Unmarshal(payload, &body))
		s.Equal(1, body.Total)
	})

	s.Run("unknown id returns 404", func() {
		resp, _ := s.request(http.MethodGet, "/api/v2.5/patch-requests/pr_missing", analyst, nil)
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})
}

func (s *RouterSuite) TestCreateValidation() {
	analyst := s.token("analyst")
	body := createBody()
	delete(body, "because")

	resp, payload := s.request(http.MethodPost, "/api/v2.5/patch-requests", analyst, body)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(string(payload), "because")
}

func snapshotBody(full, save bool) map[string]any {
	return map[string]any{
		"full":          full,
		"save_to_drive": save,
		"snapshot": map[string]any{
			"sheet_order":  []string{"Contracts"},
			"active_sheet": "Contracts",
			"sheets": map[string]any{
				"Contracts": map[string]any{
					"headers": []string{"contract_id"},
					"rows":    [][]string{{"C-001"}},
				},
			},
			"total_records": 1,
			"status_label":  "in progress",
		},
	}
}

func (s *RouterSuite) TestWorkbookExport() {
	verifier := s.token("verifier")

	s.Run("clean export omits governance sheets", func() {
		resp, payload := s.request(http.MethodPost, "/api/v2.5/export/workbook", verifier, snapshotBody(false, false))
		s.Require().Equal(http.StatusOK, resp.StatusCode, string(payload))

		var body workbookResponse
		s.Require().NoError(json.Unmarshal(payload, &body))
		s.Equal([]string{"Contracts"}, body.Workbook.SheetNames)
		s.False(body.SavedToDrive)
		s.Equal("batch_001__IN_PROGRESS_ANALYST__2026-02-18_16-45__ws_demo.xlsx", body.FileName)
	})

	s.Run("full export appends governance sheets", func() {
		resp, payload := s.request(http.MethodPost, "/api/v2.5/export/workbook", verifier, snapshotBody(true, false))
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		var body workbookResponse
		s.Require().NoError(json.Unmarshal(payload, &body))
		s.Contains(body.Workbook.SheetNames, export.SheetGovMeta)
		s.Contains(body.Workbook.SheetNames, export.SheetAuditLog)
	})

	s.Run("save to drive forces full mode and calls the drive", func() {
		s.drive.EXPECT().
			Save(gomock.Any(), "ws_demo", gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, fileName string, wb *export.Workbook) error {
				s.True(wb.HasSheet(export.SheetGovMeta))
				s.Contains(fileName, ".xlsx")
				return nil
			})

		resp, payload := s.request(http.MethodPost, "/api/v2.5/export/workbook", verifier, snapshotBody(false, true))
		s.Require().Equal(http.StatusOK, resp.StatusCode, string(payload))

		var body workbookResponse
		s.Require().NoError(json.Unmarshal(payload, &body))
		s.True(body.SavedToDrive)
	})

	s.Run("missing snapshot returns 400", func() {
		resp, _ := s.request(http.MethodPost, "/api/v2.5/export/workbook", verifier, map[string]any{"full": true})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *RouterSuite) TestKiwiExport() {
	analyst := s.token("analyst")
	id := s.createRequest(analyst)

	s.Run("serializes selected requests", func() {
		resp, payload := s.request(http.MethodPost, "/api/v2.5/export/kiwi", analyst,
			map[string]any{"request_ids": []string{id, "pr_missing"}})
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		var body struct {
			Requests []map[string]any `json:"requests"`
		}
		s.Require().NoError(json.Unmarshal(payload, &body))
		s.Require().Len(body.Requests, 1)
		s.Contains(body.Requests[0], "evidence_pack")
	})

	s.Run("empty selection returns 400", func() {
		resp, _ := s.request(http.MethodPost, "/api/v2.5/export/kiwi", analyst,
			map[string]any{"request_ids": []string{}})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *RouterSuite) TestHealthAndMetrics() {
	resp, payload := s.request(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.JSONEq(`{"status":"ok"}`, string(payload))

	resp, _ = s.request(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

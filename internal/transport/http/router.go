// Package http wires the API handlers into the /api/v2.5 router.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"patchdesk/internal/jwtauth"
	"patchdesk/internal/platform/middleware"
)

// APIPrefix is the versioned mount point for every API route.
const APIPrefix = "/api/v2.5"

// validatorAdapter bridges the jwtauth service to the middleware contract.
type validatorAdapter struct {
	jwt *jwtauth.Service
}

func (v validatorAdapter) ValidateToken(token string) (*middleware.JWTClaims, error) {
	claims, err := v.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
		Role:        claims.Role,
		WorkspaceID: claims.WorkspaceID,
	}, nil
}

// RouterDeps lists everything the router mounts.
type RouterDeps struct {
	JWT           *jwtauth.Service
	Auth          *AuthHandler
	PatchRequests *PatchRequestHandler
	Audit         *AuditHandler
	Export        *ExportHandler
	Logger        *slog.Logger
}

// NewRouter assembles the API router. Everything under the prefix except
// token issuance requires a bearer token.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route(APIPrefix, func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Post("/auth/token", deps.Auth.Token)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(validatorAdapter{jwt: deps.JWT}, deps.Logger))

			r.Route("/patch-requests", func(r chi.Router) {
				r.Post("/", deps.PatchRequests.Create)
				r.Get("/", deps.PatchRequests.List)
				r.Get("/{id}", deps.PatchRequests.Get)
				r.Post("/{id}/submit", deps.PatchRequests.Submit)
				r.Post("/{id}/status", deps.PatchRequests.UpdateStatus)
			})

			r.Get("/audit-events", deps.Audit.List)

			r.Route("/export", func(r chi.Router) {
				r.Post("/workbook", deps.Export.Workbook)
				r.Post("/kiwi", deps.Export.Kiwi)
			})
		})
	})
	return r
}

package http

import (
	"log/slog"
	"net/http"
	"time"

	"patchdesk/internal/jwtauth"
	"patchdesk/internal/patch/models"
	"patchdesk/internal/platform/middleware"
	"patchdesk/internal/platform/secrets"
	"patchdesk/internal/transport/http/shared"
	dErrors "patchdesk/pkg/domain-errors"
)

const accessTokenTTL = 8 * time.Hour

// AuthHandler issues workspace-scoped access tokens.
type AuthHandler struct {
	jwt              *jwtauth.Service
	clientSecretHash string
	workspaceID      string
	logger           *slog.Logger
}

func NewAuthHandler(jwt *jwtauth.Service, clientSecretHash, workspaceID string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		jwt:              jwt,
		clientSecretHash: clientSecretHash,
		workspaceID:      workspaceID,
		logger:           logger,
	}
}

type tokenRequest struct {
	UserID       string `json:"user_id"`
	DisplayName  string `json:"display_name"`
	Role         string `json:"role"`
	ClientSecret string `json:"client_secret"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token handles POST /auth/token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	if req.UserID == "" || req.Role == "" {
		shared.WriteError(w, r, h.logger,
			dErrors.New(dErrors.CodeValidation, "user_id and role are required"))
		return
	}
	switch models.Role(req.Role) {
	case models.RoleAnalyst, models.RoleVerifier, models.RoleAdmin:
	default:
		shared.WriteError(w, r, h.logger,
			dErrors.New(dErrors.CodeValidation, "unknown role: "+req.Role))
		return
	}

	if h.clientSecretHash != "" {
		if err := secrets.VerifySecret(h.clientSecretHash, req.ClientSecret); err != nil {
			h.logger.WarnContext(r.Context(), "token request rejected",
				"user_id", req.UserID,
				"request_id", middleware.GetRequestID(r.Context()),
			)
			shared.WriteError(w, r, h.logger, err)
			return
		}
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.UserID
	}
	token, err := h.jwt.GenerateAccessToken(req.UserID, displayName, req.Role, h.workspaceID, accessTokenTTL)
	if err != nil {
		shared.WriteError(w, r, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(accessTokenTTL.Seconds()),
	})
}

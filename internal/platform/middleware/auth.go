package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// JWTValidator defines the interface for validating bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	UserID      string
	DisplayName string
	Role        string
	WorkspaceID string
}

// Context keys for authenticated user information.
type contextKeyUserID struct{}
type contextKeyDisplayName struct{}
type contextKeyRole struct{}
type contextKeyWorkspaceID struct{}

var (
	ContextKeyUserID      = contextKeyUserID{}
	ContextKeyDisplayName = contextKeyDisplayName{}
	ContextKeyRole        = contextKeyRole{}
	ContextKeyWorkspaceID = contextKeyWorkspaceID{}
)

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(ContextKeyUserID).(string)
	if !ok {
		return ""
	}
	return userID
}

// GetDisplayName retrieves the authenticated user's display name.
func GetDisplayName(ctx context.Context) string {
	name, ok := ctx.Value(ContextKeyDisplayName).(string)
	if !ok {
		return ""
	}
	return name
}

// GetRole retrieves the authenticated user's governance role.
func GetRole(ctx context.Context) string {
	role, ok := ctx.Value(ContextKeyRole).(string)
	if !ok {
		return ""
	}
	return role
}

// GetWorkspaceID retrieves the workspace scope of the token.
func GetWorkspaceID(ctx context.Context) string {
	ws, ok := ctx.Value(ContextKeyWorkspaceID).(string)
	if !ok {
		return ""
	}
	return ws
}

// RequireAuth rejects requests without a valid bearer token and stashes the
// claims in the request context for handlers.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				unauthorized(w, r, logger, "missing token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				unauthorized(w, r, logger, "invalid token")
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, ContextKeyUserID, claims.UserID)
			ctx = context.WithValue(ctx, ContextKeyDisplayName, claims.DisplayName)
			ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)
			ctx = context.WithValue(ctx, ContextKeyWorkspaceID, claims.WorkspaceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, logger *slog.Logger, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if _, err := w.Write([]byte(`{"error":"unauthorized","error_description":"Invalid or missing token"}`)); err != nil {
		logger.ErrorContext(r.Context(), "failed to write unauthorized response",
			"error", err,
			"reason", reason,
		)
	}
}

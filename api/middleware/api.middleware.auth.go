package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gearlog/wican-hub/internal/errors"
)

type contextKey string

const rolesContextKey contextKey = "roles"

// TokenMiddleware guards the admin/read surface with the process-wide
// token. Device tokens only ever authorize the ingest endpoint, which
// does its own validation against the payload's device id.
type TokenMiddleware struct {
	globalToken string
}

func NewTokenMiddleware(globalToken string) *TokenMiddleware {
	return &TokenMiddleware{globalToken: globalToken}
}

// Authenticate validates the bearer token and attaches the caller's
// roles to the request context.
func (m *TokenMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractToken(r)
		if token == "" {
			handleError(w, errors.NewAuthError("invalid or missing token", nil))
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(m.globalToken)) != 1 {
			handleError(w, errors.NewAuthError("invalid or missing token", nil))
			return
		}

		ctx := context.WithValue(r.Context(), rolesContextKey, []string{"admin", "system"})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RolesFromContext returns the caller's roles, empty when unauthenticated.
func RolesFromContext(ctx context.Context) []string {
	if roles, ok := ctx.Value(rolesContextKey).([]string); ok {
		return roles
	}
	return nil
}

// ExtractToken pulls the bearer token out of the Authorization header.
func ExtractToken(r *http.Request) string {
	bearerToken := r.Header.Get("Authorization")
	parts := strings.SplitN(bearerToken, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func handleError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
}

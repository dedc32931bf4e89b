// FilePath: api/middleware/api.middleware.auth_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer token", "Bearer secret-token", "secret-token"},
		{"lowercase scheme", "bearer secret-token", "secret-token"},
		{"padded token", "Bearer   secret-token", "secret-token"},
		{"no header", "", ""},
		{"wrong scheme", "Basic secret-token", ""},
		{"scheme only", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, ExtractToken(r))
		})
	}
}

func TestAuthenticate(t *testing.T) {
	mw := NewTokenMiddleware("global-secret")

	var gotRoles []string
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRoles = RolesFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token", func(t *testing.T) {
		gotRoles = nil
		r := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
		r.Header.Set("Authorization", "Bearer global-secret")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"admin", "system"}, gotRoles)
	})

	t.Run("wrong token", func(t *testing.T) {
		gotRoles = nil
		r := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
		r.Header.Set("Authorization", "Bearer wrong")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, gotRoles)
		assert.Contains(t, w.Body.String(), "invalid or missing token")
	})

	t.Run("missing token", func(t *testing.T) {
		gotRoles = nil
		r := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, gotRoles)
	})
}

func TestRolesFromContextUnauthenticated(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, RolesFromContext(r.Context()))
}

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"go-env-manager/internal/model"
)

type stubValidator struct {
	enabled bool
}

func (s stubValidator) Enabled() bool { return s.enabled }

func (s stubValidator) ValidateToken(token string, expectedType string) (*model.AuthClaims, error) {
	if token != "good" || expectedType != "access" {
		return nil, errors.New("bad token")
	}
	return &model.AuthClaims{Subject: "ci", Type: expectedType}, nil
}

func TestRequireAuth(t *testing.T) {
	var seen *model.AuthClaims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name    string
		enabled bool
		header  string
		status  int
	}{
		{name: "disabled passes through", enabled: false, status: http.StatusNoContent},
		{name: "missing header", enabled: true, status: http.StatusUnauthorized},
		{name: "wrong scheme", enabled: true, header: "Basic abc", status: http.StatusUnauthorized},
		{name: "invalid token", enabled: true, header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "valid token", enabled: true, header: "bearer good", status: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			handler := NewAuthMiddleware(stubValidator{enabled: tt.enabled}).RequireAuth(next)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/groups", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.name == "valid token" {
				if assert.NotNil(t, seen) {
					assert.Equal(t, "ci", seen.Subject)
				}
			}
		})
	}
}

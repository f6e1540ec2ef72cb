package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T) *ServiceTokenAuth {
	t.Helper()
	hash, err := HashServiceToken("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	auth, err := NewServiceTokenAuth(hash)
	require.NoError(t, err)
	return auth
}

func TestNewServiceTokenAuth_RejectsBadHash(t *testing.T) {
	_, err := NewServiceTokenAuth("  ")
	assert.ErrorIs(t, err, ErrEmptyTokenHash)

	_, err = NewServiceTokenAuth("plain-text")
	assert.Error(t, err)
}

func TestServiceTokenAuth_Middleware(t *testing.T) {
	auth := newTestAuth(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := auth.Middleware(ok)

	tests := []struct {
		name   string
		header string
		value  string
		want   int
		code   string
	}{
		{name: "bearer", header: "Authorization", value: "Bearer s3cret", want: http.StatusNoContent},
		{name: "service header", header: ServiceTokenHeader, value: "s3cret", want: http.StatusNoContent},
		{name: "missing", want: http.StatusUnauthorized, code: "missing_token"},
		{name: "wrong", header: "Authorization", value: "Bearer nope", want: http.StatusUnauthorized, code: "invalid_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/task-logs", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.code != "" {
				assert.Contains(t, rec.Body.String(), tt.code)
			}
		})
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	h := RequestSizeLimitMiddleware(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	h := SecurityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVICE TOKEN AUTHENTICATION
// ══════════════════════════════════════════════════════════════════════════════

// ServiceTokenHeader is checked when no bearer token is present.
const ServiceTokenHeader = "X-Service-Token"

// ErrEmptyTokenHash is returned when no hash is configured.
var ErrEmptyTokenHash = errors.New("service token hash is empty")

// ServiceTokenAuth checks a shared service token against its bcrypt hash.
type ServiceTokenAuth struct {
	hash []byte
}

// NewServiceTokenAuth validates hash and creates the authenticator.
func NewServiceTokenAuth(hash string) (*ServiceTokenAuth, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, ErrEmptyTokenHash
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, err
	}
	return &ServiceTokenAuth{hash: []byte(hash)}, nil
}

// HashServiceToken returns the bcrypt hash to configure for token.
func HashServiceToken(token string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// IsValid reports whether token matches the configured hash.
func (a *ServiceTokenAuth) IsValid(token string) bool {
	if token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.hash, []byte(token)) == nil
}

// Middleware rejects requests without a valid token with 401.
func (a *ServiceTokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)

		if token == "" {
			writeRawError(w, http.StatusUnauthorized, `{"success":false,"error":{"code":"missing_token","message":"Service token is required"}}`)
			return
		}
		if !a.IsValid(token) {
			writeRawError(w, http.StatusUnauthorized, `{"success":false,"error":{"code":"invalid_token","message":"Invalid service token"}}`)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func tokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get(ServiceTokenHeader))
}

// ══════════════════════════════════════════════════════════════════════════════
// SECURITY HEADERS MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// SecurityHeadersMiddleware adds security-related headers.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST SIZE LIMIT MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// RequestSizeLimitMiddleware limits the size of request bodies.
func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeRawError(w, http.StatusRequestEntityTooLarge, `{"success":false,"error":{"code":"payload_too_large","message":"Request body too large"}}`)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func writeRawError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body + "\n"))
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService("test-secret")
	require.NoError(t, err)
	return s
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService("")
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestTokenRoundTrip(t *testing.T) {
	s := newService(t)
	token, err := s.IssueToken(Identity{UserID: "user_1", DisplayName: "Ada"}, time.Hour)
	require.NoError(t, err)

	id, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "user_1", DisplayName: "Ada"}, id)
}

func TestDisplayNameDefaultsToSubject(t *testing.T) {
	s := newService(t)
	token, err := s.IssueToken(Identity{UserID: "user_2"}, 0)
	require.NoError(t, err)

	id, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user_2", id.DisplayName)
}

func TestRejectedTokens(t *testing.T) {
	s := newService(t)
	other, err := NewService("other-secret")
	require.NoError(t, err)

	foreign, err := other.IssueToken(Identity{UserID: "user_1"}, time.Hour)
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user_1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":    "not-a-token",
		"foreign":    foreign,
		"expired":    expired,
		"no subject": noSubject,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.ValidateToken(token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := newService(t)
	token, err := s.IssueToken(Identity{UserID: "user_1", DisplayName: "Ada"}, time.Hour)
	require.NoError(t, err)

	var seen Identity
	h := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		assert.Equal(t, "user_1", UserIDFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/designs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	assert.Equal(t, "Ada", seen.DisplayName)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	userID := uuid.New()

	token, err := issuer.GenerateToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestTokenRejectedAcrossSecrets(t *testing.T) {
	token, err := NewTokenIssuer("secret-one").GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-two").ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTMiddlewareGatesProtectedRoutes(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	userID := uuid.New()

	var seenUserID uuid.UUID
	handler := issuer.ApplyJWTMiddleware(func(w http.ResponseWriter, r *http.Request) {
		seenUserID, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}, "/feed")

	// No token.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/feed", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token.
	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/feed", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token reaches the handler with the user id in context.
	token, err := issuer.GenerateToken(userID)
	require.NoError(t, err)
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/feed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, seenUserID)
}

func TestUnprotectedRoutesBypassAuth(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	handler := issuer.ApplyJWTMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, "/auth/login")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/auth/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
